package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/passvault/passvault/internal/flagx"
	"github.com/passvault/passvault/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for lifetime fields, which accepts both
// string values such as "60m" and integer nanoseconds. After unmarshalling,
// its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenIssuer           string         `json:"token_issuer"`
	TokenAudience         string         `json:"token_audience"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	KDFIterations         int            `json:"kdf_iterations"`
	BcryptCost            int            `json:"bcrypt_cost"`
	KDFMaxConcurrency     int            `json:"kdf_max_concurrency"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.TokenIssuer = c.TokenIssuer
	config.TokenAudience = c.TokenAudience
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.KDFIterations = c.KDFIterations
	config.BcryptCost = c.BcryptCost
	config.KDFMaxConcurrency = c.KDFMaxConcurrency
}
