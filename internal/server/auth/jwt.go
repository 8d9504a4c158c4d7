// Package auth issues and validates the signed bearer tokens that carry an
// owner identity between login and subsequent vault requests.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/passvault/passvault/internal/common"
)

// Claims extends the registered JWT claims with the owner identifier.
type Claims struct {
	jwt.RegisteredClaims
	OwnerID string `json:"ownerId"`
}

// GenerateToken mints an HS256-signed token for ownerID. The expiry is
// issuance time plus validityDuration; issuer and audience are asserted so
// the validator can pin them.
func GenerateToken(ownerID string, secretKey []byte, issuer, audience string, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		OwnerID: ownerID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetOwnerIDFromToken verifies the token's signature, expiry, audience and
// issuer, and returns the embedded owner identifier.
//
// Every failure collapses to common.ErrorInvalidToken so callers cannot
// learn which check rejected the token.
func GetOwnerIDFromToken(tokenString string, secretKey []byte, issuer, audience string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.OwnerID == "" {
		return "", common.ErrorInvalidToken
	}

	return claims.OwnerID, nil
}
