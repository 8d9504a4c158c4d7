// Package models defines the persisted record shapes of the vault.
package models

import "time"

// Owner is a registered identity. CredentialHash is the one-way bcrypt hash
// of the master credential; it must never appear in any response.
type Owner struct {
	ID             string
	Username       string
	CredentialHash []byte
	CreatedAt      time.Time
}
