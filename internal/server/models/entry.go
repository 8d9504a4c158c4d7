package models

import "time"

// Entry is a single stored secret. ProtectedSecret is an opaque blob
// (salt ∥ nonce ∥ ciphertext) produced by cryptox.Protect; ownership is
// exclusive and immutable after creation.
type Entry struct {
	ID              string
	OwnerID         string
	ResourceName    string
	Username        string
	ProtectedSecret []byte
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
