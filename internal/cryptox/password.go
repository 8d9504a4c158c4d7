package cryptox

import "golang.org/x/crypto/bcrypt"

// HashCredential hashes the raw master credential with bcrypt at the given
// cost. The result embeds its own salt; there is no way back to the input.
func HashCredential(raw []byte, cost int) ([]byte, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword(raw, cost)
}

// VerifyCredential reports whether raw matches the stored bcrypt hash.
// The comparison inside bcrypt is constant-time.
func VerifyCredential(raw, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, raw) == nil
}
