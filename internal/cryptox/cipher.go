// Package cryptox implements the trust primitives of the vault: reversible
// protection of secret values under a key derived from the owner's master
// credential, and one-way hashing of the credential itself.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/passvault/passvault/internal/common"
)

const (
	// DefaultKDFIterations is the PBKDF2 iteration count used when the
	// configuration does not override it.
	DefaultKDFIterations = 10000

	saltLength  = 16
	nonceLength = 12
	keyLength   = 32
)

// DeriveKey derives a 256-bit AES key from the master credential using
// PBKDF2-HMAC-SHA256. The salt must be random and unique per protected blob.
func DeriveKey(masterCredential, salt []byte, iterations int) []byte {
	return pbkdf2.Key(masterCredential, salt, iterations, keyLength, sha256.New)
}

// Protect encrypts plaintext under a key derived from masterCredential.
//
// A fresh random salt and nonce are generated on every call and stored in
// the returned blob (salt ∥ nonce ∥ AES-GCM ciphertext), so protecting the
// same plaintext twice yields different blobs.
func Protect(plaintext, masterCredential []byte, iterations int) ([]byte, error) {
	salt := common.GenerateRandByteArray(saltLength)
	nonce := common.GenerateRandByteArray(nonceLength)

	key := DeriveKey(masterCredential, salt, iterations)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.ErrorCrypto
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, common.ErrorCrypto
	}

	blob := make([]byte, 0, saltLength+nonceLength+len(plaintext)+aesgcm.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aesgcm.Seal(blob, nonce, plaintext, nil)

	return blob, nil
}

// Unprotect reverses Protect. It returns common.ErrorCrypto for any failure
// (wrong credential, truncated blob, corrupted ciphertext) without
// distinguishing between them.
func Unprotect(blob, masterCredential []byte, iterations int) ([]byte, error) {
	if len(blob) < saltLength+nonceLength {
		return nil, common.ErrorCrypto
	}

	salt := blob[:saltLength]
	nonce := blob[saltLength : saltLength+nonceLength]
	ciphertext := blob[saltLength+nonceLength:]

	key := DeriveKey(masterCredential, salt, iterations)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.ErrorCrypto
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, common.ErrorCrypto
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrorCrypto
	}

	return plaintext, nil
}
