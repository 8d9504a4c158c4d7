// Package common contains sentinel errors and small helpers shared across
// passvault components.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// service specific errors
	ErrorValidation   = errors.New("validation error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInternal     = errors.New("internal error")

	// crypto specific errors: derivation or decryption failed. A single
	// sentinel covers every failure, so callers cannot tell a wrong
	// credential from corrupted data.
	ErrorCrypto = errors.New("crypto error")

	// auth specific errors
	ErrorInvalidToken = errors.New("invalid token")
)
