// Package common defines shared constants, sentinel errors and small helpers
// used across the authkeeper server. Callers should use errors.Is to match
// the sentinel values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Input errors. Both are recoverable by the caller fixing the request.
	ErrInvalidInput   = errors.New("invalid input")
	ErrWeakCredential = errors.New("weak credential")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token lifecycle errors. Terminal for the token that produced them.
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenTampered = errors.New("token tampered")
	ErrTokenRevoked  = errors.New("token revoked")
)

// IsTokenError reports whether err is one of the token lifecycle errors.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenTampered) ||
		errors.Is(err, ErrTokenRevoked)
}
