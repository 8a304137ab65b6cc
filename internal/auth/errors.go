package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for any login mismatch. The same
	// value is used whether the account exists or not, so callers cannot
	// enumerate registered emails.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	ErrValidation  = errors.New("auth: validation failed")
	ErrConflict    = errors.New("auth: already registered")
	ErrNotFound    = errors.New("auth: not found")
	ErrUnknownRole = errors.New("auth: unknown role")

	// Token failures expose only the invalid/expired/revoked distinction,
	// never which individual check failed.
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrExpired      = errors.New("auth: token expired")
	ErrRevoked      = errors.New("auth: token revoked")
)
