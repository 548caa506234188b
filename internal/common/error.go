// Package common defines shared constants and sentinel errors used across
// the server, the API client and the CLI. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password so that callers cannot tell which one happened.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")

	// ErrRefreshTokenRevoked is returned when a well-formed refresh token is no
	// longer recorded server-side (already rotated or logged out).
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")

	ErrRateLimited = errors.New("rate limited")

	// Object storage errors.
	ErrForeignObjectURL = errors.New("url does not belong to this bucket")
	ErrInvalidObjectKey = errors.New("invalid object key")
)
