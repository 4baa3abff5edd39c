// Package common defines shared constants and sentinel errors used across
// the authentication server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrDuplicateTokenID = errors.New("duplicate token id")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveAccount    = errors.New("inactive user")
	ErrUnknownAccount     = errors.New("unknown account")

	// ErrInvalidToken is matched by every token decoding failure below.
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidSignature  = errors.New("invalid token signature")
	ErrMalformedToken    = errors.New("malformed token")
	ErrTokenExpired      = errors.New("token expired")
	ErrAlgorithmMismatch = errors.New("token algorithm mismatch")

	// Token lifecycle errors.
	ErrTokenTypeMismatch      = errors.New("invalid token type")
	ErrTokenNotFoundOrRevoked = errors.New("refresh token not found or revoked")
)
