// Package common defines shared constants and sentinel errors used across
// client and server layers of gatekeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Token errors. The gate recovers from these locally and leaves the
	// request unauthenticated.
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrSubjectMismatch       = errors.New("token subject mismatch")

	// ErrTokenRevoked marks a token that was explicitly logged out. It is
	// never downgraded to "unauthenticated".
	ErrTokenRevoked = errors.New("token revoked")

	// Directory errors.
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")

	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskDescription = errors.New("task description must not be blank")

	// ErrStoreUnavailable wraps any I/O failure of a backing store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Service-level errors.
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorMissingToken       = errors.New("missing token")
	ErrorInternal           = errors.New("internal error")
)
