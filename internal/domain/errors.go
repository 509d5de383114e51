package domain

import "errors"

var (
	// ErrConflict signals a duplicate unique field, e.g. email at registration.
	ErrConflict = errors.New("already exists")

	// ErrNotFound signals an unknown email or user id on a lookup path.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials signals a failed password check at login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenInvalid covers bad signature, malformed token, expiry, stale
	// claims and replay. The cases are deliberately not distinguished.
	ErrTokenInvalid = errors.New("token is invalid or expired")

	// ErrForbidden signals an authenticated caller with the wrong role.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation signals malformed input rejected before the service.
	ErrValidation = errors.New("validation failed")
)
