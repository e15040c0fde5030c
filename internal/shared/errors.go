package shared

import "errors"

var (
	// ErrInvalidInput indicates malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized indicates a missing, invalid or expired credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict indicates a uniqueness violation such as a registered email.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrQuotaExceeded indicates the saved-city limit has been reached.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrProviderUnavailable indicates the external air-quality provider failed.
	ErrProviderUnavailable = errors.New("provider unavailable")
)
