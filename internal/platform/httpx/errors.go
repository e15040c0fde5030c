// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/airtrack/airtrack/internal/shared"
)

// RespondError maps domain errors to HTTP responses. The message is what the
// caller sees; internal error text is never written to the body.
func RespondError(w http.ResponseWriter, err error, message string) {
	status := StatusFor(err)
	if message == "" {
		message = http.StatusText(status)
	}
	Problem(w, status, http.StatusText(status), message)
}

// StatusFor returns the status code for an error in the shared taxonomy.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
