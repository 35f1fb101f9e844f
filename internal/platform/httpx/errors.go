// Package httpx provides HTTP response utilities following RFC7807 problem
// details.
package httpx

import (
	"errors"
	"net/http"

	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// ErrValidation marks request payloads that fail validation.
var ErrValidation = errors.New("validation failed")

// RespondError maps domain errors to problem responses. Permission denial is
// not routed through here: guards answer it themselves.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrOTPExpired),
		errors.Is(err, shared.ErrOTPMismatch):
		Problem(w, http.StatusUnauthorized, "Authentication Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidToken):
		Problem(w, http.StatusUnauthorized, "Invalid Token", err.Error())
	case errors.Is(err, shared.ErrTooManyAttempts):
		Problem(w, http.StatusTooManyRequests, "Too Many Attempts", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
