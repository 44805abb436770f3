// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/campus-records/records/internal/shared"
)

// ErrorPolicy holds the status codes used for the authentication failure
// kinds whose wire code is a deployment decision.
type ErrorPolicy struct {
	// AuthFailureStatus is written for unknown principals and rejected
	// credentials. Both produce the same body.
	AuthFailureStatus int
	// DenyStatus is written when an authenticated caller is refused.
	DenyStatus int
}

// DefaultErrorPolicy mirrors the codes existing clients depend on.
func DefaultErrorPolicy() ErrorPolicy {
	return ErrorPolicy{
		AuthFailureStatus: http.StatusInternalServerError,
		DenyStatus:        http.StatusUnauthorized,
	}
}

// Status maps a domain error to its HTTP status code.
func (p ErrorPolicy) Status(err error) int {
	switch {
	case errors.Is(err, shared.ErrUnknownPrincipal), errors.Is(err, shared.ErrAuthenticationFailed):
		return orDefault(p.AuthFailureStatus, http.StatusInternalServerError)
	case errors.Is(err, shared.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return orDefault(p.DenyStatus, http.StatusUnauthorized)
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func (p ErrorPolicy) RespondError(w http.ResponseWriter, err error) {
	status := p.Status(err)
	switch {
	case errors.Is(err, shared.ErrUnknownPrincipal), errors.Is(err, shared.ErrAuthenticationFailed):
		Problem(w, status, "Authentication Failed", "invalid credentials")
	case errors.Is(err, shared.ErrUnauthenticated), errors.Is(err, shared.ErrForbidden):
		// Deny reasons stay server side.
		Problem(w, status, http.StatusText(status), "")
	case status == http.StatusInternalServerError:
		Problem(w, status, "Internal Error", "")
	default:
		Problem(w, status, http.StatusText(status), err.Error())
	}
}

func orDefault(status, fallback int) int {
	if status < 100 || status > 599 {
		return fallback
	}
	return status
}
