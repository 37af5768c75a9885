package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrUnauthorized  = fmt.Errorf("unauthorized")
	ErrAuthFailed    = fmt.Errorf("authentication failed")
	ErrTokenExpired  = fmt.Errorf("access token expired")
	ErrRefreshFailed = fmt.Errorf("token refresh failed")

	// API and service errors
	ErrUpstream           = fmt.Errorf("upstream request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")
	ErrPlaylistNotFound   = fmt.Errorf("playlist %w", ErrNotFound)

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrMissingArgument = fmt.Errorf("%w: missing required argument", ErrInvalidArgument)
)

// Classify maps an error to the HTTP status code that best describes it.
//
// Unknown errors are treated as internal server errors.
func Classify(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ErrServiceUnavailable), errors.Is(err, ErrMissingCredentials):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// StatusError maps a non-2xx upstream status code onto the error taxonomy.
//
// The detail (usually the upstream response body or message) is kept in the wrapped error.
func StatusError(service string, status int, detail string) error {
	var base error
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		base = ErrUnauthorized
	case http.StatusNotFound:
		base = ErrNotFound
	default:
		base = ErrUpstream
	}

	if detail == "" {
		return fmt.Errorf("%w: %s API status %d", base, service, status)
	}
	return fmt.Errorf("%w: %s API status %d: %s", base, service, status, detail)
}
