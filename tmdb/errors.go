package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy. Every error returned by this package wraps one of these.
var (
	// ErrNetwork indicates the request failed, timed out, or TMDB answered with a
	// server error or an unreadable body
	ErrNetwork = errors.New("tmdb: network error")
	// ErrAuth indicates a rejected API key, request token or session
	ErrAuth = errors.New("tmdb: authentication failed")
	// ErrNotFound indicates the entity is absent upstream
	ErrNotFound = errors.New("tmdb: resource not found")
	// ErrValidation indicates malformed request parameters
	ErrValidation = errors.New("tmdb: invalid request parameters")
)

// APIError represents a non-2xx response from TMDB
type APIError struct {
	StatusCode int
	// Code is TMDB's status_code field, not the HTTP status
	Code    int
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tmdb API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("tmdb API error: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the error taxonomy
func (e *APIError) Unwrap() error {
	switch {
	case e.IsNotFound():
		return ErrNotFound
	case e.IsUnauthorized():
		return ErrAuth
	case e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests:
		return ErrNetwork
	}
	return ErrValidation
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// validationError wraps ErrValidation with a reason
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
