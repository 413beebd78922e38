package registryclient

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel wrapped by NotFoundError.
var ErrNotFound = errors.New("registryclient: not found")

// NotFoundError is returned when the registry has no such package or
// version.
type NotFoundError struct {
	Name    string
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("registry: %s@%s not found", e.Name, e.Version)
	}
	return fmt.Sprintf("registry: %s not found", e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// UnavailableError wraps a network failure, 429, or 5xx response from the
// registry.
type UnavailableError struct {
	URL string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("registry unavailable: %s: %v", e.URL, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// AuthError is returned on a 401/403 response.
type AuthError struct {
	URL        string
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("registry auth failed (HTTP %d): %s", e.StatusCode, e.URL)
}
