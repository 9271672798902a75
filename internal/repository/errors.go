package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the repository has no record for the id.
	ErrNotFound = errors.New("content not found")
	// ErrUnauthorized is returned for 401/403 responses.
	ErrUnauthorized = errors.New("not authorized")
	// ErrTransport wraps network failures and unreadable responses.
	ErrTransport = errors.New("repository unreachable")
)

// ValidationError is a rejection reported by the repository with success=false
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("repository rejected request (status %d)", e.Status)
	}
	return e.Message
}

// IsValidation reports whether err carries a repository rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
