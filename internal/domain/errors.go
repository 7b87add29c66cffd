package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when an entity lookup misses
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// ErrWorkerNotFound is wrapped by lookups of a single worker
var ErrWorkerNotFound = errors.New("worker not found")

// ErrUnsupportedBackend is returned for an unknown data, storage or cache kind
var ErrUnsupportedBackend = errors.New("unsupported backend")

// ValidationError represents an error that occurs due to invalid input or parameters.
// Fields maps an input field name to a user facing message.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("validation error: %s (%s)", e.Message, strings.Join(parts, "; "))
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}
