// Package compose renders a deployment plan as a Docker Compose file and
// loads it back for verification.
// This is part of the Functional Core - all functions are pure with no I/O.
package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Export errors
	ErrEmptyPlan = errors.New("plan has no packages")

	// Load errors
	ErrEmptyInput  = errors.New("compose file is empty")
	ErrInvalidYAML = errors.New("invalid YAML syntax")
	ErrNoServices  = errors.New("compose file must define at least one service")

	// Reload check errors
	ErrRoundTrip = errors.New("exported compose file does not match plan")
)

// ParseError wraps errors with context about where loading or checking failed.
type ParseError struct {
	Field   string // e.g., "services.conduit-core.ports[0]"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
