package model

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers match with errors.Is.
var (
	// ErrValidation marks malformed or out-of-range request input
	ErrValidation = errors.New("validation error")

	// ErrSourceUnavailable marks a single adapter failure or timeout
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrInvalidConfiguration marks preferences that cannot produce a score
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInternal marks an unexpected failure while computing a score
	ErrInternal = errors.New("internal error")

	// ErrPresetNotFound is returned when a named preset does not exist
	ErrPresetNotFound = errors.New("preset not found")
)

// ValidationError describes which request field was rejected
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// SourceError wraps the failure of one category's adapter
type SourceError struct {
	Category Category
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause
func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

// InvalidConfigf builds an ErrInvalidConfiguration with context
func InvalidConfigf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
