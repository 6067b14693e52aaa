package domain

import (
	"errors"
	"fmt"
)

// ErrValidation marks input that cannot produce a metric. Match with errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
