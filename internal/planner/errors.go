package planner

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	// ErrPersistence wraps a storage failure after an in-memory mutation was applied.
	ErrPersistence = errors.New("failed to persist planner data")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
