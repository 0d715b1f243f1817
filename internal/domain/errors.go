package domain

import (
	"errors"
	"fmt"
)

// ErrAssessmentNotFound is returned by stores when no assessment
// exists for the requested ID.
var ErrAssessmentNotFound = errors.New("assessment not found")

// ValidationError represents an input or configuration validation
// failure with enough context to point at the offending value.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
