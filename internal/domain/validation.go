package domain

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ValidationErrors is an itemized list of field problems. It satisfies
// errors.Is(err, ErrValidation).
type ValidationErrors []FieldError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes ErrValidation to errors.Is.
func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}

// Add appends a field problem.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Err returns v as an error, or nil when it holds no problems.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// NewValidationError builds a single-field validation error that also wraps cause.
func NewValidationError(field, message string, cause error) error {
	ve := ValidationErrors{{Field: field, Message: message}}
	if cause == nil || errors.Is(cause, ErrValidation) {
		return ve
	}
	return fmt.Errorf("%w: %w", ve, cause)
}

// AsValidationErrors extracts the itemized problems from err, if any.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
