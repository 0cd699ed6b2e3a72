package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrProviderFailure     = errors.New("provider failure")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrDuplicateOperation  = errors.New("duplicate operation")
)

// FieldViolation describes one invalid input field.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError aggregates every violated field of a request so the
// caller sees the complete list, not just the first failure.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a violation and returns the error for chaining.
func (e *ValidationError) Add(field, reason string) *ValidationError {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Reason: reason})
	return e
}

// HasViolations reports whether any field failed validation.
func (e *ValidationError) HasViolations() bool {
	return len(e.Violations) > 0
}
