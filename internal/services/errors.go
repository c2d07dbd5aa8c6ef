package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound = errors.New("registro no encontrado")
)

// ValidationError reports a malformed or out-of-range input field.
// It never leaves stored state mutated.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RuleError reports a business rule violation across fields or records.
// The operation aborts before any write.
type RuleError struct {
	Message string `json:"message"`
}

func (e *RuleError) Error() string {
	return e.Message
}

func ruleErrorf(format string, args ...any) *RuleError {
	return &RuleError{Message: fmt.Sprintf(format, args...)}
}
