package utils

import "fmt"

// ValidationError represents an error occurring during data validation.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// InsufficientDataError indicates a statistical computation was skipped
// because it had fewer observations than it requires. It is a soft, local
// error: the computation yields no result, the batch continues.
type InsufficientDataError struct {
	Required int
	Got      int
}

// Error returns the error message string.
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d observations, got %d", e.Required, e.Got)
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, got int) error {
	return &InsufficientDataError{Required: required, Got: got}
}

// ComputationError indicates a statistical computation produced a degenerate
// result (NaN/Inf, zero variance). Like InsufficientDataError it is soft:
// the offending result is suppressed, not surfaced.
type ComputationError struct {
	Op     string
	Reason string
}

// Error returns the error message string.
func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// NewComputationError creates a new ComputationError.
func NewComputationError(op, reason string) error {
	return &ComputationError{Op: op, Reason: reason}
}
