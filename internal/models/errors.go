package models

import (
	"errors"
	"fmt"
)

var (
	// ErrPaymentNotFound means no record exists under the given key.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrWrongPaymentType means a record exists but is not a PIX payment.
	ErrWrongPaymentType = errors.New("payment is not a pix payment")
	// ErrTerminalStatus means the stored status admits no further change.
	ErrTerminalStatus = errors.New("payment is in a terminal status")
)

// ValidationError reports a missing or malformed request field. It is
// decided locally and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a request field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StorageError wraps a store failure; fatal to the current operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
