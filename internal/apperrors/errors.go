package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// ErrInvalidTransition indicates that the requested status edge does not exist from
// the cheque's current status. This is a caller bug and is never retried.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConcurrentModification indicates a version mismatch: another writer committed
// first. Callers should re-fetch the record and retry or abort.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// ErrReconciliationOverflow indicates that applying a cheque's amount would exceed
// the linked invoice's outstanding total. The cheque stays DEPOSITED for manual review.
var ErrReconciliationOverflow = errors.New("payment would exceed invoice outstanding total")

// ErrReplacementValidation indicates an amount, date, or uniqueness violation when
// registering a replacement cheque.
var ErrReplacementValidation = errors.New("replacement cheque validation failed")

// ErrExternalService indicates that a call to the invoice-ledger or notification
// service failed. For ledger-affecting transitions the whole transition rolls back.
var ErrExternalService = errors.New("external service call failed")

// AppError carries an HTTP-ish status code alongside a message and an optional cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping an underlying cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
