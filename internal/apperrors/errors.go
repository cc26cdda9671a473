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

// ErrConflict indicates that the operation conflicts with the current state of the resource.
var ErrConflict = errors.New("resource state conflict")

// ErrForbidden indicates that the caller is not allowed to perform the operation.
var ErrForbidden = errors.New("operation forbidden")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// ErrInvalidTransition indicates a status transition that the entity's state machine
// does not allow (e.g. paying a canceled invoice, deciding a decided approval).
// Wrapping messages always carry the current and the required status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrInsufficientBalance indicates that a requested amount exceeds what is available
// (provision usage over balance, refund over refundable amount).
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrIdempotencyConflict indicates a retried request reusing an idempotency key with
// different parameters. This is a caller error, not a retryable condition.
var ErrIdempotencyConflict = errors.New("idempotency key conflict")

// ErrApprovalRequired indicates that the operation's amount crossed an approval
// threshold and is held until a pending approval is decided.
var ErrApprovalRequired = errors.New("operation requires approval")

// ErrApprovalExpired indicates a pending approval whose expiry elapsed before a
// decision was made. Distinct from rejection: the operation may be re-submitted.
var ErrApprovalExpired = errors.New("approval expired")

// AppError wraps an underlying error with an HTTP-ish status code and a message.
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

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
