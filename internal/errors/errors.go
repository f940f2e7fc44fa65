// Package errors provides standardized domain errors with codes for the Stacks API.
//
// Usage:
//
//	// In services - return typed errors
//	if res.Copies <= 0 {
//	    return errors.OutOfStock("all copies are checked out")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrNotFound) {
//	    return huma.Error404NotFound(err.Error())
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeOutOfStock:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
//
// The first four are the lending engine's rejection taxonomy: every one of
// them is detected before any mutation is applied, so a caller seeing these
// can assume no catalog or ledger state changed.
const (
	CodeNotFound                Code = "NOT_FOUND"
	CodeOutOfStock              Code = "OUT_OF_STOCK"
	CodeInvalidReservation      Code = "INVALID_RESERVATION"
	CodeInvalidTransactionState Code = "INVALID_TRANSACTION_STATE"
	CodeAlreadyExists           Code = "ALREADY_EXISTS"
	CodeValidation              Code = "VALIDATION"
	CodeConflict                Code = "CONFLICT"
	CodeInternal                Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeOutOfStock, CodeInvalidReservation, CodeInvalidTransactionState:
		// Domain-rule rejections: the request was well-formed but the
		// lending state machine refuses the transition.
		return http.StatusUnprocessableEntity
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound                = &Error{Code: CodeNotFound, Message: "not found"}
	ErrOutOfStock              = &Error{Code: CodeOutOfStock, Message: "out of stock"}
	ErrInvalidReservation      = &Error{Code: CodeInvalidReservation, Message: "invalid reservation"}
	ErrInvalidTransactionState = &Error{Code: CodeInvalidTransactionState, Message: "invalid transaction state"}
	ErrAlreadyExists           = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation              = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict                = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal                = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// OutOfStock creates an out of stock error.
func OutOfStock(msg string) *Error {
	return &Error{Code: CodeOutOfStock, Message: msg}
}

// InvalidReservation creates an invalid reservation error.
func InvalidReservation(msg string) *Error {
	return &Error{Code: CodeInvalidReservation, Message: msg}
}

// InvalidTransactionState creates an invalid transaction state error.
func InvalidTransactionState(msg string) *Error {
	return &Error{Code: CodeInvalidTransactionState, Message: msg}
}

// InvalidTransactionStatef creates an invalid transaction state error with formatted message.
func InvalidTransactionStatef(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidTransactionState, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
