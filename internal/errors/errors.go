// Package errors defines the application error taxonomy: coded errors for
// transport, field-level validation errors, and helpers to classify them.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an error category over the API.
type ErrorCode int

const (
	// generic codes (1000-1999)
	ErrInternalServer ErrorCode = 1000
	ErrInvalidParams  ErrorCode = 1001
	ErrNotFound       ErrorCode = 1004

	// validation codes (2000-2999)
	ErrValidation ErrorCode = 2000

	// storage codes (4000-4999)
	ErrStorage     ErrorCode = 4000
	ErrFileRemoval ErrorCode = 4001
)

// AppError is the unified application error carrying a code, a message and
// the wrapped cause.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError wrapping an underlying cause.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NotFound creates a not-found error for the named resource.
func NotFound(resource, id string) *AppError {
	return &AppError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

// Storage wraps a failed storage operation. The enclosing transaction has
// already been rolled back when this is returned.
func Storage(op string, err error) *AppError {
	return &AppError{Code: ErrStorage, Message: fmt.Sprintf("storage operation failed: %s", op), Err: err}
}

// FileRemoval wraps a failed file-content removal. The delete operation
// that triggered it must abort before touching any database row.
func FileRemoval(path string, err error) *AppError {
	return &AppError{Code: ErrFileRemoval, Message: fmt.Sprintf("failed to remove stored file: %s", path), Err: err}
}

// IsNotFound reports whether err is a not-found AppError.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrNotFound
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level failures. It is returned before
// any persistence happens; a request that fails validation writes nothing
// and notifies nobody.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed on %d fields", len(e.Fields))
}

// Add appends a field failure and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// AsValidation extracts a ValidationError from err, if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
