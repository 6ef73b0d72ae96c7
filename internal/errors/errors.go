// Package errors provides coded domain errors for the bookshelf engine and its HTTP surface.
//
// Usage:
//
//	// In the engine - return typed errors
//	if set.Contains(f) {
//	    return errors.DuplicateFilterf("filter %s already active", f.Attr)
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrFilterNotFound) {
//	    response.NotFound(w, err.Error(), logger)
//	    return
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
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeDuplicateFilter    Code = "DUPLICATE_FILTER"
	CodeFilterNotFound     Code = "FILTER_NOT_FOUND"
	CodeMalformedAttribute Code = "MALFORMED_ATTRIBUTE"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeFilterNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicateFilter:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeMalformedAttribute:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
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
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrDuplicateFilter    = &Error{Code: CodeDuplicateFilter, Message: "filter already active"}
	ErrFilterNotFound     = &Error{Code: CodeFilterNotFound, Message: "filter not in set"}
	ErrMalformedAttribute = &Error{Code: CodeMalformedAttribute, Message: "malformed attribute"}
)

// Constructor functions for creating errors with custom messages.

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with field-level details.
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

// DuplicateFilterf creates a duplicate filter error with formatted message.
func DuplicateFilterf(format string, args ...any) *Error {
	return &Error{Code: CodeDuplicateFilter, Message: fmt.Sprintf(format, args...)}
}

// FilterNotFoundf creates a filter not found error with formatted message.
func FilterNotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeFilterNotFound, Message: fmt.Sprintf(format, args...)}
}
