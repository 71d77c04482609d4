// Package apperr defines the application error taxonomy shared by the
// services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for boundary handling.
type Code string

const (
	// CodeValidation marks missing or empty required input. User-correctable.
	CodeValidation Code = "VALIDATION"
	// CodeNotFound marks an unknown session or transcript.
	CodeNotFound Code = "NOT_FOUND"
	// CodeUpstream marks a generation engine failure.
	CodeUpstream Code = "UPSTREAM"
	// CodeStorage marks a persistence failure.
	CodeStorage Code = "STORAGE"
)

// Error is a typed application error: a code for boundary mapping, a short
// machine-readable reason, and an optional wrapped cause.
type Error struct {
	Code   Code
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("%s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates an Error without a cause.
func New(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

// Wrap creates an Error wrapping a cause.
func Wrap(code Code, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf extracts the Code from err, or empty string when err is not an
// application error.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps an error to its HTTP status code. Unclassified errors
// map to 500.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUpstream, CodeStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
