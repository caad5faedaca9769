// Package apperror is the structured-error boundary every HTTP handler and
// socket command wraps its business logic in (spec §7). Internal error
// text never reaches a client; only Code and Message do.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is one of the taxonomy buckets from spec §7.
type Code string

const (
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden   Code = "FORBIDDEN"
	CodeNotFound    Code = "NOT_FOUND"
	CodeConflict    Code = "CONFLICT"
	CodeQuota       Code = "QUOTA_EXCEEDED"
	CodeInternal    Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	CodeValidation:   http.StatusBadRequest,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeNotFound:     http.StatusNotFound,
	CodeConflict:     http.StatusConflict,
	CodeQuota:        http.StatusTooManyRequests,
	CodeInternal:     http.StatusInternalServerError,
}

// Error is the structured application error carried through the stack and
// rendered as a flat `{error, code, details?}` body at the HTTP boundary,
// with Message under "error".
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status code this error maps to.
func (e *Error) Status() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New builds an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error carrying cause, which is logged but never
// serialized to the client.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// NotFound, Forbidden, Validation, Conflict, Quota, Unauthorized, Internal
// are shorthands for the common taxonomy buckets.
func NotFound(message string) *Error     { return New(CodeNotFound, message) }
func Forbidden(message string) *Error    { return New(CodeForbidden, message) }
func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }
func Validation(message string) *Error   { return New(CodeValidation, message) }
func Conflict(message string) *Error     { return New(CodeConflict, message) }
func Quota(message string) *Error        { return New(CodeQuota, message) }
func Internal(cause error) *Error {
	return Wrap(CodeInternal, "internal server error", cause)
}

// As extracts an *Error from err, if any is present in its chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
