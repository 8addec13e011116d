// Package apperrors defines the error taxonomy shared by the orchestrators and
// the HTTP layer.
package apperrors

import (
	"errors"
	"net/http"
)

// Code classifies an Error.
type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUpstream     Code = "upstream"
	CodePersistence  Code = "persistence"
	CodeAuth         Code = "auth_error"
)

// HTTPStatus maps the code to the status written by the HTTP layer.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type. Message is safe to show to clients; Cause
// is for logs only.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput = &Error{Code: CodeInvalidInput}
	ErrUnauthorized = &Error{Code: CodeUnauthorized}
	ErrNotFound     = &Error{Code: CodeNotFound}
	ErrConflict     = &Error{Code: CodeConflict}
	ErrUpstream     = &Error{Code: CodeUpstream}
	ErrPersistence  = &Error{Code: CodePersistence}
	ErrAuth         = &Error{Code: CodeAuth}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidInput(message string) *Error { return New(CodeInvalidInput, message) }
func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }
func NotFound(message string) *Error     { return New(CodeNotFound, message) }
func Conflict(message string) *Error     { return New(CodeConflict, message) }

func Upstream(message string, cause error) *Error {
	return Wrap(CodeUpstream, message, cause)
}

func Persistence(message string, cause error) *Error {
	return Wrap(CodePersistence, message, cause)
}

func Auth(message string, cause error) *Error {
	return Wrap(CodeAuth, message, cause)
}

// As extracts an *Error from err. Errors outside the taxonomy come back as a
// generic persistence failure so they never leak verbatim.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Persistence("internal error", err)
}
