// Package apperror defines the recoverable domain errors raised by the
// services and the single boundary that turns them into HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindBadGateway
)

// Status returns the HTTP status code for the kind
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadGateway:
		return "bad_gateway"
	default:
		return "internal"
	}
}

// Error is a typed domain error. Its message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Status returns the HTTP status code for the error
func (e *Error) Status() int {
	return e.Kind.Status()
}

func newError(kind Kind, message, fallback string) *Error {
	if message == "" {
		message = fallback
	}
	return &Error{Kind: kind, Message: message}
}

// BadRequest reports invalid input or a disallowed state change
func BadRequest(message string) *Error {
	return newError(KindBadRequest, message, "Bad Request")
}

// BadRequestf is BadRequest with formatting
func BadRequestf(format string, args ...any) *Error {
	return BadRequest(fmt.Sprintf(format, args...))
}

// Unauthorized reports a missing or malformed credential
func Unauthorized(message string) *Error {
	return newError(KindUnauthorized, message, "Unauthorized")
}

// Forbidden reports a tenant-scope violation
func Forbidden(message string) *Error {
	return newError(KindForbidden, message, "Forbidden")
}

// NotFound reports a missing resource, or one outside the caller's tenant chain
func NotFound(message string) *Error {
	return newError(KindNotFound, message, "Not Found")
}

// Conflict reports a uniqueness or single-use violation
func Conflict(message string) *Error {
	return newError(KindConflict, message, "Conflict")
}

// BadGateway reports an upstream service that could not be reached
func BadGateway(message string) *Error {
	return newError(KindBadGateway, message, "Bad Gateway")
}

// KindOf returns the kind of a domain error anywhere in err's chain,
// or 0 when err is not a domain error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

// Is reports whether err carries a domain error of the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
