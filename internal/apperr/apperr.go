// Package apperr defines the operational error taxonomy shared by the HTTP
// and real-time layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an operational failure.
type Kind int

const (
	// Unauthenticated means the credential is missing, invalid, or expired.
	Unauthenticated Kind = iota + 1
	// NotFound means the referenced chat or user does not exist.
	NotFound
	// Forbidden means the caller is authenticated but not a participant.
	Forbidden
	// InvalidInput means a malformed payload or out-of-range field.
	InvalidInput
	// Conflict means a uniqueness violation, e.g. a duplicate username.
	Conflict
	// Internal means an unexpected store failure or violated invariant.
	Internal
)

// Error is an operational error carrying its kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an operational error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an operational error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and client-safe message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err. Errors outside the taxonomy collapse to
// Internal so unexpected failures never leak a weaker classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// ClientMessage returns the message safe to surface to a caller. Internal
// errors get a generic message; the detail stays in server logs.
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case InvalidInput:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
