// Package apperr classifies request failures. Each Error carries a kind
// that picks the HTTP status and a message that is safe to show a client.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	InvalidInput
	Unauthenticated
	Conflict
	NotFound
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Unauthenticated:
		return "unauthenticated"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	default:
		return "internal"
	}
}

func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidInput:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Err holds the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Invalid(message string) *Error         { return New(InvalidInput, message) }
func Unauthorized(message string) *Error    { return New(Unauthenticated, message) }
func Duplicate(message string) *Error       { return New(Conflict, message) }
func Missing(message string) *Error         { return New(NotFound, message) }
func Fail(message string, err error) *Error { return Wrap(Internal, message, err) }

// From returns err as an *Error, classifying anything unrecognised as
// Internal with a generic message.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Fail("Internal server error", err)
}
