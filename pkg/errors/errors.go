package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error carrying the machine-readable code and HTTP
// status that end up on the wire. Fields holds field-level validation
// messages and is populated only for validation failures.
type Error struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Status  int                 `json:"-"`
	Fields  map[string][]string `json:"fields,omitempty"`
	Err     error               `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// The wire taxonomy. Codes and status mappings are part of the client
// contract and must not change.
var (
	ErrValidation      = New("validation_error", http.StatusUnprocessableEntity, "validation failed")
	ErrBadRequest      = New("validation_error", http.StatusBadRequest, "bad request")
	ErrUnauthenticated = New("authentication_error", http.StatusUnauthorized, "authentication required")
	ErrForbidden       = New("authorization_error", http.StatusForbidden, "insufficient permissions")
	ErrNotFound        = New("not_found_error", http.StatusNotFound, "resource not found")
	ErrConflict        = New("conflict_error", http.StatusConflict, "conflict")
	ErrInternal        = New("server_error", http.StatusInternalServerError, "internal server error")
)

// ErrCacheMiss signals an absent cache entry. It is a sentinel, not a wire
// error.
var ErrCacheMiss = errors.New("cache miss")

// Validation builds a 422 error carrying a field→messages map.
func Validation(message string, fields map[string][]string) *Error {
	if message == "" {
		message = ErrValidation.Message
	}
	return &Error{Code: ErrValidation.Code, Status: ErrValidation.Status, Message: message, Fields: fields}
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
