package core

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a terminal pipeline failure
type ErrorKind string

const (
	KindMethodNotAllowed        ErrorKind = "method_not_allowed"
	KindNotFound                ErrorKind = "not_found"
	KindValidation              ErrorKind = "validation"
	KindRateLimited             ErrorKind = "rate_limited"
	KindVerificationUnavailable ErrorKind = "verification_unavailable"
	KindVerificationRejected    ErrorKind = "verification_rejected"
	KindMailDelivery            ErrorKind = "mail_delivery"
	KindInternal                ErrorKind = "internal"
)

// Error is a failure that ends request handling. Message is safe to show to the
// caller; Err carries the internal cause and is only ever logged.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

var (
	ErrMethodNotAllowed = &Error{
		Kind:    KindMethodNotAllowed,
		Status:  http.StatusMethodNotAllowed,
		Message: "Method not allowed.",
	}
	ErrNotFound = &Error{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Message: "Not found.",
	}
	ErrRateLimited = &Error{
		Kind:    KindRateLimited,
		Status:  http.StatusTooManyRequests,
		Message: "Too many requests. Please try again later.",
	}
	ErrVerificationUnavailable = &Error{
		Kind:    KindVerificationUnavailable,
		Status:  http.StatusInternalServerError,
		Message: "Could not verify security check. Please try again.",
	}
	ErrVerificationRejected = &Error{
		Kind:    KindVerificationRejected,
		Status:  http.StatusUnprocessableEntity,
		Message: "Security check failed. Please try again.",
	}
	ErrMailDelivery = &Error{
		Kind:    KindMailDelivery,
		Status:  http.StatusInternalServerError,
		Message: "Failed to send message. Please try again later.",
	}
	ErrInternal = &Error{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong. Please try again later.",
	}
)

// NewValidationError returns a 422 error carrying a field-specific message
func NewValidationError(message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Status:  http.StatusUnprocessableEntity,
		Message: message,
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrRateLimited)
// holds for wrapped copies too.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// Wrap returns a copy of e that carries cause
func (e *Error) Wrap(cause error) *Error {
	wrapped := *e
	wrapped.Err = cause
	return &wrapped
}

// AsError converts any error into an *Error, falling back to ErrInternal
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Wrap(err)
}
