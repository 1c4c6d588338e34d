// Package apperrors defines the error taxonomy shared by the repository,
// service and HTTP layers. Operations return kind-tagged errors instead of
// using panics or sentinel strings for control flow, and the HTTP layer maps
// kinds to status codes in one place.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindInternal is the default for unclassified failures.
	KindInternal Kind = iota
	// KindInvalidArgument marks precondition failures (id < 1, nil input).
	KindInvalidArgument
	// KindNotFound marks a missing record.
	KindNotFound
	// KindValidation marks a record that failed field validation.
	KindValidation
	// KindUnauthorized marks missing or invalid credentials.
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is a kind-tagged error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches errors by kind so callers can use errors.Is with a bare kind
// marker, e.g. errors.Is(err, apperrors.NotFound("")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: err}
}

// InvalidArgument builds a KindInvalidArgument error.
func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Unauthorized builds a KindUnauthorized error.
func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, format, args...)
}

// Internal builds a KindInternal error.
func Internal(format string, args ...any) *Error {
	return New(KindInternal, format, args...)
}

// KindOf extracts the kind from err, defaulting to KindInternal for
// untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsInvalidArgument reports whether err is tagged KindInvalidArgument.
func IsInvalidArgument(err error) bool { return KindOf(err) == KindInvalidArgument }

// IsNotFound reports whether err is tagged KindNotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err is tagged KindValidation.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsUnauthorized reports whether err is tagged KindUnauthorized.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
