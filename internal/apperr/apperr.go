// Package apperr defines the small error-kind sum type used across the
// server. Handlers return one of these kinds and the HTTP boundary maps it
// to a status code and a short, stack-trace-free reason string exactly
// once, per spec section 7.
package apperr

import "fmt"

// Kind identifies one of the server's recoverable error categories.
type Kind int

const (
	// KindValidation covers malformed bodies, sha256 mismatches and bad
	// field types. Maps to 400.
	KindValidation Kind = iota
	// KindAuth covers missing/malformed/invalid credentials. Maps to 401.
	KindAuth
	// KindPermission covers authenticated-but-not-allowed access. Maps to 403.
	KindPermission
	// KindNotFound covers absent resources, also used to mask cross-owner
	// reads. Maps to 404.
	KindNotFound
	// KindDatabase covers any transaction failure. Maps to 500 with a
	// constant message; the cause is logged, never returned.
	KindDatabase
	// KindInternal covers token generation, IO, and other unexpected
	// failures. Maps to 500.
	KindInternal
)

// Error is an apperr-kinded error. Cause is logged by the caller but never
// rendered in an HTTP response body.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with a client-visible message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind, keeping cause out of Message so
// it never leaks to a response body.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation is a convenience constructor for KindValidation.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// Auth is a convenience constructor for KindAuth.
func Auth(format string, args ...any) *Error {
	return New(KindAuth, fmt.Sprintf(format, args...))
}

// Permission is a convenience constructor for KindPermission.
func Permission(format string, args ...any) *Error {
	return New(KindPermission, fmt.Sprintf(format, args...))
}

// NotFound is a convenience constructor for KindNotFound.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

// Database wraps a storage-layer failure. The cause is carried for logging
// but Message is always the constant, user-visible string.
func Database(cause error) *Error {
	return Wrap(KindDatabase, "database error", cause)
}

// Internal wraps an unexpected failure (token generation, IO, ...).
func Internal(cause error) *Error {
	return Wrap(KindInternal, "internal error", cause)
}

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
