// Package errs provides the single error type returned by every simpledb
// package.
//
// The database dialects, the audit log and the object store all translate
// their native errors into *errs.Error. Callers branch on the kind with the
// Is* predicates and never import a driver package to inspect an error.
//
// Usage:
//
//	// In a dialect, wrap the driver error:
//	return errs.Wrap(errs.ErrKindQueryFailed, "statement failed", mysqlErr)
//
//	// In a caller, distinguish "no data" from "did not happen":
//	row, err := conn.Row(ctx, "SELECT * FROM users WHERE id = ?", 7)
//	if errs.IsConnectionFailed(err) { ... }
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing backend-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no row, no file, no object
	ErrKindConnectionFailed         // cannot reach the backend or handle is closed
	ErrKindTimeout                  // context deadline / cancellation / busy backend
	ErrKindQueryFailed              // SQL execution or storage I/O error
	ErrKindInvalidInput             // bad arguments or configuration from the caller
	ErrKindPermissionDenied         // access denied / auth failure
	ErrKindUnsupported              // statement ran but its result has no defined shape
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error carries a kind, a human readable message and the original cause.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// --- Predicates ---

// IsNotFound reports whether err means the operation succeeded but found
// nothing (no row, missing log file, missing object).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsUnsupported reports whether err flags a statement whose verb has no
// defined result shape.
func IsUnsupported(err error) bool {
	return KindOf(err) == ErrKindUnsupported
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// Cause returns the innermost message worth showing to an operator: the
// driver's own text when there is one, the Error message otherwise.
func Cause(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}
