// Package apperr defines the domain error taxonomy shared by services
// and handlers. Handlers map these to HTTP statuses; everything else
// wraps them with fmt.Errorf("%w").
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found"
	KindDecryption Kind = "decryption_error"
	KindConflict   Kind = "conflict"
	KindStore      Kind = "store_error"
)

// Error carries a machine-readable kind plus a human message. The
// wrapped cause is for logs only and never reaches the client.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Decryption(msg string, cause error) *Error {
	return &Error{Kind: KindDecryption, Message: msg, cause: cause}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Store(msg string, cause error) *Error {
	return &Error{Kind: KindStore, Message: msg, cause: cause}
}

// KindOf extracts the Kind from err, unwrapping as needed. Unknown
// errors report KindStore so callers fail safe with a 500.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStore
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }
