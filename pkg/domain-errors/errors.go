// Package domainerrors provides coded domain errors shared across modules.
// Services return these so handlers can map them to transport status codes
// without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks malformed or out-of-range caller-supplied input.
	CodeValidation Code = "validation"
	// CodeBadRequest marks a structurally invalid request.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks a missing entity (unknown or expired session).
	CodeNotFound Code = "not_found"
	// CodePreconditionFailed marks an operation attempted against a state
	// that does not admit it (e.g. documentation before offer acceptance).
	CodePreconditionFailed Code = "precondition_failed"
	// CodeUnavailable marks a collaborator outage. It is absorbed by the
	// layer that owns the fallback and should not reach handlers.
	CodeUnavailable Code = "unavailable"
	// CodeInvariantViolation marks corrupted or impossible internal state.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks unexpected failures with no better classification.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err yields
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// CodeOf returns the code of the outermost coded error, or CodeInternal when
// the chain carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
