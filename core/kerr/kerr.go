// Package kerr defines the runtime's error kinds: typed, structured
// errors carrying a human message and a detail map, rather than bare
// fmt.Errorf strings.
package kerr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the runtime's recognized error categories. These
// are not Go types (a single Error struct carries all of them) so callers
// can switch on Kind without a type-switch per category.
type Kind string

const (
	InvalidAction       Kind = "invalid_action"
	ValidationError     Kind = "validation_error"
	InvalidSignalFormat Kind = "invalid_signal_format"
	InvalidDirective    Kind = "invalid_directive_format"
	InvalidState        Kind = "invalid_state"
	ExecutionError      Kind = "execution_error"
	Timeout             Kind = "timeout"
	CompensationError   Kind = "compensation_error"
	InternalServerError Kind = "internal_server_error"
)

// Error is the runtime's structured error type. Kind drives retry and
// propagation decisions (the Workflow Executor never retries Timeout, for
// instance); Detail carries machine-readable context for observers and
// callers that want more than the message string.
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no wrapped cause.
func New(kind Kind, message string, detail map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail}
}

// Wrap builds an Error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error, detail map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail, Cause: cause}
}

// Is reports whether err is, or wraps, a *kerr.Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
