// Package necerr defines the closed set of error kinds used across the
// netsec platform, letting callers classify a failure without string
// matching on its message.
package necerr

import (
	"errors"
	"fmt"
)

// Kind is a closed classification of error causes.
type Kind string

const (
	KindParse         Kind = "parse"
	KindStore         Kind = "store"
	KindSubprocess    Kind = "subprocess"
	KindNetwork       Kind = "network"
	KindConfiguration Kind = "configuration"
	KindNotFound      Kind = "not_found"
	KindPrivilege     Kind = "privilege"
	KindDispatch      Kind = "dispatch"
	KindOther         Kind = "other"
)

// Error wraps a cause with a Kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
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

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error classifying an existing error. Returns nil if cause is nil.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Kind == kind
	}
	return false
}

// KindOf returns the Kind of err, or KindOther if err is not a *Error.
func KindOf(err error) Kind {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return KindOther
}
