// Package toolerr defines the failure kinds a tool invocation can end in.
package toolerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure. The string value is what callers see in the
// failure envelope.
type Kind string

const (
	Validation         Kind = "ValidationError"
	UnknownTool        Kind = "UnknownToolError"
	Transport          Kind = "TransportError"
	GraphOperation     Kind = "GraphOperationError"
	Policy             Kind = "PolicyError"
	ExecutableNotFound Kind = "ExecutableNotFoundError"
	Command            Kind = "CommandError"
	FileNotFound       Kind = "FileNotFoundError"
	Timeout            Kind = "TimeoutError"

	// Unclassified is reported for errors that carry no Kind.
	Unclassified Kind = "Error"
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err, prefixing its text with msg.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg + ": " + err.Error(), Err: err}
}

// KindOf returns the Kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return Unclassified
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MissingFields builds a Validation error listing every missing field.
func MissingFields(what string, fields []string) *Error {
	return New(Validation, "%s missing required fields: %s", what, strings.Join(fields, ", "))
}
