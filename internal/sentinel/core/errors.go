package core

import "fmt"

// ErrorKind is the closed set of error categories at the core boundary.
type ErrorKind string

const (
	ErrorKindConfiguration ErrorKind = "Configuration"
	ErrorKindPolicy        ErrorKind = "Policy"
	ErrorKindIO            ErrorKind = "IO"
	ErrorKindParse         ErrorKind = "Parse"
)

// Error is the typed error returned at core package boundaries. It carries
// a closed Kind, a human-readable Message, and an optional wrapped Cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// NewError constructs an Error of the given kind. cause may be nil.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, core.NewError(core.ErrorKindParse, "", nil)).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
