package tablekit

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrIO          ErrorKind = "io"
	ErrConfig      ErrorKind = "config"
	ErrSchema      ErrorKind = "schema"
	ErrSyntax      ErrorKind = "syntax"
	ErrNotFound    ErrorKind = "not_found"
	ErrUnsupported ErrorKind = "unsupported_kind"
	ErrInvalidSort ErrorKind = "invalid_sort"
	ErrExecution   ErrorKind = "execution"
)

type Error struct {
	Kind     ErrorKind
	Message  string
	Field    string
	Resource string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Resource != "" {
		base = fmt.Sprintf("%s (resource=%s)", base, e.Resource)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func ConfigError(msg string) *Error {
	return &Error{Kind: ErrConfig, Message: msg}
}

func SyntaxError(field, msg string) *Error {
	return &Error{Kind: ErrSyntax, Field: field, Message: msg}
}

func NotFoundError(field string) *Error {
	return &Error{Kind: ErrNotFound, Field: field, Message: "field does not resolve"}
}

func UnsupportedKindError(handler string) *Error {
	return &Error{Kind: ErrUnsupported, Message: fmt.Sprintf("no handler registered for custom kind %q", handler)}
}

func InvalidSortError(field, msg string) *Error {
	return &Error{Kind: ErrInvalidSort, Field: field, Message: msg}
}

// ExecutionError wraps a data-layer failure with the resource it ran against,
// so the failure is diagnosable without re-running the query.
func ExecutionError(resource string, cause error) *Error {
	return &Error{Kind: ErrExecution, Resource: resource, Message: "query execution failed", Cause: cause}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
