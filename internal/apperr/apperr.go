// Package apperr defines the error kinds surfaced by the fact-check core
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for callers and the HTTP boundary
type Kind string

const (
	KindValidation       Kind = "validation"
	KindPermissionDenied Kind = "permission_denied"
	KindNotFound         Kind = "not_found"
	KindServerFault      Kind = "server_fault"
)

// Sentinels so callers can use errors.Is without caring about details
var (
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrServerFault      = errors.New("server fault")
)

// Error carries a kind, a caller-safe message and optional field-level detail
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrServerFault:
		return e.Kind == KindServerFault
	}
	return false
}

// Validation reports malformed or out-of-range input, keyed by field
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// ValidationField is a shorthand for a single-field validation error
func ValidationField(field, problem string) *Error {
	return Validation(map[string]string{field: problem})
}

func PermissionDenied(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// ServerFault wraps an unexpected persistence or infrastructure failure
func ServerFault(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindServerFault, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, treating unknown errors as server faults
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServerFault
}

// FieldsOf returns field-level validation detail, if any
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
