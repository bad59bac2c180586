package errors

import (
	// Go Internal Packages
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error so callers can decide between a rollback, a notice or a no-op.
type Kind uint8

const (
	Other Kind = iota
	Invalid
	NotFound
	Conflict
	Unauthenticated
	Unavailable
	Decode
	Internal
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case Unauthenticated:
		return "unauthenticated"
	case Unavailable:
		return "unavailable"
	case Decode:
		return "decode"
	case Internal:
		return "internal"
	default:
		return "other"
	}
}

// Error is the error type shared by every package in the module.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// E builds an *Error of the given kind. err may be nil.
func E(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost *Error in the chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user facing message of err, falling back when err carries none.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// Is, As, New and Join re-export the standard library helpers so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }

func Join(errs ...error) error { return errors.Join(errs...) }

// ValidationErrors accumulates field level validation failures.
type ValidationErrors struct {
	fields map[string][]string
}

// ValidationErrs returns an empty accumulator.
func ValidationErrs() *ValidationErrors {
	return &ValidationErrors{fields: make(map[string][]string)}
}

// Add records a failure for field.
func (v *ValidationErrors) Add(field, message string) {
	v.fields[field] = append(v.fields[field], message)
}

// Fields returns the failing field names in sorted order.
func (v *ValidationErrors) Fields() []string {
	names := make([]string, 0, len(v.fields))
	for name := range v.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err returns nil when nothing was added, otherwise an Invalid error listing every field.
func (v *ValidationErrors) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	parts := make([]string, 0, len(v.fields))
	for _, name := range v.Fields() {
		parts = append(parts, fmt.Sprintf("%s %s", name, strings.Join(v.fields[name], ", ")))
	}
	return &Error{Kind: Invalid, Message: strings.Join(parts, "; ")}
}
