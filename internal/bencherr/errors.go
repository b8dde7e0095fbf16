// Package bencherr provides the categorised error type shared by riskbench
// components. Every error carries the offending value and a stack trace so
// that a fatal abort at the entry point can print where it originated.
package bencherr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Category classifies a fatal error.
type Category string

const (
	// CategoryConfiguration covers unknown names, out-of-range values and
	// inconsistent declarations. Never retried.
	CategoryConfiguration Category = "configuration"
	// CategoryIO covers missing, unreadable or malformed files and failed writes.
	CategoryIO Category = "io"
)

// Sentinels for errors.Is matching by category.
var (
	ErrConfiguration = &Error{Category: CategoryConfiguration}
	ErrIO            = &Error{Category: CategoryIO}
)

// Error is the structured error type used throughout riskbench.
type Error struct {
	Category Category
	Op       string
	Value    string
	Message  string
	Cause    error
}

// Error returns a formatted error string.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Category)
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" (%q)", e.Value)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same category.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Category == t.Category
	}
	return false
}

// Config returns a configuration error for the offending value with a stack trace.
func Config(op, value, format string, args ...interface{}) error {
	return pkgerrors.WithStack(&Error{
		Category: CategoryConfiguration,
		Op:       op,
		Value:    value,
		Message:  fmt.Sprintf(format, args...),
	})
}

// IO returns an I/O error for path wrapping cause, with a stack trace.
func IO(op, path string, cause error) error {
	return pkgerrors.WithStack(&Error{
		Category: CategoryIO,
		Op:       op,
		Value:    path,
		Cause:    cause,
	})
}

// Malformed returns an I/O error for a file whose content cannot be used.
func Malformed(op, path, format string, args ...interface{}) error {
	return pkgerrors.WithStack(&Error{
		Category: CategoryIO,
		Op:       op,
		Value:    path,
		Message:  fmt.Sprintf(format, args...),
	})
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsIO reports whether err is an I/O error.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}
