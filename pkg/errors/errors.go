package errors

import (
	stderrors "errors"
	"fmt"
)

// InteropError is the interface implemented by all errors raised by the object
// model and the conversion engine.
type InteropError interface {
	error
	Kind() string // "TypeError", "RangeError", "ConversionError"
	// Message returns the message without the kind prefix.
	Message() string
	Unwrap() error
}

// --- Concrete Error Types ---

// TypeError reports a non-extensible, non-configurable or non-writable
// violation, or a shape mismatch between a value and its destination.
type TypeError struct {
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *TypeError) Error() string   { return "TypeError: " + e.Msg }
func (e *TypeError) Kind() string    { return "TypeError" }
func (e *TypeError) Message() string { return e.Msg }
func (e *TypeError) Unwrap() error   { return e.Cause }
func (e *TypeError) CausedBy(cause error) *TypeError {
	e.Cause = cause
	return e
}

// RangeError reports a numeric value outside of its permitted range, such as
// an array length that is not a valid unsigned 32-bit integer.
type RangeError struct {
	Msg   string
	Cause error
}

func (e *RangeError) Error() string   { return "RangeError: " + e.Msg }
func (e *RangeError) Kind() string    { return "RangeError" }
func (e *RangeError) Message() string { return e.Msg }
func (e *RangeError) Unwrap() error   { return e.Cause }
func (e *RangeError) CausedBy(cause error) *RangeError {
	e.Cause = cause
	return e
}

// ConversionError reports that no conversion rule applies to a value and a
// target host type. Source is the runtime type name of the value ("<nil>" for
// null) and Target is the description of the requested type.
type ConversionError struct {
	Source string
	Target string
	Msg    string
	Cause  error
}

func (e *ConversionError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("ConversionError: cannot convert %s to %s: %s", e.Source, e.Target, e.Msg)
	}
	return fmt.Sprintf("ConversionError: cannot convert %s to %s", e.Source, e.Target)
}
func (e *ConversionError) Kind() string { return "ConversionError" }
func (e *ConversionError) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("cannot convert %s to %s", e.Source, e.Target)
}
func (e *ConversionError) Unwrap() error { return e.Cause }
func (e *ConversionError) CausedBy(cause error) *ConversionError {
	e.Cause = cause
	return e
}

// --- Helpers ---

// NewTypeError formats a TypeError.
func NewTypeError(format string, args ...interface{}) *TypeError {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

// NewRangeError formats a RangeError.
func NewRangeError(format string, args ...interface{}) *RangeError {
	return &RangeError{Msg: fmt.Sprintf(format, args...)}
}

// IsTypeError reports whether err is or wraps a *TypeError.
func IsTypeError(err error) bool {
	var te *TypeError
	return stderrors.As(err, &te)
}

// IsRangeError reports whether err is or wraps a *RangeError.
func IsRangeError(err error) bool {
	var re *RangeError
	return stderrors.As(err, &re)
}

// IsConversionError reports whether err is or wraps a *ConversionError.
func IsConversionError(err error) bool {
	var ce *ConversionError
	return stderrors.As(err, &ce)
}

// KindOf returns the Kind of an InteropError anywhere in err's chain, or ""
// when err carries none.
func KindOf(err error) string {
	var ie InteropError
	if stderrors.As(err, &ie) {
		return ie.Kind()
	}
	return ""
}
