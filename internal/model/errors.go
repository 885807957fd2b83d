package model

import (
	"errors"
	"fmt"
)

// Construction error codes (E300-E399).
const (
	ErrCodeMissingIdentifier = "E301"
	ErrCodeMissingRequired   = "E302"
	ErrCodeTypeCoercion      = "E303"
	ErrCodeAbstractClass     = "E304"
	ErrCodeUnknownAttribute  = "E305"
)

// MissingIdentifierError reports construction of an identified class
// without an identifier value.
type MissingIdentifierError struct {
	Class      string
	Identifier string
}

func (e *MissingIdentifierError) Code() string { return ErrCodeMissingIdentifier }

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("[%s] %s: identifier %s is required", e.Code(), e.Class, e.Identifier)
}

// MissingRequiredError reports a required attribute left empty.
type MissingRequiredError struct {
	Class     string
	Attribute string
}

func (e *MissingRequiredError) Code() string { return ErrCodeMissingRequired }

func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("[%s] %s.%s: required attribute has no value", e.Code(), e.Class, e.Attribute)
}

// TypeCoercionError reports a value that does not fit an attribute's range.
type TypeCoercionError struct {
	Class     string
	Attribute string // empty for the positional identifier of an unidentified class
	Range     string
	Value     any
	Reason    string
	Err       error
}

func (e *TypeCoercionError) Code() string { return ErrCodeTypeCoercion }

func (e *TypeCoercionError) Error() string {
	where := e.Class
	if e.Attribute != "" {
		where += "." + e.Attribute
	}
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	if e.Range == "" {
		return fmt.Sprintf("[%s] %s: cannot use %T value %v: %s", e.Code(), where, e.Value, e.Value, reason)
	}
	return fmt.Sprintf("[%s] %s: cannot use %T value %v as %s: %s", e.Code(), where, e.Value, e.Value, e.Range, reason)
}

func (e *TypeCoercionError) Unwrap() error { return e.Err }

// AbstractClassError reports an attempt to instantiate an abstract class.
type AbstractClassError struct {
	Class string
}

func (e *AbstractClassError) Code() string { return ErrCodeAbstractClass }

func (e *AbstractClassError) Error() string {
	return fmt.Sprintf("[%s] %s: abstract class cannot be instantiated", e.Code(), e.Class)
}

// UnknownAttributeError reports a named argument the class does not have.
type UnknownAttributeError struct {
	Class     string
	Attribute string
}

func (e *UnknownAttributeError) Code() string { return ErrCodeUnknownAttribute }

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("[%s] %s: unknown attribute %q", e.Code(), e.Class, e.Attribute)
}

// ErrorCode returns the construction error code carried by err, or "".
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// IsMissingIdentifier returns true if err is a missing identifier error.
func IsMissingIdentifier(err error) bool {
	var e *MissingIdentifierError
	return errors.As(err, &e)
}

// IsMissingRequired returns true if err is a missing required attribute error.
func IsMissingRequired(err error) bool {
	var e *MissingRequiredError
	return errors.As(err, &e)
}

// IsCoercionError returns true if err is a type coercion error.
func IsCoercionError(err error) bool {
	var e *TypeCoercionError
	return errors.As(err, &e)
}

// IsAbstractClass returns true if err is an abstract class error.
func IsAbstractClass(err error) bool {
	var e *AbstractClassError
	return errors.As(err, &e)
}

// IsUnknownAttribute returns true if err is an unknown attribute error.
func IsUnknownAttribute(err error) bool {
	var e *UnknownAttributeError
	return errors.As(err, &e)
}
