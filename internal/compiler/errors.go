package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Schema error codes (E200-E299).
const (
	ErrCodeCyclicInheritance        = "E201"
	ErrCodeUnresolvedReference      = "E202"
	ErrCodeIncompatibleRedefinition = "E203"
	ErrCodeDuplicateEnumValue       = "E204"
	ErrCodeMultipleIdentifiers      = "E205"
	ErrCodeDuplicateDefinition      = "E206"
	ErrCodeInvalidDefault           = "E207"
	ErrCodeMissingIdentifierSlot    = "E208"
)

// SchemaError is implemented by every compile-time error. A schema error
// aborts the whole compilation; no partial model is returned.
type SchemaError interface {
	error
	Code() string
}

// CyclicInheritanceError reports a class (or type) that appears twice while
// walking is_a and mixins.
type CyclicInheritanceError struct {
	Class string
	Path  []string
}

func (e *CyclicInheritanceError) Code() string { return ErrCodeCyclicInheritance }

func (e *CyclicInheritanceError) Error() string {
	return fmt.Sprintf("[%s] class %s: cyclic inheritance: %s", e.Code(), e.Class, strings.Join(e.Path, " → "))
}

// UnresolvedReferenceError reports a name that resolves to no definition.
type UnresolvedReferenceError struct {
	Class string // empty for schema-level slots and types
	Slot  string
	Field string // "is_a", "mixins", "slots", "range", "typeof"
	Ref   string
}

func (e *UnresolvedReferenceError) Code() string { return ErrCodeUnresolvedReference }

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("[%s] %s: %s references undefined %q", e.Code(), subject(e.Class, e.Slot), e.Field, e.Ref)
}

// IncompatibleSlotRedefinitionError reports a slot whose range is redefined
// to an unrelated range further down the hierarchy.
type IncompatibleSlotRedefinitionError struct {
	Class string
	Slot  string
	From  string
	To    string
}

func (e *IncompatibleSlotRedefinitionError) Code() string { return ErrCodeIncompatibleRedefinition }

func (e *IncompatibleSlotRedefinitionError) Error() string {
	return fmt.Sprintf("[%s] %s: range %s cannot be redefined as unrelated range %s",
		e.Code(), subject(e.Class, e.Slot), e.From, e.To)
}

// DuplicateEnumValueError reports two permissible values with the same name.
type DuplicateEnumValueError struct {
	Enum  string
	Value string
}

func (e *DuplicateEnumValueError) Code() string { return ErrCodeDuplicateEnumValue }

func (e *DuplicateEnumValueError) Error() string {
	return fmt.Sprintf("[%s] enum %s: duplicate permissible value %q", e.Code(), e.Enum, e.Value)
}

// MultipleIdentifiersError reports a hierarchy with more than one identifier slot.
type MultipleIdentifiersError struct {
	Class string
	Slots []string
}

func (e *MultipleIdentifiersError) Code() string { return ErrCodeMultipleIdentifiers }

func (e *MultipleIdentifiersError) Error() string {
	return fmt.Sprintf("[%s] class %s: more than one identifier slot: %s",
		e.Code(), e.Class, strings.Join(e.Slots, ", "))
}

// DuplicateDefinitionError reports a name defined twice, within a category
// or across categories that share the range namespace.
type DuplicateDefinitionError struct {
	Name     string
	Category string
	Other    string
}

func (e *DuplicateDefinitionError) Code() string { return ErrCodeDuplicateDefinition }

func (e *DuplicateDefinitionError) Error() string {
	if e.Other != "" && e.Other != e.Category {
		return fmt.Sprintf("[%s] %s %s: name already defined as %s", e.Code(), e.Category, e.Name, e.Other)
	}
	return fmt.Sprintf("[%s] %s %s: defined more than once", e.Code(), e.Category, e.Name)
}

// InvalidDefaultError reports an ifabsent expression that does not parse or
// does not fit the slot's range.
type InvalidDefaultError struct {
	Class  string
	Slot   string
	Expr   string
	Reason string
}

func (e *InvalidDefaultError) Code() string { return ErrCodeInvalidDefault }

func (e *InvalidDefaultError) Error() string {
	return fmt.Sprintf("[%s] %s: invalid ifabsent %q: %s", e.Code(), subject(e.Class, e.Slot), e.Expr, e.Reason)
}

// MissingIdentifierSlotError reports a slot that demands identifier
// references (inlined: false) to a class hierarchy without an identifier.
type MissingIdentifierSlotError struct {
	Class string
	Slot  string
	Range string
}

func (e *MissingIdentifierSlotError) Code() string { return ErrCodeMissingIdentifierSlot }

func (e *MissingIdentifierSlotError) Error() string {
	return fmt.Sprintf("[%s] %s: inlined is false but range %s has no identifier slot",
		e.Code(), subject(e.Class, e.Slot), e.Range)
}

func subject(class, slot string) string {
	switch {
	case class != "" && slot != "":
		return fmt.Sprintf("class %s slot %s", class, slot)
	case class != "":
		return "class " + class
	case slot != "":
		return "slot " + slot
	}
	return "schema"
}

// ErrorCode returns the schema error code carried by err, or "" if err is
// not a schema error. Uses errors.As to handle wrapped errors.
func ErrorCode(err error) string {
	var se SchemaError
	if errors.As(err, &se) {
		return se.Code()
	}
	return ""
}

// IsCyclicInheritance returns true if err is a cyclic inheritance error.
func IsCyclicInheritance(err error) bool {
	var ce *CyclicInheritanceError
	return errors.As(err, &ce)
}

// IsIncompatibleRedefinition returns true if err is an incompatible slot
// redefinition error.
func IsIncompatibleRedefinition(err error) bool {
	var ie *IncompatibleSlotRedefinitionError
	return errors.As(err, &ie)
}
