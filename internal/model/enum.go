package model

import (
	"fmt"
	"strings"

	"github.com/roach88/schemac/internal/ir"
)

// Enum is an emitted enumeration. Its values are singletons: two lookups
// of the same name return the same *EnumValue.
type Enum struct {
	def    *ir.EnumModel
	values []*EnumValue
	byName map[string]*EnumValue
	byText map[string]*EnumValue
}

// EnumValue is a tagged enumeration value: a name plus its metadata.
// The metadata is data only and is never interpreted.
type EnumValue struct {
	ir.EnumValueModel
	enum *Enum
}

func newEnum(def *ir.EnumModel) *Enum {
	e := &Enum{
		def:    def,
		byName: make(map[string]*EnumValue, len(def.Values)),
		byText: make(map[string]*EnumValue, len(def.Values)),
	}
	for _, v := range def.Values {
		ev := &EnumValue{EnumValueModel: v, enum: e}
		e.values = append(e.values, ev)
		e.byName[v.Name] = ev
		if _, taken := e.byText[v.Text]; !taken {
			e.byText[v.Text] = ev
		}
	}
	return e
}

// Name returns the enumeration name.
func (e *Enum) Name() string { return e.def.Name }

// Description returns the enumeration description.
func (e *Enum) Description() string { return e.def.Description }

// Values returns the values in declaration order.
func (e *Enum) Values() []*EnumValue {
	out := make([]*EnumValue, len(e.values))
	copy(out, e.values)
	return out
}

// Value returns the value called name.
func (e *Enum) Value(name string) (*EnumValue, bool) {
	v, ok := e.byName[name]
	return v, ok
}

// Lookup resolves v to a value of the enumeration. v may be one of its
// values, a value name, or a value's display text.
func (e *Enum) Lookup(v any) (*EnumValue, error) {
	var s string
	switch val := v.(type) {
	case *EnumValue:
		if val.enum != e {
			return nil, fmt.Errorf("value %s belongs to enum %s, not %s", val.Name, val.enum.Name(), e.Name())
		}
		return val, nil
	case string:
		s = val
	case ir.String:
		s = string(val)
	case fmt.Stringer:
		s = val.String()
	default:
		return nil, fmt.Errorf("enum %s expects a value name, got %T", e.Name(), v)
	}
	if ev, ok := e.byName[s]; ok {
		return ev, nil
	}
	if ev, ok := e.byText[s]; ok {
		return ev, nil
	}
	return nil, fmt.Errorf("%q is not a value of enum %s", s, e.Name())
}

// Enum returns the enumeration the value belongs to.
func (v *EnumValue) Enum() *Enum { return v.enum }

// String renders the value with its metadata, for example
// (text='heartfelt', description='warm and hearty friendliness').
// A value without metadata renders as its quoted text.
func (v *EnumValue) String() string {
	if v.Description == "" && v.Meaning == "" {
		return quote(v.Text)
	}
	parts := []string{"text=" + quote(v.Text)}
	if v.Description != "" {
		parts = append(parts, "description="+quote(v.Description))
	}
	if v.Meaning != "" {
		parts = append(parts, "meaning="+quote(v.Meaning))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
