package model

import (
	"fmt"
	"strings"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/types"
)

// Instance is a constructed object. Values are stored in resolved
// attribute order as one of: nil, string, int64, float64, bool,
// types.Date, types.DateTime, types.TimeOfDay, *EnumValue, Ref, *Instance,
// or []any of those for multivalued attributes.
type Instance struct {
	class  *Class
	values []any
}

// Ref is a reference to an identified object. Target is set when the
// referenced object was supplied or constructed in place; a bare
// identifier leaves it nil.
type Ref struct {
	ID     any
	Target *Instance
}

// String returns the identifier as text.
func (r Ref) String() string { return fmt.Sprint(r.ID) }

// Field is one attribute value of an instance.
type Field struct {
	Name  string
	Value any
}

// Class returns the instance's class.
func (i *Instance) Class() *Class { return i.class }

// ID returns the identifier value, or nil for classes without one.
func (i *Instance) ID() any {
	if i.class.def.Identifier == "" {
		return nil
	}
	return i.values[0]
}

// Get returns the value of the attribute called name, or nil if the class
// has no such attribute.
func (i *Instance) Get(name string) any {
	v, _ := i.Lookup(name)
	return v
}

// Lookup returns the value of the attribute called name.
func (i *Instance) Lookup(name string) (any, bool) {
	idx, ok := i.class.index[name]
	if !ok {
		return nil, false
	}
	return i.values[idx], true
}

// Set coerces v like the constructor does and stores it. Setting nil
// restores the attribute's default.
func (i *Instance) Set(name string, v any) error {
	idx, ok := i.class.index[name]
	if !ok {
		return &UnknownAttributeError{Class: i.class.Name(), Attribute: name}
	}
	a := i.class.attrs[idx]
	var (
		out any
		err error
	)
	if v == nil {
		out = a.zero()
	} else if out, err = a.coerce(v); err != nil {
		return err
	}
	if err := a.checkPresent(out); err != nil {
		return err
	}
	i.values[idx] = out
	return nil
}

// Fields returns every attribute value in resolved order.
func (i *Instance) Fields() []Field {
	out := make([]Field, len(i.values))
	for idx, a := range i.class.attrs {
		out[idx] = Field{Name: a.Name, Value: i.values[idx]}
	}
	return out
}

// String renders the canonical representation:
// ClassName(attr=value, ...) with every attribute in resolved order.
func (i *Instance) String() string {
	var b strings.Builder
	b.WriteString(i.class.Name())
	b.WriteByte('(')
	for idx, a := range i.class.attrs {
		if idx > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Name)
		b.WriteByte('=')
		b.WriteString(formatValue(i.values[idx]))
	}
	b.WriteByte(')')
	return b.String()
}

// ToObject converts the instance to canonical data. Unset attributes are
// omitted, enum values become their names, references their identifiers,
// and inlined instances nested objects.
func (i *Instance) ToObject() (ir.Object, error) {
	obj := make(ir.Object, len(i.values))
	for idx, a := range i.class.attrs {
		v := i.values[idx]
		if v == nil {
			continue
		}
		val, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", i.class.Name(), a.Name, err)
		}
		obj[a.Name] = val
	}
	return obj, nil
}

// MarshalJSON encodes the instance as canonical JSON.
func (i *Instance) MarshalJSON() ([]byte, error) {
	obj, err := i.ToObject()
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(obj)
}

func toValue(v any) (ir.Value, error) {
	switch val := v.(type) {
	case types.Date:
		return ir.String(val.String()), nil
	case types.DateTime:
		return ir.String(val.String()), nil
	case types.TimeOfDay:
		return ir.String(val.String()), nil
	case *EnumValue:
		return ir.String(val.Name), nil
	case Ref:
		return toValue(val.ID)
	case *Instance:
		return val.ToObject()
	case []any:
		arr := make(ir.Array, len(val))
		for i, e := range val {
			ev, err := toValue(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	}
	return ir.FromAny(v)
}
