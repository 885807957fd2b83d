package model

import (
	"slices"
	"sort"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/types"
)

// Class constructs instances of one resolved class.
type Class struct {
	model *CompiledModel
	def   *ir.ResolvedClassModel
	attrs []*Attribute
	index map[string]int
}

// Attribute is a resolved attribute bound to its range. Exactly one of
// the range fields is set, according to Kind.
type Attribute struct {
	ir.ResolvedAttribute
	class *Class

	typ    *types.Type
	enum   *Enum
	target *Class

	defaultValue any
}

// RangeClass returns the range class of a class-ranged attribute, or nil.
func (a *Attribute) RangeClass() *Class { return a.target }

// RangeEnum returns the range enumeration of an enum attribute, or nil.
func (a *Attribute) RangeEnum() *Enum { return a.enum }

// RangeType returns the primitive type of a primitive attribute, or nil.
func (a *Attribute) RangeType() *types.Type { return a.typ }

// Name returns the class name.
func (c *Class) Name() string { return c.def.Name }

// Model returns the compiled model the class belongs to.
func (c *Class) Model() *CompiledModel { return c.model }

// Resolved returns the resolved class model. Callers must not modify it.
func (c *Class) Resolved() *ir.ResolvedClassModel { return c.def }

// Identifier returns the identifier attribute name, or "" if the class
// has none.
func (c *Class) Identifier() string { return c.def.Identifier }

// Abstract reports whether the class can be instantiated.
func (c *Class) Abstract() bool { return c.def.Abstract }

// Ancestors returns the linearization, most general first, ending with
// mixins. It contains the class itself.
func (c *Class) Ancestors() []string { return slices.Clone(c.def.Ancestors) }

// IsA reports whether the class is name or descends from it.
func (c *Class) IsA(name string) bool { return slices.Contains(c.def.Ancestors, name) }

// Attributes returns the attributes in resolved order.
func (c *Class) Attributes() []*Attribute { return slices.Clone(c.attrs) }

// Attribute returns the attribute called name.
func (c *Class) Attribute(name string) (*Attribute, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.attrs[i], true
}

// Arg is a named constructor argument.
type Arg struct {
	Name  string
	Value any
}

// With names a constructor argument.
func With(name string, value any) Arg { return Arg{Name: name, Value: value} }

// New constructs an instance. id is the identifier value and must be nil
// for classes without an identifier. Named arguments with a nil value are
// treated as omitted. Omitted attributes take their default: the compiled
// ifabsent value, an empty list for multivalued attributes, or nil.
func (c *Class) New(id any, args ...Arg) (*Instance, error) {
	if c.def.Abstract {
		return nil, &AbstractClassError{Class: c.Name()}
	}

	raw := make([]any, len(c.attrs))
	given := make([]bool, len(c.attrs))
	if id != nil {
		if c.def.Identifier == "" {
			return nil, &TypeCoercionError{Class: c.Name(), Value: id, Reason: "class has no identifier"}
		}
		raw[0], given[0] = id, true
	}
	for _, arg := range args {
		i, ok := c.index[arg.Name]
		if !ok {
			return nil, &UnknownAttributeError{Class: c.Name(), Attribute: arg.Name}
		}
		if arg.Value == nil {
			continue
		}
		if given[i] && c.attrs[i].Identifier {
			return nil, &TypeCoercionError{
				Class: c.Name(), Attribute: arg.Name, Value: arg.Value,
				Reason: "identifier given both positionally and by name",
			}
		}
		raw[i], given[i] = arg.Value, true
	}

	inst := &Instance{class: c, values: make([]any, len(c.attrs))}
	for i, a := range c.attrs {
		var (
			v   any
			err error
		)
		if given[i] {
			v, err = a.coerce(raw[i])
		} else {
			v = a.zero()
		}
		if err != nil {
			return nil, err
		}
		if err := a.checkPresent(v); err != nil {
			return nil, err
		}
		inst.values[i] = v
	}
	return inst, nil
}

// NewFromMap constructs an instance from a mapping of attribute names to
// values. The identifier, if any, is taken from its key. Unknown keys are
// reported in sorted order.
func (c *Class) NewFromMap(fields map[string]any) (*Instance, error) {
	var unknown []string
	for k := range fields {
		if _, ok := c.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownAttributeError{Class: c.Name(), Attribute: unknown[0]}
	}

	var id any
	args := make([]Arg, 0, len(fields))
	for _, a := range c.attrs {
		v, ok := fields[a.Name]
		if !ok {
			continue
		}
		if a.Identifier {
			id = v
			continue
		}
		args = append(args, With(a.Name, v))
	}
	return c.New(id, args...)
}

// zero returns the value of an omitted attribute.
func (a *Attribute) zero() any {
	if a.Multivalued {
		if a.defaultValue != nil {
			return []any{a.defaultValue}
		}
		return []any{}
	}
	return a.defaultValue
}

// checkPresent enforces identifier and required constraints.
func (a *Attribute) checkPresent(v any) error {
	if !isEmpty(v) {
		return nil
	}
	if a.Identifier {
		return &MissingIdentifierError{Class: a.class.Name(), Identifier: a.Name}
	}
	if a.Required {
		return &MissingRequiredError{Class: a.class.Name(), Attribute: a.Name}
	}
	return nil
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case []any:
		return len(val) == 0
	}
	return false
}
