package model

import (
	"fmt"
	"slices"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/types"
)

// Definition is the compiler's output handed to NewCompiledModel. Classes
// are in emission order: every class follows the classes it depends on,
// except where classes reference each other.
type Definition struct {
	Name    string
	Classes []*ir.ResolvedClassModel
	Enums   []*ir.EnumModel
	Types   *types.Registry
	Cycles  []ir.ReferenceCycle
}

// CompiledModel is the registry of emitted classes and enums.
type CompiledModel struct {
	name       string
	classes    []*Class
	classIndex map[string]*Class
	enums      []*Enum
	enumIndex  map[string]*Enum
	types      *types.Registry
	cycles     []ir.ReferenceCycle
	hash       string
}

// NewCompiledModel links resolved classes into constructible classes.
// Classes are created before any range is linked, so classes that
// reference each other resolve to each other's Class.
func NewCompiledModel(def Definition) (*CompiledModel, error) {
	reg := def.Types
	if reg == nil {
		reg = types.NewRegistry()
	}
	m := &CompiledModel{
		name:       def.Name,
		classIndex: make(map[string]*Class, len(def.Classes)),
		enumIndex:  make(map[string]*Enum, len(def.Enums)),
		types:      reg,
		cycles:     slices.Clone(def.Cycles),
	}

	for _, em := range def.Enums {
		e := newEnum(em)
		m.enums = append(m.enums, e)
		m.enumIndex[e.Name()] = e
	}
	for _, rc := range def.Classes {
		c := &Class{
			model: m,
			def:   rc,
			index: make(map[string]int, len(rc.Attributes)),
		}
		for i := range rc.Attributes {
			c.attrs = append(c.attrs, &Attribute{ResolvedAttribute: rc.Attributes[i], class: c})
			c.index[rc.Attributes[i].Name] = i
		}
		m.classes = append(m.classes, c)
		m.classIndex[c.Name()] = c
	}

	for _, c := range m.classes {
		for _, a := range c.attrs {
			if err := m.link(a); err != nil {
				return nil, fmt.Errorf("link %s.%s: %w", c.Name(), a.Name, err)
			}
		}
	}

	hash, err := ir.ModelHash(m.snapshot())
	if err != nil {
		return nil, fmt.Errorf("hash model: %w", err)
	}
	m.hash = hash
	return m, nil
}

// link binds an attribute to its range and prepares its default.
func (m *CompiledModel) link(a *Attribute) error {
	switch a.Kind {
	case ir.RangePrimitive:
		t, ok := m.types.Lookup(a.Range)
		if !ok {
			return fmt.Errorf("unknown type %q", a.Range)
		}
		a.typ = t
	case ir.RangeEnum:
		e, ok := m.enumIndex[a.Range]
		if !ok {
			return fmt.Errorf("unknown enum %q", a.Range)
		}
		a.enum = e
	case ir.RangeClassIdentified, ir.RangeClassInlined:
		c, ok := m.classIndex[a.Range]
		if !ok {
			return fmt.Errorf("unknown class %q", a.Range)
		}
		a.target = c
	}

	if !a.HasDefault() {
		return nil
	}
	v, err := a.coerceOne(a.Default)
	if err != nil {
		return fmt.Errorf("default: %w", err)
	}
	a.defaultValue = v
	return nil
}

func (m *CompiledModel) snapshot() ir.Object {
	classes := make(ir.Array, len(m.classes))
	for i, c := range m.classes {
		classes[i] = c.def.ToObject()
	}
	enums := make(ir.Array, len(m.enums))
	for i, e := range m.enums {
		enums[i] = e.def.ToObject()
	}
	return ir.Object{
		"name":    ir.String(m.name),
		"classes": classes,
		"enums":   enums,
	}
}

// Name returns the schema name.
func (m *CompiledModel) Name() string { return m.name }

// Class returns the class called name.
func (m *CompiledModel) Class(name string) (*Class, bool) {
	c, ok := m.classIndex[name]
	return c, ok
}

// Enum returns the enumeration called name.
func (m *CompiledModel) Enum(name string) (*Enum, bool) {
	e, ok := m.enumIndex[name]
	return e, ok
}

// Classes returns classes in emission order.
func (m *CompiledModel) Classes() []*Class { return slices.Clone(m.classes) }

// Enums returns enumerations in declaration order.
func (m *CompiledModel) Enums() []*Enum { return slices.Clone(m.enums) }

// Types returns the type registry the model coerces primitives with.
func (m *CompiledModel) Types() *types.Registry { return m.types }

// Hash returns the content hash of the resolved classes and enums.
func (m *CompiledModel) Hash() string { return m.hash }

// Warnings returns informational reference cycles.
func (m *CompiledModel) Warnings() []ir.ReferenceCycle { return slices.Clone(m.cycles) }

// Snapshot returns the model as canonical data: resolved classes in
// emission order and enums with their metadata.
func (m *CompiledModel) Snapshot() ir.Object { return m.snapshot() }
