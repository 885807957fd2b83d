package types

import (
	"fmt"
	"slices"

	"github.com/roach88/schemac/internal/ir"
)

// Type is a resolved primitive type.
type Type struct {
	Name string
	Kind Kind
	// Chain lists the type followed by every type it refines, ending at
	// the builtin that fixes its kind.
	Chain []string
}

// Builtin reports whether the type is one of the registry's builtins.
func (t *Type) Builtin() bool { return len(t.Chain) == 1 }

var builtins = []struct {
	name string
	kind Kind
}{
	{"string", KindString},
	{"integer", KindInteger},
	{"float", KindFloat},
	{"double", KindFloat},
	{"decimal", KindFloat},
	{"boolean", KindBoolean},
	{"date", KindDate},
	{"datetime", KindDateTime},
	{"time", KindTime},
	{"uri", KindString},
	{"uriorcurie", KindString},
	{"curie", KindString},
	{"ncname", KindString},
	{"objectidentifier", KindString},
	{"nodeidentifier", KindString},
}

// Registry maps type names to resolved types.
// A Registry is read-only once Define returns and is safe for concurrent use.
type Registry struct {
	types map[string]*Type
	order []string
}

// NewRegistry returns a registry holding the builtin types.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]*Type, len(builtins))}
	for _, b := range builtins {
		r.types[b.name] = &Type{Name: b.name, Kind: b.kind, Chain: []string{b.name}}
		r.order = append(r.order, b.name)
	}
	return r
}

// CycleError reports a typeof chain that returns to Type.
type CycleError struct {
	Type  string
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("type %s: typeof cycle %v", e.Type, e.Chain)
}

// UnknownBaseError reports a typeof/base reference to an undefined type.
type UnknownBaseError struct {
	Type string
	Base string
}

func (e *UnknownBaseError) Error() string {
	if e.Base == "" {
		return fmt.Sprintf("type %s: no typeof or base given", e.Type)
	}
	return fmt.Sprintf("type %s: unknown base type %q", e.Type, e.Base)
}

// Define resolves and registers user type definitions. Definitions may
// refer to each other in any order.
func (r *Registry) Define(defs []ir.TypeDefinition) error {
	byName := make(map[string]ir.TypeDefinition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	var resolve func(name string, walk []string) (*Type, error)
	resolve = func(name string, walk []string) (*Type, error) {
		if t, ok := r.types[name]; ok {
			return t, nil
		}
		if slices.Contains(walk, name) {
			return nil, &CycleError{Type: walk[0], Chain: append(walk, name)}
		}
		d, ok := byName[name]
		if !ok {
			return nil, &UnknownBaseError{Type: walk[len(walk)-1], Base: name}
		}
		parent := d.Typeof
		if parent == "" {
			parent = d.Base
		}
		if parent == "" {
			return nil, &UnknownBaseError{Type: name}
		}
		base, err := resolve(parent, append(walk, name))
		if err != nil {
			return nil, err
		}
		t := &Type{
			Name:  name,
			Kind:  base.Kind,
			Chain: append([]string{name}, base.Chain...),
		}
		r.types[name] = t
		r.order = append(r.order, name)
		return t, nil
	}

	for _, d := range defs {
		if _, err := resolve(d.Name, nil); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the type called name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Has reports whether name is a registered type.
func (r *Registry) Has(name string) bool {
	_, ok := r.types[name]
	return ok
}

// Refines reports whether sub is super or refines it through typeof.
func (r *Registry) Refines(sub, super string) bool {
	t, ok := r.types[sub]
	if !ok {
		return false
	}
	return slices.Contains(t.Chain, super)
}

// Names returns registered type names, builtins first, then user types in
// resolution order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}
