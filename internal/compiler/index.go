package compiler

import (
	"errors"
	"slices"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/types"
)

// index gives name lookup over a definition set. It is built once per
// compilation; after construction it is only read, so the per-class
// resolution workers can share it.
type index struct {
	schema  *ir.SchemaDefinition
	classes map[string]*ir.ClassDefinition
	slots   map[string]*ir.SlotDefinition
	enums   map[string]*ir.EnumDefinition
	types   *types.Registry

	// chains and shapes are filled by Compile before workers start.
	chains map[string][]string
	shapes map[string]bool
}

// newIndex builds lookup maps. Duplicate names are reported through emit;
// the first definition of a name wins so collection can continue.
func newIndex(schema *ir.SchemaDefinition, emit func(error) bool) (*index, bool) {
	ix := &index{
		schema:  schema,
		classes: make(map[string]*ir.ClassDefinition, len(schema.Classes)),
		slots:   make(map[string]*ir.SlotDefinition, len(schema.Slots)),
		enums:   make(map[string]*ir.EnumDefinition, len(schema.Enums)),
		types:   types.NewRegistry(),
	}

	// Range names share one namespace across types, enums and classes.
	rangeNames := make(map[string]string)
	for _, name := range ix.types.Names() {
		rangeNames[name] = "builtin type"
	}
	claim := func(name, category string) error {
		if prev, ok := rangeNames[name]; ok {
			return &DuplicateDefinitionError{Name: name, Category: category, Other: prev}
		}
		rangeNames[name] = category
		return nil
	}

	for i := range schema.Types {
		if err := claim(schema.Types[i].Name, "type"); err != nil && !emit(err) {
			return nil, false
		}
	}
	for i := range schema.Enums {
		e := &schema.Enums[i]
		if err := claim(e.Name, "enum"); err != nil {
			if !emit(err) {
				return nil, false
			}
			continue
		}
		ix.enums[e.Name] = e
	}
	for i := range schema.Classes {
		c := &schema.Classes[i]
		if err := claim(c.Name, "class"); err != nil {
			if !emit(err) {
				return nil, false
			}
			continue
		}
		ix.classes[c.Name] = c
	}
	for i := range schema.Slots {
		s := &schema.Slots[i]
		if _, dup := ix.slots[s.Name]; dup {
			if !emit(&DuplicateDefinitionError{Name: s.Name, Category: "slot"}) {
				return nil, false
			}
			continue
		}
		ix.slots[s.Name] = s
	}

	if err := ix.types.Define(userTypes(schema.Types, ix.types)); err != nil {
		if !emit(typeError(err)) {
			return nil, false
		}
	}
	return ix, true
}

// userTypes drops definitions that shadow builtins or repeat an earlier
// name; those were reported.
func userTypes(defs []ir.TypeDefinition, reg *types.Registry) []ir.TypeDefinition {
	out := make([]ir.TypeDefinition, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if reg.Has(d.Name) || seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		out = append(out, d)
	}
	return out
}

// typeError maps registry errors onto schema errors.
func typeError(err error) error {
	var cycleErr *types.CycleError
	if errors.As(err, &cycleErr) {
		return &CyclicInheritanceError{Class: cycleErr.Type, Path: cycleErr.Chain}
	}
	var baseErr *types.UnknownBaseError
	if errors.As(err, &baseErr) {
		return &UnresolvedReferenceError{Class: baseErr.Type, Field: "typeof", Ref: baseErr.Base}
	}
	return err
}

// category resolves a range name.
func (ix *index) category(name string) (ir.Category, bool) {
	if _, ok := ix.classes[name]; ok {
		return ir.CategoryClass, true
	}
	if _, ok := ix.enums[name]; ok {
		return ir.CategoryEnum, true
	}
	if ix.types.Has(name) {
		return ir.CategoryType, true
	}
	return "", false
}

// chain returns the memoized linearization, computing it when absent.
func (ix *index) chain(class string) ([]string, error) {
	if c, ok := ix.chains[class]; ok {
		return c, nil
	}
	return ix.linearize(class)
}

// isA reports whether sub is super or has super in its linearization.
func (ix *index) isA(sub, super string) (bool, error) {
	if sub == super {
		return true, nil
	}
	chain, err := ix.chain(sub)
	if err != nil {
		return false, err
	}
	return slices.Contains(chain, super), nil
}

// hasIdentifier reports whether the class hierarchy declares an identifier.
// Only the class shape is needed, so mutually referencing classes never
// require each other's full resolution.
func (ix *index) hasIdentifier(class string) (bool, error) {
	if s, ok := ix.shapes[class]; ok {
		return s, nil
	}
	chain, err := ix.chain(class)
	if err != nil {
		return false, err
	}
	slots, err := ix.resolveSlots(class, chain)
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s.attr.Identifier {
			return true, nil
		}
	}
	return false, nil
}
