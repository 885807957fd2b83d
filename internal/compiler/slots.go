package compiler

import (
	"slices"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/types"
)

// resolvedSlot is an attribute before classification. inlined keeps the
// tri-state from the schema since classification needs to tell "unset"
// from "false".
type resolvedSlot struct {
	attr          ir.ResolvedAttribute
	inlined       *bool
	inlinedAsList *bool
}

// ResolveSlots flattens the attributes of class given its linearization.
// The returned attributes carry range categories but not range kinds;
// Compile classifies them once every class shape is known.
func ResolveSlots(schema *ir.SchemaDefinition, class string, chain []string) ([]ir.ResolvedAttribute, error) {
	var first error
	ix, _ := newIndex(schema, func(err error) bool {
		first = err
		return false
	})
	if first != nil {
		return nil, first
	}
	slots, err := ix.resolveSlots(class, chain)
	if err != nil {
		return nil, err
	}
	out := make([]ir.ResolvedAttribute, len(slots))
	for i, s := range slots {
		out[i] = s.attr
	}
	return out, nil
}

// resolveSlots applies, for every slot named along chain: the schema slot
// definition, then class-local attributes, then slot_usage, both in chain
// order with class's own definitions applied last. Position
// is fixed by first appearance; the identifier is moved to the front.
func (ix *index) resolveSlots(class string, chain []string) ([]resolvedSlot, error) {
	var order []string
	owners := make(map[string]string)
	introduce := func(name, owner string) {
		if _, ok := owners[name]; !ok {
			owners[name] = owner
			order = append(order, name)
		}
	}
	for _, cn := range chain {
		c := ix.classes[cn]
		for _, s := range c.Slots {
			introduce(s, cn)
		}
		for _, a := range c.Attributes {
			introduce(a.Name, cn)
		}
		for _, u := range c.SlotUsage {
			introduce(u.Name, cn)
		}
	}

	// The requesting class comes last even when a mixin listed after it in
	// the chain also defines or refines the slot.
	usageOrder := make([]string, 0, len(chain))
	for _, cn := range chain {
		if cn != class {
			usageOrder = append(usageOrder, cn)
		}
	}
	usageOrder = append(usageOrder, class)

	out := make([]resolvedSlot, 0, len(order))
	var identifiers []string
	for _, name := range order {
		def, err := ix.slotDefinition(class, name, usageOrder)
		if err != nil {
			return nil, err
		}
		rng := def.Range
		if rng == "" {
			rng = ix.schema.EffectiveDefaultRange()
		}
		cat, ok := ix.category(rng)
		if !ok {
			return nil, &UnresolvedReferenceError{Class: class, Slot: name, Field: "range", Ref: rng}
		}
		s := resolvedSlot{
			attr: ir.ResolvedAttribute{
				Name:        name,
				Range:       rng,
				Category:    cat,
				Multivalued: def.Multivalued,
				Required:    def.Required || def.Identifier,
				Identifier:  def.Identifier,
				IfAbsent:    def.IfAbsent,
				Owner:       owners[name],
			},
			inlined:       def.Inlined,
			inlinedAsList: def.InlinedAsList,
		}
		if def.Identifier {
			identifiers = append(identifiers, name)
		}
		out = append(out, s)
	}

	if len(identifiers) > 1 {
		return nil, &MultipleIdentifiersError{Class: class, Slots: identifiers}
	}
	if len(identifiers) == 1 {
		i := slices.IndexFunc(out, func(s resolvedSlot) bool { return s.attr.Identifier })
		id := out[i]
		out = slices.Delete(out, i, i+1)
		out = slices.Insert(out, 0, id)
	}
	return out, nil
}

// slotDefinition merges the definitions of one slot along usageOrder, so
// the requesting class's own attribute and usage are applied last.
func (ix *index) slotDefinition(class, name string, usageOrder []string) (ir.SlotDefinition, error) {
	var def ir.SlotDefinition
	defined := false
	if g, ok := ix.slots[name]; ok {
		def = *g
		defined = true
	}

	for _, cn := range usageOrder {
		a, ok := ix.classes[cn].Attribute(name)
		if !ok {
			continue
		}
		if defined {
			if err := ix.checkRedefinition(class, name, def.Range, a.Range); err != nil {
				return def, err
			}
		}
		def = a
		defined = true
	}

	for _, cn := range usageOrder {
		u, ok := ix.classes[cn].Usage(name)
		if !ok {
			continue
		}
		next := u.Apply(def)
		if err := ix.checkRedefinition(class, name, def.Range, next.Range); err != nil {
			return def, err
		}
		def = next
		defined = true
	}

	if !defined {
		return def, &UnresolvedReferenceError{Class: class, Slot: name, Field: "slots", Ref: name}
	}
	def.Name = name
	return def, nil
}

// checkRedefinition accepts a narrowed class range, any change within the
// type or enum categories, and a string type narrowed to an enum or class.
// An unset range is never considered narrowed.
func (ix *index) checkRedefinition(class, slot, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	fromCat, ok := ix.category(from)
	if !ok {
		return &UnresolvedReferenceError{Class: class, Slot: slot, Field: "range", Ref: from}
	}
	toCat, ok := ix.category(to)
	if !ok {
		return &UnresolvedReferenceError{Class: class, Slot: slot, Field: "range", Ref: to}
	}
	incompatible := &IncompatibleSlotRedefinitionError{Class: class, Slot: slot, From: from, To: to}
	if fromCat != toCat {
		// Enum values and identifiers are strings, so a string-kind type
		// may narrow to an enum or a class.
		if fromCat == ir.CategoryType {
			if t, _ := ix.types.Lookup(from); t.Kind == types.KindString {
				return nil
			}
		}
		return incompatible
	}
	if fromCat != ir.CategoryClass {
		return nil
	}
	narrowed, err := ix.isA(to, from)
	if err != nil {
		return err
	}
	if !narrowed {
		return incompatible
	}
	return nil
}
