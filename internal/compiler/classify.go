package compiler

import "github.com/roach88/schemac/internal/ir"

// ClassifyRange decides how values of a slot are represented.
//
//	type or enum range                       → primitive / enum
//	class without identifier                 → inlined
//	class with identifier, inlined set       → as stated
//	class with identifier, multivalued       → inlined
//	class with identifier, single valued     → referenced by identifier
func ClassifyRange(cat ir.Category, hasIdentifier, multivalued bool, inlined *bool) ir.RangeKind {
	switch cat {
	case ir.CategoryType:
		return ir.RangePrimitive
	case ir.CategoryEnum:
		return ir.RangeEnum
	}
	if !hasIdentifier {
		return ir.RangeClassInlined
	}
	if inlined != nil {
		if *inlined {
			return ir.RangeClassInlined
		}
		return ir.RangeClassIdentified
	}
	if multivalued {
		return ir.RangeClassInlined
	}
	return ir.RangeClassIdentified
}

// classify sets Kind and InlinedAsList on a resolved slot.
func (ix *index) classify(class string, s *resolvedSlot) error {
	a := &s.attr
	hasID := false
	if a.Category == ir.CategoryClass {
		var err error
		if hasID, err = ix.hasIdentifier(a.Range); err != nil {
			return err
		}
		if !hasID && s.inlined != nil && !*s.inlined {
			return &MissingIdentifierSlotError{Class: class, Slot: a.Name, Range: a.Range}
		}
	}
	a.Kind = ClassifyRange(a.Category, hasID, a.Multivalued, s.inlined)
	if s.inlinedAsList != nil {
		a.InlinedAsList = *s.inlinedAsList
	} else {
		a.InlinedAsList = a.Multivalued && a.Kind == ir.RangeClassInlined && !hasID
	}
	return nil
}

// Classify resolves rangeName against schema and classifies it.
func Classify(schema *ir.SchemaDefinition, rangeName string, multivalued bool, inlined *bool) (ir.RangeKind, error) {
	var first error
	ix, _ := newIndex(schema, func(err error) bool {
		first = err
		return false
	})
	if first != nil {
		return 0, first
	}
	s := resolvedSlot{
		attr:    ir.ResolvedAttribute{Name: rangeName, Range: rangeName, Multivalued: multivalued},
		inlined: inlined,
	}
	cat, ok := ix.category(rangeName)
	if !ok {
		return 0, &UnresolvedReferenceError{Field: "range", Ref: rangeName}
	}
	s.attr.Category = cat
	if err := ix.classify("", &s); err != nil {
		return 0, err
	}
	return s.attr.Kind, nil
}
