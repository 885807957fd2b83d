package compiler

import (
	"reflect"

	"github.com/roach88/schemac/internal/ir"
)

// MergeSchemas folds imported definition sets into base. Base keeps its
// name, id and default range; imported definitions are appended after the
// base's own, in import order. A name already present is skipped when the
// definitions are identical and rejected otherwise.
func MergeSchemas(base *ir.SchemaDefinition, imports ...*ir.SchemaDefinition) (*ir.SchemaDefinition, error) {
	merged := *base
	merged.Types = append([]ir.TypeDefinition(nil), base.Types...)
	merged.Enums = append([]ir.EnumDefinition(nil), base.Enums...)
	merged.Slots = append([]ir.SlotDefinition(nil), base.Slots...)
	merged.Classes = append([]ir.ClassDefinition(nil), base.Classes...)

	for _, imp := range imports {
		if imp == nil {
			continue
		}
		var err error
		if merged.Types, err = mergeNamed(merged.Types, imp.Types, "type", func(t ir.TypeDefinition) string { return t.Name }); err != nil {
			return nil, err
		}
		if merged.Enums, err = mergeNamed(merged.Enums, imp.Enums, "enum", func(e ir.EnumDefinition) string { return e.Name }); err != nil {
			return nil, err
		}
		if merged.Slots, err = mergeNamed(merged.Slots, imp.Slots, "slot", func(s ir.SlotDefinition) string { return s.Name }); err != nil {
			return nil, err
		}
		if merged.Classes, err = mergeNamed(merged.Classes, imp.Classes, "class", func(c ir.ClassDefinition) string { return c.Name }); err != nil {
			return nil, err
		}
	}
	return &merged, nil
}

func mergeNamed[T any](into, from []T, category string, name func(T) string) ([]T, error) {
	index := make(map[string]int, len(into))
	for i, d := range into {
		index[name(d)] = i
	}
	for _, d := range from {
		i, ok := index[name(d)]
		if !ok {
			index[name(d)] = len(into)
			into = append(into, d)
			continue
		}
		if !reflect.DeepEqual(into[i], d) {
			return nil, &DuplicateDefinitionError{Name: name(d), Category: category, Other: category}
		}
	}
	return into, nil
}
