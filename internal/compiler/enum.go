package compiler

import (
	"maps"

	"github.com/roach88/schemac/internal/ir"
)

// EmitEnum builds the emitted form of an enumeration. Values keep
// declaration order; metadata is copied without interpretation.
func EmitEnum(def *ir.EnumDefinition) (*ir.EnumModel, error) {
	m := &ir.EnumModel{
		Name:        def.Name,
		Description: def.Description,
		Values:      make([]ir.EnumValueModel, 0, len(def.PermissibleValues)),
	}
	seen := make(map[string]bool, len(def.PermissibleValues))
	for _, pv := range def.PermissibleValues {
		if seen[pv.Name] {
			return nil, &DuplicateEnumValueError{Enum: def.Name, Value: pv.Name}
		}
		seen[pv.Name] = true
		m.Values = append(m.Values, ir.EnumValueModel{
			Name:        pv.Name,
			Text:        pv.DisplayText(),
			Description: pv.Description,
			Meaning:     pv.Meaning,
			Annotations: maps.Clone(pv.Annotations),
		})
	}
	return m, nil
}
