package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/testutil"
)

func TestValidate_KitchenSink(t *testing.T) {
	assert.Empty(t, Validate(testutil.KitchenSink()))
}

// TestValidate_CollectsAll tests that Validate reports every independent
// problem instead of stopping at the first.
func TestValidate_CollectsAll(t *testing.T) {
	schema := &ir.SchemaDefinition{
		Name: "many",
		Enums: []ir.EnumDefinition{
			{Name: "E", PermissibleValues: []ir.PermissibleValue{{Name: "X"}, {Name: "X"}}},
		},
		Slots: []ir.SlotDefinition{{Name: "orphan", Range: "Ghost"}},
		Classes: []ir.ClassDefinition{
			{Name: "A", IsA: "B"},
			{Name: "B", IsA: "A"},
			{Name: "C", Slots: []string{"undefined_slot"}},
			{Name: "D", Attributes: []ir.SlotDefinition{
				{Name: "n", Range: "integer", IfAbsent: "int(x)"},
			}},
			{Name: "F", Attributes: []ir.SlotDefinition{
				{Name: "a", Identifier: true},
				{Name: "b", Identifier: true},
			}},
		},
	}

	errs := Validate(schema)
	codes := make([]string, len(errs))
	for i, err := range errs {
		codes[i] = ErrorCode(err)
	}

	assert.Contains(t, codes, ErrCodeDuplicateEnumValue)
	assert.Contains(t, codes, ErrCodeUnresolvedReference)
	assert.Contains(t, codes, ErrCodeCyclicInheritance)
	assert.Contains(t, codes, ErrCodeInvalidDefault)
	assert.Contains(t, codes, ErrCodeMultipleIdentifiers)

	seen := map[string]bool{}
	for _, err := range errs {
		assert.False(t, seen[err.Error()], "duplicate report: %s", err)
		seen[err.Error()] = true
	}
}

func TestValidate_MatchesCompile(t *testing.T) {
	schema := &ir.SchemaDefinition{
		Name: "one",
		Classes: []ir.ClassDefinition{
			{Name: "A", Attributes: []ir.SlotDefinition{{Name: "x", Range: "Nope"}}},
		},
	}

	errs := Validate(schema)
	_, err := Compile(schema)
	if assert.Len(t, errs, 1) {
		assert.Equal(t, err.Error(), errs[0].Error())
	}
}
