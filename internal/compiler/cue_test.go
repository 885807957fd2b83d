package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/testutil"
)

func TestCompileSchemaCUE_KitchenSink(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(testutil.KitchenSinkCUE)
	require.NoError(t, v.Err())

	schema, err := CompileSchemaCUE(v)
	require.NoError(t, err)
	assert.Equal(t, testutil.KitchenSink(), schema)
}

func TestCompileSchemaCUE_Basic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		schema: zoo: {
			default_range: "string"
			enums: Diet: permissible_values: {
				HERBIVORE: {text: "herbivore", meaning: "ENVO:1"}
				CARNIVORE: annotations: source: "wikipedia"
			}
			classes: {
				Animal: {
					abstract: true
					attributes: {
						id: identifier: true
						diet: range: "Diet"
					}
				}
				Lion: {
					is_a: "Animal"
					slot_usage: diet: {ifabsent: "Diet(CARNIVORE)", required: false}
				}
			}
		}
	`)
	require.NoError(t, v.Err())

	schema, err := CompileSchemaCUE(v.LookupPath(cue.ParsePath("schema.zoo")))
	require.NoError(t, err)

	assert.Equal(t, "zoo", schema.Name, "name falls back to the field label")
	assert.Equal(t, "string", schema.DefaultRange)
	require.Len(t, schema.Enums, 1)
	assert.Equal(t, []ir.PermissibleValue{
		{Name: "HERBIVORE", Text: "herbivore", Meaning: "ENVO:1"},
		{Name: "CARNIVORE", Annotations: map[string]string{"source": "wikipedia"}},
	}, schema.Enums[0].PermissibleValues)

	require.Len(t, schema.Classes, 2)
	animal := schema.Classes[0]
	assert.True(t, animal.Abstract)
	require.Len(t, animal.Attributes, 2)
	assert.Equal(t, "id", animal.Attributes[0].Name)
	assert.True(t, animal.Attributes[0].Identifier)

	lion := schema.Classes[1]
	assert.Equal(t, "Animal", lion.IsA)
	require.Len(t, lion.SlotUsage, 1)
	usage := lion.SlotUsage[0]
	assert.Equal(t, "diet", usage.Name)
	require.NotNil(t, usage.IfAbsent)
	assert.Equal(t, "Diet(CARNIVORE)", *usage.IfAbsent)
	require.NotNil(t, usage.Required)
	assert.False(t, *usage.Required)
	assert.Nil(t, usage.Range, "unset usage fields stay unset")
}

func TestCompileSchemaCUE_TypeErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"non-string range", `slots: x: range: 3`, "range"},
		{"non-bool multivalued", `slots: x: multivalued: "yes"`, "multivalued"},
		{"non-list slots", `classes: A: slots: "id"`, "slots"},
		{"non-string mixin", `classes: A: mixins: [1]`, "mixins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := cuecontext.New()
			v := ctx.CompileString("name: \"bad\"\n" + tt.src)
			require.NoError(t, v.Err())

			_, err := CompileSchemaCUE(v)
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileSchemaCUE_ConflictReportsPosition(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
name: "bad"
name: "worse"
`, cue.Filename("bad.cue"))

	_, err := CompileSchemaCUE(v)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
	assert.Contains(t, err.Error(), "bad.cue:")
}

func TestCompileSchemaCUE_CompilesToSameModelAsGo(t *testing.T) {
	ctx := cuecontext.New()
	schema, err := CompileSchemaCUE(ctx.CompileBytes(testutil.KitchenSinkCUE))
	require.NoError(t, err)

	fromCUE, err := Compile(schema)
	require.NoError(t, err)
	fromGo, err := Compile(testutil.KitchenSink())
	require.NoError(t, err)
	assert.Equal(t, fromGo.Hash(), fromCUE.Hash())
}
