package compiler

import (
	"bytes"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/model"
	"github.com/roach88/schemac/internal/testutil"
)

func classNames(m *model.CompiledModel) []string {
	var out []string
	for _, c := range m.Classes() {
		out = append(out, c.Name())
	}
	return out
}

func TestCompile_KitchenSink(t *testing.T) {
	m, err := Compile(testutil.KitchenSink())
	require.NoError(t, err)

	assert.Equal(t, "kitchen_sink", m.Name())
	assert.Len(t, m.Classes(), len(testutil.KitchenSink().Classes))
	assert.Len(t, m.Enums(), 4)
	assert.NotEmpty(t, m.Hash())

	company, ok := m.Class("Company")
	require.True(t, ok)
	assert.Equal(t, "id", company.Identifier())
	ceo, ok := company.Attribute("ceo")
	require.True(t, ok)
	assert.Equal(t, ir.RangeClassIdentified, ceo.Kind)
	assert.Same(t, mustClass(t, m, "Person"), ceo.RangeClass())

	person := mustClass(t, m, "Person")
	addresses, _ := person.Attribute("addresses")
	assert.Equal(t, ir.RangeClassInlined, addresses.Kind)
	assert.True(t, addresses.InlinedAsList)
	living, _ := person.Attribute("is_living")
	assert.Equal(t, ir.RangeEnum, living.Kind)
	assert.Equal(t, "LifeStatusEnum", living.RangeEnum().Name())
	age, _ := person.Attribute("age_in_years")
	assert.Equal(t, "AgeInYears", age.RangeType().Name)

	dataset := mustClass(t, m, "Dataset")
	companies, _ := dataset.Attribute("companies")
	assert.Equal(t, ir.RangeClassInlined, companies.Kind)
	assert.False(t, companies.InlinedAsList, "identified inlined collections default to keyed form")
}

func mustClass(t *testing.T, m *model.CompiledModel, name string) *model.Class {
	t.Helper()
	c, ok := m.Class(name)
	require.True(t, ok, "class %s", name)
	return c
}

// TestCompile_EmissionOrder tests that every class is emitted after its
// ancestors and referenced classes, unless they reference each other.
func TestCompile_EmissionOrder(t *testing.T) {
	m, err := Compile(testutil.KitchenSink())
	require.NoError(t, err)

	order := classNames(m)
	cycleOf := map[string]int{}
	for i, w := range m.Warnings() {
		for _, n := range w.Members {
			cycleOf[n] = i + 1
		}
	}
	sameCycle := func(a, b string) bool { return cycleOf[a] != 0 && cycleOf[a] == cycleOf[b] }

	pos := func(name string) int { return slices.Index(order, name) }
	for _, c := range m.Classes() {
		for _, anc := range c.Ancestors() {
			assert.LessOrEqual(t, pos(anc), pos(c.Name()), "%s before %s", anc, c.Name())
		}
		for _, a := range c.Attributes() {
			if !a.Kind.IsClass() || sameCycle(a.Range, c.Name()) {
				continue
			}
			assert.Less(t, pos(a.Range), pos(c.Name()), "%s before %s", a.Range, c.Name())
		}
	}
}

func TestCompile_ReferenceCycles(t *testing.T) {
	m, err := Compile(testutil.KitchenSink())
	require.NoError(t, err)

	warnings := m.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"Person", "Company", "EmploymentEvent", "FamilialRelationship"}, warnings[0].Members)
	assert.Equal(t, []string{"Person", "EmploymentEvent", "Company", "Person"}, warnings[0].Path)
	assert.Equal(t,
		"classes reference each other: Person, Company, EmploymentEvent, FamilialRelationship",
		warnings[0].Message)
}

// TestCompile_Deterministic tests that repeated and parallel compilations
// of the same schema produce the same model.
func TestCompile_Deterministic(t *testing.T) {
	first, err := Compile(testutil.KitchenSink(), WithWorkers(1))
	require.NoError(t, err)

	for _, workers := range []int{0, 2, 8, 64} {
		m, err := Compile(testutil.KitchenSink(), WithWorkers(workers))
		require.NoError(t, err)
		assert.Equal(t, first.Hash(), m.Hash(), "workers=%d", workers)
		assert.Equal(t, classNames(first), classNames(m))
	}
}

func TestCompile_FreshModels(t *testing.T) {
	a, err := Compile(testutil.KitchenSink())
	require.NoError(t, err)
	b, err := Compile(testutil.KitchenSink())
	require.NoError(t, err)

	ca, cb := mustClass(t, a, "Company"), mustClass(t, b, "Company")
	assert.NotSame(t, ca, cb)
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestCompile_HashChangesWithSchema(t *testing.T) {
	base, err := Compile(testutil.KitchenSink())
	require.NoError(t, err)

	changed := testutil.KitchenSink()
	changed.Enums[2].PermissibleValues[0].Description = "lukewarm"
	m, err := Compile(changed)
	require.NoError(t, err)
	assert.NotEqual(t, base.Hash(), m.Hash())
}

// TestCompile_FirstErrorInDeclarationOrder tests that with several broken
// classes the reported error does not depend on worker scheduling.
func TestCompile_FirstErrorInDeclarationOrder(t *testing.T) {
	schema := &ir.SchemaDefinition{
		Name: "broken",
		Classes: []ir.ClassDefinition{
			{Name: "Ok"},
			{Name: "First", Attributes: []ir.SlotDefinition{{Name: "x", Range: "Missing1"}}},
			{Name: "Second", Attributes: []ir.SlotDefinition{{Name: "y", Range: "Missing2"}}},
		},
	}

	for _, workers := range []int{1, 4} {
		m, err := Compile(schema, WithWorkers(workers))
		assert.Nil(t, m)
		var ue *UnresolvedReferenceError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "First", ue.Class)
		assert.Equal(t, "Missing1", ue.Ref)
	}
}

func TestCompile_SchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema *ir.SchemaDefinition
		code   string
	}{
		{
			name: "cyclic inheritance",
			schema: &ir.SchemaDefinition{Name: "s", Classes: []ir.ClassDefinition{
				{Name: "A", IsA: "B"}, {Name: "B", IsA: "A"},
			}},
			code: ErrCodeCyclicInheritance,
		},
		{
			name: "duplicate enum value",
			schema: &ir.SchemaDefinition{Name: "s", Enums: []ir.EnumDefinition{
				{Name: "E", PermissibleValues: []ir.PermissibleValue{{Name: "A"}, {Name: "A"}}},
			}},
			code: ErrCodeDuplicateEnumValue,
		},
		{
			name: "duplicate class",
			schema: &ir.SchemaDefinition{Name: "s", Classes: []ir.ClassDefinition{
				{Name: "A"}, {Name: "A"},
			}},
			code: ErrCodeDuplicateDefinition,
		},
		{
			name: "class named like enum",
			schema: &ir.SchemaDefinition{
				Name:    "s",
				Enums:   []ir.EnumDefinition{{Name: "A"}},
				Classes: []ir.ClassDefinition{{Name: "A"}},
			},
			code: ErrCodeDuplicateDefinition,
		},
		{
			name: "type shadows builtin",
			schema: &ir.SchemaDefinition{Name: "s", Types: []ir.TypeDefinition{
				{Name: "string", Typeof: "integer"},
			}},
			code: ErrCodeDuplicateDefinition,
		},
		{
			name: "typeof cycle",
			schema: &ir.SchemaDefinition{Name: "s", Types: []ir.TypeDefinition{
				{Name: "T1", Typeof: "T2"}, {Name: "T2", Typeof: "T1"},
			}},
			code: ErrCodeCyclicInheritance,
		},
		{
			name: "unknown typeof",
			schema: &ir.SchemaDefinition{Name: "s", Types: []ir.TypeDefinition{
				{Name: "T1", Typeof: "nothing"},
			}},
			code: ErrCodeUnresolvedReference,
		},
		{
			name: "unused slot with unknown range",
			schema: &ir.SchemaDefinition{Name: "s", Slots: []ir.SlotDefinition{
				{Name: "x", Range: "Nowhere"},
			}},
			code: ErrCodeUnresolvedReference,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compile(tt.schema)
			assert.Nil(t, m, "no partial model on error")
			require.Error(t, err)
			assert.Equal(t, tt.code, ErrorCode(err), err.Error())
		})
	}
}

func TestCompile_LogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Compile(testutil.KitchenSink(), WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "compiling schema")
	assert.Contains(t, out, "class=Company")
	assert.Contains(t, out, "reference cycle")
}

func TestCompile_ClassRequiresMixinAttribute(t *testing.T) {
	m, err := Compile(mixinOverlapSchema())
	require.NoError(t, err)

	c, ok := m.Class("C")
	require.True(t, ok)
	_, err = c.New(nil)
	assert.True(t, model.IsMissingRequired(err), "label is required on C: %v", err)

	inst, err := c.New(nil, model.With("label", "x"))
	require.NoError(t, err)
	assert.Equal(t, "x", inst.Get("label"))
}
