package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemac/internal/compiler"
	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/model"
	"github.com/roach88/schemac/internal/testutil"
	"github.com/roach88/schemac/internal/types"
)

func kitchenSink(t *testing.T) *model.CompiledModel {
	t.Helper()
	m, err := compiler.Compile(testutil.KitchenSink())
	require.NoError(t, err)
	return m
}

func class(t *testing.T, m *model.CompiledModel, name string) *model.Class {
	t.Helper()
	c, ok := m.Class(name)
	require.True(t, ok, "class %s", name)
	return c
}

func TestRepresentation_KitchenSink(t *testing.T) {
	m := kitchenSink(t)

	c, err := class(t, m, "Company").New("ROR:1")
	require.NoError(t, err)
	assert.Equal(t, "Company(id='ROR:1', name=None, aliases=[], ceo=None)", c.String())

	h, err := class(t, m, "EmploymentEvent").New(nil, model.With("employed_at", c.ID()))
	require.NoError(t, err)
	assert.Equal(t,
		"EmploymentEvent(started_at_time=None, ended_at_time=None, is_current=None, "+
			"metadata=None, employed_at='ROR:1', type=None)",
		h.String())

	p, err := class(t, m, "Person").New("P:1", model.With("has_employment_history", []any{h}))
	require.NoError(t, err)
	assert.Equal(t, "P:1", p.ID())
	history := p.Get("has_employment_history").([]any)
	require.Len(t, history, 1)
	assert.Same(t, h, history[0])
	assert.Equal(t, c.ID(), history[0].(*model.Instance).Get("employed_at").(model.Ref).ID)
	assert.Equal(t,
		"Person(id='P:1', name=None, has_employment_history=[EmploymentEvent(started_at_time=None, "+
			"ended_at_time=None, is_current=None, metadata=None, employed_at='ROR:1', type=None)], "+
			"has_familial_relationships=[], has_medical_history=[], age_in_years=None, addresses=[], "+
			"has_birth_event=None, species_name=None, stomach_count=None, is_living=None, aliases=[])",
		p.String())

	f, err := class(t, m, "FamilialRelationship").New(nil,
		model.With("related_to", "me"),
		model.With("type", "SIBLING_OF"),
		model.With("cordialness", "heartfelt"))
	require.NoError(t, err)
	assert.Equal(t,
		"FamilialRelationship(started_at_time=None, ended_at_time=None, related_to='me', "+
			"type='SIBLING_OF', cordialness=(text='heartfelt', description='warm and hearty friendliness'))",
		f.String())

	diagnosis, err := class(t, m, "DiagnosisConcept").New("CODE:D0001", model.With("name", "headache"))
	require.NoError(t, err)
	event, err := class(t, m, "MedicalEvent").New(nil,
		model.With("in_location", "GEO:1234"),
		model.With("diagnosis", diagnosis))
	require.NoError(t, err)
	assert.Equal(t,
		"MedicalEvent(started_at_time=None, ended_at_time=None, is_current=None, "+
			"metadata=None, in_location='GEO:1234', diagnosis=DiagnosisConcept(id='CODE:D0001', "+
			"name='headache', in_code_system=None), procedure=None)",
		event.String())
}

// TestRepresentation_MetadataIsInert tests that enum metadata resembling
// code is kept byte for byte and rendered as an escaped literal.
func TestRepresentation_MetadataIsInert(t *testing.T) {
	m := kitchenSink(t)

	e, ok := m.Enum("EmploymentEventType")
	require.True(t, ok)
	promotion, ok := e.Value("PROMOTION")
	require.True(t, ok)
	assert.Equal(t,
		"This refers to some sort of promotion event.\")\n\n\nimport os\n"+
			"print('DELETING ALL YOUR STUFF. HA HA HA.')",
		promotion.Description)

	h, err := class(t, m, "EmploymentEvent").New(nil, model.With("type", "PROMOTION"))
	require.NoError(t, err)
	assert.Equal(t,
		`EmploymentEvent(started_at_time=None, ended_at_time=None, is_current=None, metadata=None, `+
			`employed_at=None, type=(text='PROMOTION', description='This refers to some sort of promotion event.")`+
			`\n\n\nimport os\nprint(\'DELETING ALL YOUR STUFF. HA HA HA.\')'))`,
		h.String())
	assert.Same(t, promotion, h.Get("type"))
}

func TestRepresentation_Deterministic(t *testing.T) {
	build := func() string {
		m := kitchenSink(t)
		addr := map[string]any{"street": "1 foo street", "city": "foo city"}
		p, err := class(t, m, "Person").New("P:2",
			model.With("name", "Ann"),
			model.With("addresses", []any{addr}),
			model.With("age_in_years", 33),
			model.With("is_living", "LIVING"),
			model.With("aliases", "Annie"))
		require.NoError(t, err)
		return p.String()
	}

	first := build()
	assert.Equal(t, first, build())
	assert.Equal(t,
		"Person(id='P:2', name='Ann', has_employment_history=[], has_familial_relationships=[], "+
			"has_medical_history=[], age_in_years=33, addresses=[Address(street='1 foo street', "+
			"city='foo city', phone=None)], has_birth_event=None, species_name=None, stomach_count=None, "+
			"is_living='LIVING', aliases=['Annie'])",
		first)
}

func TestConstruct_Coercion(t *testing.T) {
	m := kitchenSink(t)
	person := class(t, m, "Person")
	event := class(t, m, "EmploymentEvent")

	p, err := person.New("P:1",
		model.With("age_in_years", "42"),
		model.With("stomach_count", json.Number("4")),
		model.With("aliases", []string{"a", "b"}))
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.Get("age_in_years"))
	assert.Equal(t, int64(4), p.Get("stomach_count"))
	assert.Equal(t, []any{"a", "b"}, p.Get("aliases"))

	h, err := event.New(nil,
		model.With("started_at_time", "2020-03-01"),
		model.With("is_current", "true"))
	require.NoError(t, err)
	require.IsType(t, types.Date{}, h.Get("started_at_time"))
	assert.Equal(t, true, h.Get("is_current"))
	assert.Contains(t, h.String(), "started_at_time='2020-03-01'")
	assert.Contains(t, h.String(), "is_current=True")

	_, err = person.New("P:1", model.With("age_in_years", "4.5"))
	var ce *model.TypeCoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Person", ce.Class)
	assert.Equal(t, "age_in_years", ce.Attribute)
	assert.Equal(t, "AgeInYears", ce.Range)
	assert.True(t, model.IsCoercionError(err))
	assert.Equal(t, model.ErrCodeTypeCoercion, model.ErrorCode(err))

	_, err = person.New("P:1", model.With("is_living", "UNDEAD"))
	assert.True(t, model.IsCoercionError(err))
}

func TestConstruct_ClassRanges(t *testing.T) {
	m := kitchenSink(t)
	company := class(t, m, "Company")
	event := class(t, m, "EmploymentEvent")

	acme, err := company.New("ROR:1", model.With("name", "Acme"))
	require.NoError(t, err)

	h, err := event.New(nil, model.With("employed_at", acme))
	require.NoError(t, err)
	ref := h.Get("employed_at").(model.Ref)
	assert.Equal(t, "ROR:1", ref.ID)
	assert.Same(t, acme, ref.Target)
	assert.Contains(t, h.String(), "employed_at='ROR:1'")

	h, err = event.New(nil, model.With("employed_at", map[string]any{"id": "ROR:9", "name": "Nine"}))
	require.NoError(t, err)
	ref = h.Get("employed_at").(model.Ref)
	assert.Equal(t, "ROR:9", ref.ID)
	require.NotNil(t, ref.Target)
	assert.Equal(t, "Nine", ref.Target.Get("name"))

	person, err := class(t, m, "Person").New("P:1")
	require.NoError(t, err)
	_, err = event.New(nil, model.With("employed_at", person))
	assert.True(t, model.IsCoercionError(err), "a Person is not a Company")

	other := kitchenSink(t)
	foreign, err := class(t, other, "Company").New("ROR:1")
	require.NoError(t, err)
	_, err = event.New(nil, model.With("employed_at", foreign))
	assert.True(t, model.IsCoercionError(err), "instances do not cross compiled models")

	_, err = class(t, m, "MedicalEvent").New(nil, model.With("diagnosis", "CODE:1"))
	require.NoError(t, err, "an identifier constructs an inlined identified object")

	_, err = class(t, m, "Person").New("P:1", model.With("has_birth_event", "B:1"))
	assert.True(t, model.IsCoercionError(err), "a string cannot stand for an object without identifier")
}

// TestConstruct_DescendantInstance tests that a slot accepts instances of
// subclasses of its range.
func TestConstruct_DescendantInstance(t *testing.T) {
	schema := &ir.SchemaDefinition{
		Name:  "zoo",
		Slots: []ir.SlotDefinition{{Name: "id", Identifier: true}},
		Classes: []ir.ClassDefinition{
			{Name: "Animal", Slots: []string{"id"}},
			{Name: "Dog", IsA: "Animal"},
			{Name: "Keeper", Attributes: []ir.SlotDefinition{
				{Name: "favorite", Range: "Animal"},
				{Name: "pets", Range: "Animal", Multivalued: true, Inlined: ir.BoolPtr(false)},
			}},
		},
	}
	m, err := compiler.Compile(schema)
	require.NoError(t, err)

	rex, err := class(t, m, "Dog").New("D:1")
	require.NoError(t, err)
	k, err := class(t, m, "Keeper").New(nil,
		model.With("favorite", rex),
		model.With("pets", []any{rex, "A:7"}))
	require.NoError(t, err)
	assert.Equal(t, "Keeper(favorite='D:1', pets=['D:1', 'A:7'])", k.String())
}

func TestConstruct_Errors(t *testing.T) {
	m := kitchenSink(t)

	_, err := class(t, m, "Company").New(nil)
	var mi *model.MissingIdentifierError
	require.ErrorAs(t, err, &mi)
	assert.Equal(t, "Company", mi.Class)
	assert.Equal(t, "id", mi.Identifier)

	_, err = class(t, m, "Address").New("A:1")
	assert.True(t, model.IsCoercionError(err))

	_, err = class(t, m, "Company").New("ROR:1", model.With("founded", 1999))
	var ua *model.UnknownAttributeError
	require.ErrorAs(t, err, &ua)
	assert.Equal(t, "founded", ua.Attribute)

	_, err = class(t, m, "FamilialRelationship").New(nil, model.With("type", "PARENT_OF"))
	var mr *model.MissingRequiredError
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, "related_to", mr.Attribute)

	_, err = class(t, m, "Concept").New("C:1")
	assert.True(t, model.IsAbstractClass(err))
	assert.Equal(t, model.ErrCodeAbstractClass, model.ErrorCode(err))

	_, err = class(t, m, "Company").New("ROR:1", model.With("id", "ROR:2"))
	assert.True(t, model.IsCoercionError(err))

	c, err := class(t, m, "Company").New(nil, model.With("id", "ROR:2"), model.With("name", nil))
	require.NoError(t, err)
	assert.Equal(t, "ROR:2", c.ID())
	assert.Nil(t, c.Get("name"))
}

func TestNewFromMap(t *testing.T) {
	m := kitchenSink(t)

	p, err := class(t, m, "Person").NewFromMap(map[string]any{
		"id":        "P:2",
		"addresses": []any{map[string]any{"street": "1 foo street", "city": "foo city"}},
		"has_birth_event": map[string]any{
			"started_at_time": "1981-01-01",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "P:2", p.ID())
	birth := p.Get("has_birth_event").(*model.Instance)
	assert.Equal(t, "BirthEvent", birth.Class().Name())

	_, err = class(t, m, "Person").NewFromMap(map[string]any{"id": "P:3", "zzz": 1, "aaa": 2})
	var ua *model.UnknownAttributeError
	require.ErrorAs(t, err, &ua)
	assert.Equal(t, "aaa", ua.Attribute, "unknown keys are reported in sorted order")
}

// TestConstruct_KeyedCollection tests that a mapping keyed by identifier
// builds one inlined object per key.
func TestConstruct_KeyedCollection(t *testing.T) {
	m := kitchenSink(t)

	d, err := class(t, m, "Dataset").New(nil, model.With("companies", map[string]any{
		"ROR:2": map[string]any{"name": "Beta"},
		"ROR:1": nil,
	}))
	require.NoError(t, err)

	companies := d.Get("companies").([]any)
	require.Len(t, companies, 2)
	assert.Equal(t, "ROR:1", companies[0].(*model.Instance).ID())
	assert.Equal(t, "ROR:2", companies[1].(*model.Instance).ID())
	assert.Equal(t, "Beta", companies[1].(*model.Instance).Get("name"))

	d, err = class(t, m, "Dataset").New(nil, model.With("companies", map[string]any{"id": "ROR:3"}))
	require.NoError(t, err)
	assert.Len(t, d.Get("companies").([]any), 1, "a mapping holding the identifier is one object")
}

func TestConstruct_Defaults(t *testing.T) {
	schema := &ir.SchemaDefinition{
		Name: "defaults",
		Enums: []ir.EnumDefinition{
			{Name: "Size", PermissibleValues: []ir.PermissibleValue{{Name: "S"}, {Name: "M", Description: "medium"}}},
		},
		Classes: []ir.ClassDefinition{
			{Name: "Shirt", Attributes: []ir.SlotDefinition{
				{Name: "id", Identifier: true},
				{Name: "size", Range: "Size", IfAbsent: "Size(M)"},
				{Name: "count", Range: "integer", IfAbsent: "int(1)"},
				{Name: "kind", IfAbsent: "class_name"},
				{Name: "washed", Range: "date", IfAbsent: `date("2020-01-01")`},
				{Name: "tags", Multivalued: true, IfAbsent: "string(new)"},
			}},
		},
	}
	m, err := compiler.Compile(schema)
	require.NoError(t, err)

	s, err := class(t, m, "Shirt").New("S:1")
	require.NoError(t, err)
	assert.Equal(t,
		"Shirt(id='S:1', size=(text='M', description='medium'), count=1, kind='Shirt', "+
			"washed='2020-01-01', tags=['new'])",
		s.String())

	s, err = class(t, m, "Shirt").New("S:2", model.With("count", 3), model.With("size", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Get("count"))
	assert.Equal(t, "M", s.Get("size").(*model.EnumValue).Name, "nil arguments keep the default")
}

func TestInstance_Set(t *testing.T) {
	m := kitchenSink(t)
	c, err := class(t, m, "Company").New("ROR:1")
	require.NoError(t, err)

	require.NoError(t, c.Set("name", "Acme"))
	require.NoError(t, c.Set("aliases", "ACME Corp"))
	assert.Equal(t, "Company(id='ROR:1', name='Acme', aliases=['ACME Corp'], ceo=None)", c.String())

	assert.True(t, model.IsMissingIdentifier(c.Set("id", nil)))
	assert.True(t, model.IsUnknownAttribute(c.Set("nope", 1)))
	assert.True(t, model.IsCoercionError(c.Set("ceo", c)))
	assert.Equal(t, "ROR:1", c.ID(), "failed updates leave the instance unchanged")

	fields := c.Fields()
	require.Len(t, fields, 4)
	assert.Equal(t, "aliases", fields[2].Name)

	_, ok := c.Lookup("nope")
	assert.False(t, ok)
}

func TestInstance_ToObject(t *testing.T) {
	m := kitchenSink(t)
	h, err := class(t, m, "EmploymentEvent").New(nil,
		model.With("employed_at", "ROR:1"),
		model.With("type", "HIRE"),
		model.With("started_at_time", "2019-05-01"))
	require.NoError(t, err)
	p, err := class(t, m, "Person").New("P:1",
		model.With("has_employment_history", h),
		model.With("age_in_years", 40))
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "P:1",
		"age_in_years": 40,
		"aliases": [],
		"addresses": [],
		"has_familial_relationships": [],
		"has_medical_history": [],
		"has_employment_history": [
			{"employed_at": "ROR:1", "type": "HIRE", "started_at_time": "2019-05-01"}
		]
	}`, string(data))
}

func TestEnum_Lookup(t *testing.T) {
	m := kitchenSink(t)
	e, ok := m.Enum("CordialnessEnum")
	require.True(t, ok)

	byName, err := e.Lookup("hateful")
	require.NoError(t, err)
	again, _ := e.Value("hateful")
	assert.Same(t, byName, again, "enum values are singletons")
	assert.Same(t, e, byName.Enum())
	assert.Equal(t, "(text='hateful', description='spiteful')", byName.String())

	other, _ := m.Enum("LifeStatusEnum")
	unknown, _ := other.Value("UNKNOWN")
	assert.Equal(t, "(text='UNKNOWN', meaning='NCIT:C17998')", unknown.String())
	dead, _ := other.Value("DEAD")
	assert.Equal(t, "'DEAD'", dead.String())

	_, err = e.Lookup(unknown)
	assert.Error(t, err, "values of another enum are rejected")
	_, err = e.Lookup(12)
	assert.Error(t, err)
}

func TestCompiledModel_Registry(t *testing.T) {
	m := kitchenSink(t)

	_, ok := m.Class("Nope")
	assert.False(t, ok)
	_, ok = m.Enum("Nope")
	assert.False(t, ok)

	company := class(t, m, "Company")
	assert.True(t, company.IsA("Organization"))
	assert.True(t, company.IsA("HasAliases"))
	assert.False(t, company.IsA("Person"))
	assert.Equal(t, m, company.Model())
	assert.Equal(t, []string{"id", "name", "aliases", "ceo"}, company.Resolved().AttributeNames())

	snap := m.Snapshot()
	assert.Equal(t, ir.String("kitchen_sink"), snap["name"])
	hash, err := ir.ModelHash(snap)
	require.NoError(t, err)
	assert.Equal(t, m.Hash(), hash)
}
