package testutil

import (
	_ "embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/schemac/internal/ir"
)

// KitchenSinkYAML and KitchenSinkCUE are the KitchenSink schema written in
// the two supported source languages.
var (
	//go:embed testdata/kitchen_sink.yaml
	KitchenSinkYAML []byte

	//go:embed testdata/kitchen_sink.cue
	KitchenSinkCUE []byte
)

// PromotionDescription is enum metadata that looks like code. It must
// survive compilation and rendering as plain text.
const PromotionDescription = "This refers to some sort of promotion event.\")\n\n\nimport os\n" +
	"print('DELETING ALL YOUR STUFF. HA HA HA.')"

// KitchenSink returns a fresh schema exercising inheritance, mixins, slot
// usage, identified and inlined class ranges, enums with metadata and
// mutual references between classes.
//
// Each call returns an independent value; tests may modify it.
func KitchenSink() *ir.SchemaDefinition {
	str := ir.StrPtr
	yes := ir.BoolPtr(true)

	return &ir.SchemaDefinition{
		ID:   "https://w3id.org/example/kitchen_sink",
		Name: "kitchen_sink",
		Types: []ir.TypeDefinition{
			{Name: "PhoneNumber", Typeof: "string", Description: "a telephone number"},
			{Name: "AgeInYears", Typeof: "integer"},
		},
		Enums: []ir.EnumDefinition{
			{
				Name: "FamilialRelationshipType",
				PermissibleValues: []ir.PermissibleValue{
					{Name: "SIBLING_OF"},
					{Name: "PARENT_OF"},
					{Name: "CHILD_OF"},
				},
			},
			{
				Name: "EmploymentEventType",
				PermissibleValues: []ir.PermissibleValue{
					{Name: "HIRE"},
					{Name: "FIRE"},
					{Name: "PROMOTION", Description: PromotionDescription},
					{Name: "TRANSFER"},
				},
			},
			{
				Name: "CordialnessEnum",
				PermissibleValues: []ir.PermissibleValue{
					{Name: "heartfelt", Description: "warm and hearty friendliness"},
					{Name: "hateful", Description: "spiteful"},
					{Name: "indifferent", Description: "not overly friendly nor obnoxiously spiteful"},
				},
			},
			{
				Name: "LifeStatusEnum",
				PermissibleValues: []ir.PermissibleValue{
					{Name: "LIVING"},
					{Name: "DEAD"},
					{Name: "UNKNOWN", Meaning: "NCIT:C17998"},
				},
			},
		},
		Slots: []ir.SlotDefinition{
			{Name: "id", Identifier: true},
			{Name: "name"},
			{Name: "aliases", Multivalued: true},
			{Name: "ceo", Range: "Person"},
			{Name: "started_at_time", Range: "date"},
			{Name: "ended_at_time", Range: "date"},
			{Name: "is_current", Range: "boolean"},
			{Name: "metadata"},
			{Name: "employed_at", Range: "Company"},
			{Name: "in_location", Range: "Place"},
			{Name: "related_to"},
			{Name: "type"},
			{Name: "has_employment_history", Range: "EmploymentEvent", Multivalued: true},
			{Name: "has_familial_relationships", Range: "FamilialRelationship", Multivalued: true},
			{Name: "has_medical_history", Range: "MedicalEvent", Multivalued: true},
			{Name: "age_in_years", Range: "AgeInYears"},
			{Name: "addresses", Range: "Address", Multivalued: true},
			{Name: "has_birth_event", Range: "BirthEvent"},
			{Name: "species_name"},
			{Name: "stomach_count", Range: "integer"},
			{Name: "is_living", Range: "LifeStatusEnum"},
			{Name: "street"},
			{Name: "city"},
			{Name: "phone", Range: "PhoneNumber"},
			{Name: "in_code_system", Range: "CodeSystem"},
		},
		Classes: []ir.ClassDefinition{
			{Name: "HasAliases", Mixin: true, Slots: []string{"aliases"}},
			{Name: "Thing", Abstract: true, Slots: []string{"id", "name"}},
			{
				Name:   "Person",
				Mixins: []string{"HasAliases"},
				Slots: []string{
					"id", "name", "has_employment_history", "has_familial_relationships",
					"has_medical_history", "age_in_years", "addresses", "has_birth_event",
					"species_name", "stomach_count", "is_living",
				},
			},
			{Name: "Organization", Mixins: []string{"HasAliases"}, Slots: []string{"id", "name"}},
			{Name: "Company", IsA: "Organization", Slots: []string{"ceo"}},
			{Name: "Place", Mixins: []string{"HasAliases"}, Slots: []string{"id", "name"}},
			{Name: "Address", Slots: []string{"street", "city", "phone"}},
			{Name: "Concept", Abstract: true, Slots: []string{"id", "name", "in_code_system"}},
			{Name: "DiagnosisConcept", IsA: "Concept"},
			{Name: "ProcedureConcept", IsA: "Concept"},
			{Name: "CodeSystem", Slots: []string{"id", "name"}},
			{Name: "Event", Slots: []string{"started_at_time", "ended_at_time", "is_current", "metadata"}},
			{Name: "BirthEvent", IsA: "Event", Slots: []string{"in_location"}},
			{
				Name:  "EmploymentEvent",
				IsA:   "Event",
				Slots: []string{"employed_at", "type"},
				SlotUsage: []ir.SlotUsage{
					{Name: "type", Range: str("EmploymentEventType")},
				},
			},
			{
				Name:  "MedicalEvent",
				IsA:   "Event",
				Slots: []string{"in_location"},
				Attributes: []ir.SlotDefinition{
					{Name: "diagnosis", Range: "DiagnosisConcept", Inlined: yes},
					{Name: "procedure", Range: "ProcedureConcept", Inlined: yes},
				},
			},
			{Name: "Relationship", Slots: []string{"started_at_time", "ended_at_time", "related_to", "type"}},
			{
				Name: "FamilialRelationship",
				IsA:  "Relationship",
				SlotUsage: []ir.SlotUsage{
					{Name: "type", Range: str("FamilialRelationshipType"), Required: yes},
					{Name: "related_to", Range: str("Person"), Required: yes},
				},
				Attributes: []ir.SlotDefinition{
					{Name: "cordialness", Range: "CordialnessEnum"},
				},
			},
			{
				Name: "Dataset",
				Attributes: []ir.SlotDefinition{
					{Name: "persons", Range: "Person", Multivalued: true, Inlined: yes, InlinedAsList: yes},
					{Name: "companies", Range: "Company", Multivalued: true, Inlined: yes},
					{Name: "places", Range: "Place", Multivalued: true},
				},
			},
		},
	}
}

// WriteSchemaFile writes data to name inside a fresh temp directory and
// returns the file path.
func WriteSchemaFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
