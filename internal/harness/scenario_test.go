package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemac/internal/testutil"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.yaml"), testutil.KitchenSinkYAML, 0644))
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test_scenario
description: "Test scenario for validation"
schema: schema.yaml
steps:
  - name: acme
    construct:
      class: Company
      id: "ROR:1"
      args:
        name: Acme
  - name: ann
    load:
      class: Person
      file: payloads/ann.json
assertions:
  - type: stored_count
    class: Company
    count: 0
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	scenario, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "schema.yaml"), scenario.Schema)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, "Company", scenario.Steps[0].Construct.Class)
	assert.Equal(t, "ROR:1", scenario.Steps[0].Construct.ID)
	assert.Equal(t, "Acme", scenario.Steps[0].Construct.Args["name"])
	assert.Equal(t, filepath.Join(dir, "payloads", "ann.json"), scenario.Steps[1].Load.File)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
name: s
description: d
schema: nowhere.yaml
steps:
  - name: a
    construct: { class: Company, id: "ROR:1" }
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")
}

func TestParseScenario_Invalid(t *testing.T) {
	const header = "name: s\ndescription: d\nschema: k.yaml\n"

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing name", "description: d\nschema: k.yaml\nsteps: [{name: a, construct: {class: C}}]", "name is required"},
		{"missing schema", "name: s\ndescription: d\nsteps: [{name: a, construct: {class: C}}]", "schema is required"},
		{"no steps", header, "steps list is required"},
		{"unknown field", header + "steps: [{name: a, construct: {class: C}}]\nflow: []", "field flow not found"},
		{"step without name", header + "steps: [{construct: {class: C}}]", "steps[0]: name is required"},
		{"duplicate step", header + "steps: [{name: a, construct: {class: C}}, {name: a, construct: {class: C}}]", "duplicate step name"},
		{"no action", header + "steps: [{name: a}]", "construct or load is required"},
		{"both actions", header + "steps: [{name: a, construct: {class: C}, load: {class: C, payload: {}}}]", "mutually exclusive"},
		{"load without payload", header + "steps: [{name: a, load: {class: C}}]", "exactly one of payload and file"},
		{"expect and error", header + "steps: [{name: a, construct: {class: C}, expect: x, expect_error: E304}]", "expect and expect_error"},
		{"storing a failure", header + "steps: [{name: a, construct: {class: C}, expect_error: E304, store: true}]", "cannot be stored"},
		{"unknown assertion", header + "steps: [{name: a, construct: {class: C}}]\nassertions: [{type: nope, class: C}]", "unknown assertion type"},
		{"object without id", header + "steps: [{name: a, construct: {class: C}}]\nassertions: [{type: stored_object, class: C}]", "id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
