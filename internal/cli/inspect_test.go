package cli

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectClass(t *testing.T) {
	output, err := runCommand(t, NewInspectCommand(&RootOptions{Format: "text"}), kitchenSinkFile(t), "Company")
	require.NoError(t, err)

	lines := strings.Split(output, "\n")
	assert.Equal(t, "class Company", lines[0])
	assert.Equal(t, "ancestors: Organization → HasAliases → Company", lines[1])
	assert.Equal(t, "identifier: id", lines[2])
	assert.Regexp(t, `^ATTRIBUTE\s+RANGE\s+KIND\s+MULTIVALUED\s+REQUIRED\s+DEFAULT\s+OWNER$`, lines[4])

	var names []string
	for _, line := range lines[5:] {
		if fields := strings.Fields(line); len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	assert.Equal(t, []string{"id", "name", "aliases", "ceo"}, names, "constructor order")
	assert.Regexp(t, `(?m)^ceo\s+Person\s+class_ref\s+false\s+false\s+-\s+Company$`, output)
}

func TestInspectClassJSON(t *testing.T) {
	output, err := runCommand(t, NewInspectCommand(&RootOptions{Format: "json"}), kitchenSinkFile(t), "MedicalEvent")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Name       string `json:"name"`
			Attributes []struct {
				Name string `json:"name"`
				Kind string `json:"kind"`
			} `json:"attributes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "MedicalEvent", resp.Data.Name)

	kinds := map[string]string{}
	for _, a := range resp.Data.Attributes {
		kinds[a.Name] = a.Kind
	}
	assert.Equal(t, "class_ref", kinds["in_location"])
	assert.Equal(t, "class_inlined", kinds["diagnosis"])
	assert.Equal(t, "primitive", kinds["started_at_time"])
}

func TestInspectEnum(t *testing.T) {
	output, err := runCommand(t, NewInspectCommand(&RootOptions{Format: "text"}), kitchenSinkFile(t), "EmploymentEventType")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(output, "enum EmploymentEventType\n"))
	assert.Contains(t, output, "  'HIRE'\n")
	assert.Contains(t, output, `import os\nprint(\'DELETING ALL YOUR STUFF. HA HA HA.\')`,
		"metadata is printed as an escaped literal")
}

func TestInspectEnumJSON(t *testing.T) {
	output, err := runCommand(t, NewInspectCommand(&RootOptions{Format: "json"}), kitchenSinkFile(t), "EmploymentEventType")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Values []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			} `json:"values"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Data.Values, 4)
	assert.Equal(t, "PROMOTION", resp.Data.Values[2].Name)
	assert.Equal(t,
		"This refers to some sort of promotion event.\")\n\n\nimport os\nprint('DELETING ALL YOUR STUFF. HA HA HA.')",
		resp.Data.Values[2].Description)
}

func TestInspectUnknownName(t *testing.T) {
	output, err := runCommand(t, NewInspectCommand(&RootOptions{Format: "text"}), kitchenSinkFile(t), "Nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, `Error [E011]: no class or enum named "Nope" in schema kitchen_sink`)
}
