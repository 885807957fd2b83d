package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemac/internal/compiler"
	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/store"
	"github.com/roach88/schemac/internal/testutil"
)

// runCommand executes cmd with args and returns what it wrote to stdout.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func kitchenSinkFile(t *testing.T) string {
	t.Helper()
	return testutil.WriteSchemaFile(t, "kitchen_sink.yaml", testutil.KitchenSinkYAML)
}

func TestCompileValidSchema(t *testing.T) {
	output, err := runCommand(t, NewCompileCommand(&RootOptions{Format: "text"}), kitchenSinkFile(t))
	require.NoError(t, err)

	assert.Contains(t, output, "✓ Compiled kitchen_sink:")
	assert.Contains(t, output, "4 enum(s)")
	assert.Contains(t, output, "  Company: 4 attribute(s), identifier id\n")
	assert.Contains(t, output, "  Thing: 2 attribute(s), identifier id, abstract\n")
	assert.Contains(t, output, "  EmploymentEventType: 4 value(s)\n")
	assert.Contains(t, output, "classes reference each other: Person, Company, EmploymentEvent, FamilialRelationship")
	assert.Contains(t, output, "Model hash: ")
}

func TestCompileCUESchema(t *testing.T) {
	yamlOut, err := runCommand(t, NewCompileCommand(&RootOptions{Format: "json"}), kitchenSinkFile(t))
	require.NoError(t, err)
	cuePath := testutil.WriteSchemaFile(t, "kitchen_sink.cue", testutil.KitchenSinkCUE)
	cueOut, err := runCommand(t, NewCompileCommand(&RootOptions{Format: "json"}), cuePath)
	require.NoError(t, err)

	var fromYAML, fromCUE struct {
		Data CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(yamlOut), &fromYAML))
	require.NoError(t, json.Unmarshal([]byte(cueOut), &fromCUE))
	assert.Equal(t, fromYAML.Data.Hash, fromCUE.Data.Hash, "both front-ends compile to the same model")
}

func TestCompileValidSchemaJSON(t *testing.T) {
	output, err := runCommand(t, NewCompileCommand(&RootOptions{Format: "json"}), kitchenSinkFile(t))
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "kitchen_sink", resp.Data.Name)
	assert.Len(t, resp.Data.Enums, 4)
	assert.Len(t, resp.Data.Warnings, 1)

	m, err := compiler.Compile(testutil.KitchenSink())
	require.NoError(t, err)
	assert.Equal(t, m.Hash(), resp.Data.Hash)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	output, err := runCommand(t, NewCompileCommand(&RootOptions{Format: "text"}),
		kitchenSinkFile(t), "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote compiled model to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Equal(t, "kitchen_sink", snapshot["name"])

	obj, err := ir.FromAny(snapshot)
	require.NoError(t, err)
	m, err := compiler.Compile(testutil.KitchenSink())
	require.NoError(t, err)
	assert.Equal(t, m.Hash(), ir.MustModelHash(obj.(ir.Object)), "the file holds the hashed content")
}

func TestCompileRecordsRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "schemac.db")
	schema := kitchenSinkFile(t)

	for i := 0; i < 2; i++ {
		output, err := runCommand(t, NewCompileCommand(&RootOptions{Format: "text"}), schema, "--db", dbPath)
		require.NoError(t, err)
		assert.Contains(t, output, "Recorded run ")
	}

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ReadRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2, "each compilation is a run")
	assert.Equal(t, runs[0].ModelHash, runs[1].ModelHash)
	assert.Less(t, runs[0].Seq, runs[1].Seq, "seq continues across invocations")
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
	assert.Equal(t, "kitchen_sink.yaml", runs[0].Source)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		wantCode string
		wantExit int
		wantOut  string
	}{
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.yaml") },
			wantCode: "E005",
			wantExit: ExitCommandError,
			wantOut:  "schema file not found",
		},
		{
			name:     "unsupported extension",
			path:     func(t *testing.T) string { return testutil.WriteSchemaFile(t, "schema.json", []byte("{}")) },
			wantCode: "E003",
			wantExit: ExitCommandError,
			wantOut:  "unsupported schema extension",
		},
		{
			name: "cyclic inheritance",
			path: func(t *testing.T) string {
				return testutil.WriteSchemaFile(t, "cyclic.yaml", []byte("name: cyclic\nclasses:\n  A:\n    is_a: B\n  B:\n    is_a: A\n"))
			},
			wantCode: "E201",
			wantExit: ExitFailure,
			wantOut:  "cyclic inheritance",
		},
		{
			name: "yaml syntax",
			path: func(t *testing.T) string {
				return testutil.WriteSchemaFile(t, "bad.yaml", []byte("name: bad\nclasses: [\n"))
			},
			wantCode: "E008",
			wantExit: ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := runCommand(t, NewCompileCommand(&RootOptions{Format: "text"}), tt.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantCode)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, output, "Error ["+tt.wantCode+"]")
			assert.Contains(t, output, tt.wantOut)
		})
	}
}
