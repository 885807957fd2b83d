package cli

import (
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemac/internal/testutil"
)

// brokenSchema has three independent problems.
const brokenSchema = `
name: broken
enums:
  Size:
    permissible_values:
      S:
      M:
classes:
  A:
    is_a: B
  B:
    is_a: A
  C:
    attributes:
      size:
        range: Sizes
      count:
        range: integer
        ifabsent: int(x)
`

func TestValidateValidSchema(t *testing.T) {
	output, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), kitchenSinkFile(t))
	require.NoError(t, err)
	assert.Equal(t, "✓ Schema kitchen_sink is valid\n", output)
}

func TestValidateValidSchemaJSON(t *testing.T) {
	output, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "json"}), kitchenSinkFile(t))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
}

func TestValidateReportsAllErrors(t *testing.T) {
	path := testutil.WriteSchemaFile(t, "broken.yaml", []byte(brokenSchema))

	output, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, "E201: ")
	assert.Contains(t, output, "E202: ")
	assert.Contains(t, output, "E207: ")
}

func TestValidateReportsAllErrorsJSON(t *testing.T) {
	path := testutil.WriteSchemaFile(t, "broken.yaml", []byte(brokenSchema))

	output, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)

	codes := map[string]bool{}
	for _, e := range resp.Data.Errors {
		codes[e.Code] = true
	}
	assert.True(t, codes["E201"], "cyclic inheritance in %v", resp.Data.Errors)
	assert.True(t, codes["E202"], "unresolved range in %v", resp.Data.Errors)
	assert.True(t, codes["E207"], "invalid default in %v", resp.Data.Errors)
}

func TestValidateParseErrorLocation(t *testing.T) {
	path := testutil.WriteSchemaFile(t, "typo.yaml", []byte("name: typo\nclases:\n  A:\n"))

	output, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, path+":2\n")
	assert.Contains(t, output, "E008: ")
}

func TestValidateMissingFile(t *testing.T) {
	output, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "text"}),
		filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "Error [E005]")
}

func TestValidateSchema(t *testing.T) {
	errs, err := ValidateSchema(kitchenSinkFile(t))
	require.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = ValidateSchema(testutil.WriteSchemaFile(t, "broken.yaml", []byte(brokenSchema)))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(errs), 3)

	_, err = ValidateSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
