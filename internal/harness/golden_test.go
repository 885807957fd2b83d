package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSnapshot(t *testing.T) {
	result := NewResult()
	result.ModelHash = "model-hash"
	result.RunID = "test-run"
	result.Steps = []StepResult{
		{Name: "a", Repr: "Company(id='ROR:1')", ObjectID: "object-hash", Seq: 2},
		{Name: "b", ErrorCode: "E304", Error: "cannot instantiate"},
	}

	data, err := MarshalSnapshot("demo", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"run_id":"test-run","scenario_name":"demo","steps":[{"name":"a","repr":"Company(id='ROR:1')","seq":2},`+
			`{"error_code":"E304","name":"b"}]}`,
		string(data))
	assert.NotContains(t, string(data), "hash", "snapshots leave content hashes out")
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	result := NewResult()
	result.RunID = "r"
	result.Warnings = []string{"classes reference each other: A, B"}
	result.Steps = []StepResult{{Name: "a", Repr: "A()"}}

	first, err := MarshalSnapshot("demo", result)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalSnapshot("demo", result)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Contains(t, string(first), `"warnings":["classes reference each other: A, B"]`)
}
