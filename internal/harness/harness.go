package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/schemac/internal/compiler"
	"github.com/roach88/schemac/internal/loader"
	"github.com/roach88/schemac/internal/model"
	"github.com/roach88/schemac/internal/source"
	"github.com/roach88/schemac/internal/store"
	"github.com/roach88/schemac/internal/testutil"
)

// Harness executes scenario steps against one compiled model.
type Harness struct {
	store  *store.Store
	model  *model.CompiledModel
	loader *loader.Loader
	clock  *testutil.DeterministicClock
	logger *slog.Logger
	built  map[string]*model.Instance
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Load and compile the schema
// 2. Record the compilation run in a fresh in-memory database
// 3. Execute steps, checking expect and expect_error clauses
// 4. Evaluate assertions against the stored objects
//
// Step and assertion mismatches fail the result; an error is returned only
// when the scenario cannot run at all (unreadable or invalid schema).
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with Debug level step records sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	schema, err := source.Load(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	m, err := compiler.Compile(schema, compiler.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		model:  m,
		loader: loader.New(m, loader.WithLogger(logger)),
		clock:  testutil.NewDeterministicClock(),
		logger: logger,
		built:  make(map[string]*model.Instance),
	}

	ctx := context.Background()
	runs := testutil.NewFixedRunIDGenerator(scenario.RunID)
	run, err := st.WriteModel(ctx, store.Run{
		ID:     runs.Generate(),
		Source: filepath.Base(scenario.Schema),
		Seq:    h.clock.Next(),
	}, m)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	result := NewResult()
	result.ModelHash = run.ModelHash
	result.RunID = run.ID
	result.Warnings = run.Warnings

	for _, step := range scenario.Steps {
		h.executeStep(ctx, step, result)
	}

	for _, msg := range EvaluateAssertions(ctx, st, m.Hash(), scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep builds one object and records the outcome.
func (h *Harness) executeStep(ctx context.Context, step Step, result *Result) {
	sr := StepResult{Name: step.Name}
	defer func() { result.Steps = append(result.Steps, sr) }()

	inst, err := h.build(step)
	if err != nil {
		sr.ErrorCode = errorCode(err)
		sr.Error = err.Error()
		switch {
		case step.ExpectError == "":
			result.AddError(fmt.Sprintf("step %s: unexpected error: %v", step.Name, err))
		case !matchesError(err, step.ExpectError):
			result.AddError(fmt.Sprintf("step %s: expected error %q, got: %v", step.Name, step.ExpectError, err))
		}
		h.logger.Debug("step failed", "step", step.Name, "error", err)
		return
	}

	sr.Repr = inst.String()
	h.built[step.Name] = inst

	if step.ExpectError != "" {
		result.AddError(fmt.Sprintf("step %s: expected error %q, got %s", step.Name, step.ExpectError, sr.Repr))
	}
	if step.Expect != "" && sr.Repr != step.Expect {
		result.AddError(fmt.Sprintf("step %s: representation mismatch\n  expected: %s\n  actual:   %s",
			step.Name, step.Expect, sr.Repr))
	}

	if step.Store {
		seq := h.clock.Next()
		id, err := h.store.WriteObject(ctx, h.model.Hash(), inst, seq)
		if err != nil {
			result.AddError(fmt.Sprintf("step %s: store: %v", step.Name, err))
			return
		}
		sr.ObjectID = id
		sr.Seq = seq
	}

	h.logger.Debug("step completed", "step", step.Name, "class", inst.Class().Name())
}

func (h *Harness) build(step Step) (*model.Instance, error) {
	if cs := step.Construct; cs != nil {
		c, ok := h.model.Class(cs.Class)
		if !ok {
			return nil, fmt.Errorf("unknown class %q", cs.Class)
		}
		names := make([]string, 0, len(cs.Args))
		for name := range cs.Args {
			names = append(names, name)
		}
		sort.Strings(names)

		args := make([]model.Arg, 0, len(names))
		for _, name := range names {
			v, err := h.resolveRefs(cs.Args[name])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			args = append(args, model.With(name, v))
		}
		return c.New(cs.ID, args...)
	}

	ls := step.Load
	if ls.File == "" {
		return h.loader.Load(ls.Class, ls.Payload)
	}
	data, err := os.ReadFile(ls.File)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if strings.EqualFold(filepath.Ext(ls.File), ".json") {
		return h.loader.LoadJSON(ls.Class, data)
	}
	return h.loader.LoadYAML(ls.Class, data)
}

// resolveRefs replaces "$name" strings with the instance built by the step
// called name.
func (h *Harness) resolveRefs(v any) (any, error) {
	switch val := v.(type) {
	case string:
		name, ok := strings.CutPrefix(val, "$")
		if !ok {
			return val, nil
		}
		inst, ok := h.built[name]
		if !ok {
			return nil, fmt.Errorf("no earlier step named %q", name)
		}
		return inst, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			r, err := h.resolveRefs(elem)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// errorCode returns the code carried by any coded error in err's chain.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// matchesError reports whether err has the expected code or mentions it.
func matchesError(err error, expected string) bool {
	return errorCode(err) == expected || strings.Contains(err.Error(), expected)
}
