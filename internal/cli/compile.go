package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/schemac/internal/compiler"
	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/model"
	"github.com/roach88/schemac/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output  string // output file path
	DB      string // database to record the compilation run in
	Workers int    // parallel class resolution
}

// CompilationResult summarizes a compiled model.
type CompilationResult struct {
	Name     string         `json:"name"`
	Hash     string         `json:"hash"`
	Classes  []ClassSummary `json:"classes"`
	Enums    []EnumSummary  `json:"enums"`
	Warnings []string       `json:"warnings,omitempty"`
	RunID    string         `json:"run_id,omitempty"`
}

// ClassSummary is one class line of the compile summary.
type ClassSummary struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier,omitempty"`
	Abstract   bool   `json:"abstract,omitempty"`
	Attributes int    `json:"attributes"`
}

// EnumSummary is one enum line of the compile summary.
type EnumSummary struct {
	Name   string `json:"name"`
	Values int    `json:"values"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema>",
		Short: "Compile a schema to a resolved object model",
		Long: `Compile a .cue or .yaml schema, with its imports, into the resolved
object model: linearized classes, classified slots and emitted enums.

The compiled model can be written as canonical JSON (the content that the
model hash is computed from) and recorded in a SQLite database.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record the compilation run in this database")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel class resolution (0 = GOMAXPROCS)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	m, err := loadSchema(path, logger, compiler.WithWorkers(opts.Workers))
	if err != nil {
		exitCode := ExitFailure
		if isFileError(err) {
			exitCode = ExitCommandError
		}
		return outputError(formatter, exitCode, err)
	}

	result := summarize(m)

	if opts.DB != "" {
		runID, err := recordRun(cmd.Context(), opts.DB, filepath.Base(path), m)
		if err != nil {
			return outputError(formatter, ExitCommandError, err)
		}
		result.RunID = runID
		logger.Debug("compilation recorded", "db", opts.DB, "run", runID)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeModelToFile(m, opts.Output); err != nil {
			return outputError(formatter, ExitCommandError, &codedError{ErrCodeWriteFailed, err})
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// summarize builds the compile summary of m.
func summarize(m *model.CompiledModel) CompilationResult {
	result := CompilationResult{
		Name:    m.Name(),
		Hash:    m.Hash(),
		Classes: []ClassSummary{},
		Enums:   []EnumSummary{},
	}
	for _, c := range m.Classes() {
		result.Classes = append(result.Classes, ClassSummary{
			Name:       c.Name(),
			Identifier: c.Identifier(),
			Abstract:   c.Abstract(),
			Attributes: len(c.Attributes()),
		})
	}
	for _, e := range m.Enums() {
		result.Enums = append(result.Enums, EnumSummary{Name: e.Name(), Values: len(e.Values())})
	}
	for _, w := range m.Warnings() {
		result.Warnings = append(result.Warnings, w.Message)
	}
	return result
}

// recordRun stores the compiled model and a new compilation run in the
// database at path. Seq numbers continue after the last stored one.
func recordRun(ctx context.Context, path, source string, m *model.CompiledModel) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return "", &codedError{ErrCodeStore, err}
	}
	defer st.Close()

	last, err := st.LastSeq(ctx)
	if err != nil {
		return "", &codedError{ErrCodeStore, err}
	}
	var runs store.RunIDGenerator = store.UUIDv7Generator{}
	var clock store.Sequencer = store.NewClockAt(last)

	run, err := st.WriteModel(ctx, store.Run{
		ID:     runs.Generate(),
		Source: source,
		Seq:    clock.Next(),
	}, m)
	if err != nil {
		return "", &codedError{ErrCodeStore, err}
	}
	return run.ID, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s: %d class(es), %d enum(s)\n\n",
		result.Name, len(result.Classes), len(result.Enums))

	if len(result.Classes) > 0 {
		fmt.Fprintln(w, "Classes:")
		for _, c := range result.Classes {
			fmt.Fprintf(w, "  %s: %d attribute(s)", c.Name, c.Attributes)
			if c.Identifier != "" {
				fmt.Fprintf(w, ", identifier %s", c.Identifier)
			}
			if c.Abstract {
				fmt.Fprint(w, ", abstract")
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if len(result.Enums) > 0 {
		fmt.Fprintln(w, "Enums:")
		for _, e := range result.Enums {
			fmt.Fprintf(w, "  %s: %d value(s)\n", e.Name, e.Values)
		}
		fmt.Fprintln(w)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, msg := range result.Warnings {
			fmt.Fprintf(w, "  %s\n", msg)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Model hash: %s\n", result.Hash)
	if result.RunID != "" {
		fmt.Fprintf(w, "Recorded run %s\n", result.RunID)
	}
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled model to %s\n", outputFile)
	}

	return nil
}

// writeModelToFile writes the model snapshot to a file in canonical JSON,
// the exact bytes the model hash is computed from.
func writeModelToFile(m *model.CompiledModel, filename string) error {
	data, err := ir.MarshalCanonical(m.Snapshot())
	if err != nil {
		return fmt.Errorf("marshaling model: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
