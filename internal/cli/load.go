package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/loader"
	"github.com/roach88/schemac/internal/model"
	"github.com/roach88/schemac/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	DB string // database to store the loaded object in
}

// LoadResult is the outcome of loading one payload.
type LoadResult struct {
	Class     string    `json:"class"`
	Repr      string    `json:"repr"`
	Object    ir.Object `json:"object"`
	ModelHash string    `json:"model_hash,omitempty"`
	ObjectID  string    `json:"object_id,omitempty"`
	Seq       int64     `json:"seq,omitempty"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <schema> <class> <payload>",
		Short: "Build an object from a JSON or YAML payload",
		Long: `Load a JSON (.json) or YAML payload as an instance of a class and print
its canonical representation.

Nested mappings are instantiated for inlined slots only; a slot that
references another class by identifier takes the identifier string.

Exit codes:
  0 - Payload loaded
  1 - Payload rejected (shape, coercion or missing values)
  2 - Command error (unreadable schema or payload, database errors)`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "store the object in this database")

	return cmd
}

func runLoad(opts *LoadOptions, schemaPath, class, payloadPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	m, err := loadSchema(schemaPath, logger)
	if err != nil {
		exitCode := ExitFailure
		if isFileError(err) {
			exitCode = ExitCommandError
		}
		return outputError(formatter, exitCode, err)
	}
	if _, ok := m.Class(class); !ok {
		return outputError(formatter, ExitCommandError,
			&codedError{ErrCodeUnknownName, fmt.Errorf("no class named %q in schema %s", class, m.Name())})
	}

	data, err := os.ReadFile(payloadPath)
	if err != nil {
		return outputError(formatter, ExitCommandError, &codedError{ErrCodeNotFound, err})
	}

	l := loader.New(m, loader.WithLogger(logger))
	var inst *model.Instance
	if strings.EqualFold(filepath.Ext(payloadPath), ".json") {
		inst, err = l.LoadJSON(class, data)
	} else {
		inst, err = l.LoadYAML(class, data)
	}
	if err != nil {
		return outputError(formatter, ExitFailure, err)
	}

	obj, err := inst.ToObject()
	if err != nil {
		return outputError(formatter, ExitFailure, err)
	}
	result := LoadResult{Class: class, Repr: inst.String(), Object: obj}

	if opts.DB != "" {
		result.ModelHash = m.Hash()
		result.ObjectID, result.Seq, err = storeObject(cmd.Context(), opts.DB, filepath.Base(schemaPath), m, inst)
		if err != nil {
			return outputError(formatter, ExitCommandError, err)
		}
		logger.Debug("object stored", "db", opts.DB, "id", result.ObjectID, "seq", result.Seq)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.Repr)
	if result.ObjectID != "" {
		fmt.Fprintf(formatter.Writer, "Stored %s as %s (seq %d)\n", class, result.ObjectID, result.Seq)
	}
	return nil
}

// storeObject records the model (if new) and the instance in the database
// at path. Seq numbers continue after the last stored one.
func storeObject(ctx context.Context, path, source string, m *model.CompiledModel, inst *model.Instance) (string, int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return "", 0, &codedError{ErrCodeStore, err}
	}
	defer st.Close()

	last, err := st.LastSeq(ctx)
	if err != nil {
		return "", 0, &codedError{ErrCodeStore, err}
	}
	clock := store.NewClockAt(last)

	if _, err := st.ReadModel(ctx, m.Hash()); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return "", 0, &codedError{ErrCodeStore, err}
		}
		if _, err := st.WriteModel(ctx, store.Run{
			ID:     store.UUIDv7Generator{}.Generate(),
			Source: source,
			Seq:    clock.Next(),
		}, m); err != nil {
			return "", 0, &codedError{ErrCodeStore, err}
		}
	}

	seq := clock.Next()
	id, err := st.WriteObject(ctx, m.Hash(), inst, seq)
	if err != nil {
		return "", 0, &codedError{ErrCodeStore, err}
	}
	return id, seq, nil
}
