package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/model"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <schema> <name>",
		Short: "Show the resolved form of a class or enum",
		Long: `Show how a class resolved: its ancestor chain and every attribute in
constructor order with range, classification, multiplicity, requiredness
and default. For an enum, show its values and their metadata.

Examples:
  schemac inspect schema.yaml Person
  schemac inspect schema.yaml EmploymentEventType --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, path, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	m, err := loadSchema(path, opts.Logger(cmd.ErrOrStderr()))
	if err != nil {
		exitCode := ExitFailure
		if isFileError(err) {
			exitCode = ExitCommandError
		}
		return outputError(formatter, exitCode, err)
	}

	if c, ok := m.Class(name); ok {
		if formatter.Format == "json" {
			return formatter.Success(c.Resolved().ToObject())
		}
		return outputClass(formatter, c)
	}
	if e, ok := m.Enum(name); ok {
		if formatter.Format == "json" {
			return formatter.Success(enumObject(e))
		}
		return outputEnum(formatter, e)
	}

	return outputError(formatter, ExitCommandError,
		&codedError{ErrCodeUnknownName, fmt.Errorf("no class or enum named %q in schema %s", name, m.Name())})
}

func outputClass(formatter *OutputFormatter, c *model.Class) error {
	w := formatter.Writer
	fmt.Fprintf(w, "class %s", c.Name())
	if c.Abstract() {
		fmt.Fprint(w, " (abstract)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "ancestors: %s\n", strings.Join(c.Ancestors(), " → "))
	if c.Identifier() != "" {
		fmt.Fprintf(w, "identifier: %s\n", c.Identifier())
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTRIBUTE\tRANGE\tKIND\tMULTIVALUED\tREQUIRED\tDEFAULT\tOWNER")
	for _, a := range c.Attributes() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%s\t%s\n",
			a.Name, a.Range, a.Kind, a.Multivalued, a.Required, formatDefault(a.ResolvedAttribute), a.Owner)
	}
	return tw.Flush()
}

// formatDefault renders a compiled default as canonical JSON, or "-".
func formatDefault(a ir.ResolvedAttribute) string {
	if !a.HasDefault() {
		return "-"
	}
	data, err := ir.MarshalCanonical(a.Default)
	if err != nil {
		return a.IfAbsent
	}
	return string(data)
}

func outputEnum(formatter *OutputFormatter, e *model.Enum) error {
	w := formatter.Writer
	fmt.Fprintf(w, "enum %s\n", e.Name())
	if e.Description() != "" {
		fmt.Fprintf(w, "description: %s\n", e.Description())
	}
	fmt.Fprintln(w)

	for _, v := range e.Values() {
		fmt.Fprintf(w, "  %s\n", v)
	}
	return nil
}

// enumObject converts an enum to data, keeping metadata verbatim.
func enumObject(e *model.Enum) ir.Object {
	values := make(ir.Array, 0, len(e.Values()))
	for _, v := range e.Values() {
		obj := ir.Object{"name": ir.String(v.Name), "text": ir.String(v.Text)}
		if v.Description != "" {
			obj["description"] = ir.String(v.Description)
		}
		if v.Meaning != "" {
			obj["meaning"] = ir.String(v.Meaning)
		}
		values = append(values, obj)
	}
	return ir.Object{"name": ir.String(e.Name()), "values": values}
}
