package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/schemac/internal/compiler"
	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/source"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError is one schema problem.
type ValidationError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Validate a schema without building the model",
		Long: `Validate a .cue or .yaml schema without building the object model.

Unlike compile, which stops at the first schema error, validate reports
every problem it finds: unresolved references, cyclic inheritance,
incompatible slot redefinitions, duplicate enum values and invalid
defaults.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	schema, err := source.Load(path)
	if err != nil {
		if isFileError(err) {
			return outputError(formatter, ExitCommandError, err)
		}
		return outputValidationErrors(formatter, []error{err})
	}
	formatter.VerboseLog("Validating %s: %d class(es), %d slot(s), %d enum(s), %d type(s)",
		schemaName(schema, path), len(schema.Classes), len(schema.Slots), len(schema.Enums), len(schema.Types))

	if errs := compiler.Validate(schema); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	return outputValidateSuccess(formatter, schemaName(schema, path))
}

func schemaName(schema *ir.SchemaDefinition, path string) string {
	if schema.Name != "" {
		return schema.Name
	}
	return path
}

// ValidateSchema validates the schema at path and returns every schema
// error. The returned error is set only when the file cannot be read.
func ValidateSchema(path string) ([]ValidationError, error) {
	schema, err := source.Load(path)
	if err != nil {
		if isFileError(err) {
			return nil, err
		}
		return toValidationErrors([]error{err}), nil
	}
	return toValidationErrors(compiler.Validate(schema)), nil
}

func toValidationErrors(errs []error) []ValidationError {
	out := make([]ValidationError, len(errs))
	for i, err := range errs {
		code, message, location := describeError(err)
		out[i] = ValidationError{Code: code, Message: message, Location: location}
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, name string) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true}
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema %s is valid\n", name)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []error) error {
	verrs := toValidationErrors(errs)

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: verrs,
			},
			Error: &CLIError{
				Code:     verrs[0].Code,
				Message:  verrs[0].Message,
				Location: verrs[0].Location,
			},
		}
		if err := formatter.encodeJSON(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(verrs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range verrs {
		if err.Location != "" {
			fmt.Fprintln(formatter.Writer, err.Location)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(verrs)))
}
