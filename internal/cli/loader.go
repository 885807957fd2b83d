package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/schemac/internal/compiler"
	"github.com/roach88/schemac/internal/model"
	"github.com/roach88/schemac/internal/source"
)

// Error code constants for CLI-level failures. Schema file errors use the
// source codes (E002-E009), schema errors the compiler codes (E2xx),
// construction errors the model codes (E3xx) and payload shape errors
// E401.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E010" // Database error
	ErrCodeNotFound    = source.ErrCodeNotFound
	ErrCodeUnknownName = "E011" // Class or enum not in the compiled model
)

// loadSchema reads the schema at path with its imports and compiles it.
// Errors keep their codes; see describeError.
func loadSchema(path string, logger *slog.Logger, opts ...compiler.Option) (*model.CompiledModel, error) {
	schema, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("schema loaded",
		"path", path,
		"classes", len(schema.Classes),
		"slots", len(schema.Slots),
		"enums", len(schema.Enums),
		"types", len(schema.Types))

	opts = append(opts, compiler.WithLogger(logger))
	m, err := compiler.Compile(schema, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("schema compiled", "name", m.Name(), "hash", m.Hash())
	return m, nil
}

// codedError attaches a CLI error code to err.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }
func (e *codedError) Code() string  { return e.code }

// isFileError reports whether err is a schema file problem (exit code 2)
// rather than a problem with the schema's content (exit code 1).
func isFileError(err error) bool {
	switch source.ErrorCode(err) {
	case source.ErrCodeNotFound, source.ErrCodeReadFailed, source.ErrCodeUnsupported,
		source.ErrCodeLoadFailed, source.ErrCodeImport:
		return true
	}
	return false
}

// ErrorCode returns the most specific code carried by err.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	if code := source.ErrorCode(err); code != "" {
		return code
	}
	return ErrCodeGeneric
}

// describeError splits err into code, message and source location.
func describeError(err error) (code, message, location string) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return ErrCodeGeneric, exitErr.Message, ""
	}

	code = ErrorCode(err)
	message = stripCode(err.Error())

	var compileErr *compiler.CompileError
	var parseErr *compiler.ParseError
	var srcErr *source.Error
	switch {
	case errors.As(err, &compileErr) && compileErr.Pos.IsValid():
		location = fmt.Sprintf("%s:%d:%d", compileErr.Pos.Filename(), compileErr.Pos.Line(), compileErr.Pos.Column())
		message = compileErr.Message
	case errors.As(err, &parseErr) && parseErr.Line > 0 && errors.As(err, &srcErr):
		location = fmt.Sprintf("%s:%d", srcErr.Path, parseErr.Line)
		message = parseErr.Message
	}
	return code, message, location
}

// stripCode removes the "[Exxx] " prefix coded errors put in front of
// their message; the code is reported separately.
func stripCode(msg string) string {
	if strings.HasPrefix(msg, "[E") {
		if i := strings.Index(msg, "] "); i > 0 {
			return msg[i+2:]
		}
	}
	return msg
}
