// Package source reads schema files from disk. A .cue file is evaluated
// with the CUE SDK; a .yaml or .yml file is parsed as LinkML-style YAML.
// Imports are resolved relative to the importing file and merged into the
// root schema.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/schemac/internal/compiler"
	"github.com/roach88/schemac/internal/ir"
)

// Error codes for schema file handling.
const (
	ErrCodeNotFound    = "E005"
	ErrCodeReadFailed  = "E002"
	ErrCodeUnsupported = "E003"
	ErrCodeLoadFailed  = "E004"
	ErrCodeBuildFailed = "E006"
	ErrCodeParseFailed = "E008"
	ErrCodeImport      = "E009"
)

// Error reports a schema file that could not be read or parsed.
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode returns the file error code carried by err, or "".
func ErrorCode(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Extensions lists the schema file extensions Load accepts.
var Extensions = []string{".yaml", ".yml", ".cue"}

// Load reads the schema at path together with everything it imports,
// depth first, and returns the merged definition set. Imports with the
// "linkml:" prefix name builtin types and are skipped. A file imported
// twice is read once.
func Load(path string) (*ir.SchemaDefinition, error) {
	l := &importer{seen: make(map[string]bool)}
	root, err := l.read(path)
	if err != nil {
		return nil, err
	}
	var imported []*ir.SchemaDefinition
	if err := l.walk(root, filepath.Dir(path), &imported); err != nil {
		return nil, err
	}
	return compiler.MergeSchemas(root, imported...)
}

// Parse parses schema source data. The extension of name selects the
// source language; name also labels CUE positions.
func Parse(name string, data []byte) (*ir.SchemaDefinition, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		schema, err := compiler.ParseSchemaYAML(data)
		if err != nil {
			return nil, &Error{Code: ErrCodeParseFailed, Path: name, Err: err}
		}
		return schema, nil
	case ".cue":
		ctx := cuecontext.New()
		v := ctx.CompileBytes(data, cue.Filename(name))
		if err := v.Validate(); err != nil {
			return nil, &Error{Code: ErrCodeBuildFailed, Path: name, Err: err}
		}
		schema, err := compiler.CompileSchemaCUE(v)
		if err != nil {
			return nil, &Error{Code: ErrCodeParseFailed, Path: name, Err: err}
		}
		return schema, nil
	default:
		return nil, &Error{
			Code: ErrCodeUnsupported,
			Path: name,
			Err:  fmt.Errorf("unsupported schema extension %q (want one of %s)", filepath.Ext(name), strings.Join(Extensions, ", ")),
		}
	}
}

type importer struct {
	seen map[string]bool
}

func (l *importer) read(path string) (*ir.SchemaDefinition, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeReadFailed, Path: path, Err: err}
	}
	l.seen[abs] = true

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &Error{Code: ErrCodeNotFound, Path: path, Err: errors.New("schema file not found")}
	}
	if err != nil {
		return nil, &Error{Code: ErrCodeReadFailed, Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &Error{Code: ErrCodeReadFailed, Path: path, Err: errors.New("is a directory")}
	}

	if filepath.Ext(path) == ".cue" {
		return readCUE(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeReadFailed, Path: path, Err: err}
	}
	return Parse(path, data)
}

// readCUE loads a CUE file through cue/load so package clauses and
// sibling files of the same package are honoured.
func readCUE(path string) (*ir.SchemaDefinition, error) {
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: filepath.Dir(path)}
	instances := load.Instances([]string{"./" + filepath.Base(path)}, cfg)
	if len(instances) == 0 {
		return nil, &Error{Code: ErrCodeLoadFailed, Path: path, Err: errors.New("no CUE instances loaded")}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &Error{Code: ErrCodeLoadFailed, Path: path, Err: inst.Err}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Validate(); err != nil {
		return nil, &Error{Code: ErrCodeBuildFailed, Path: path, Err: err}
	}
	schema, err := compiler.CompileSchemaCUE(value)
	if err != nil {
		return nil, &Error{Code: ErrCodeParseFailed, Path: path, Err: err}
	}
	return schema, nil
}

func (l *importer) walk(schema *ir.SchemaDefinition, dir string, out *[]*ir.SchemaDefinition) error {
	for _, imp := range schema.Imports {
		if strings.HasPrefix(imp, "linkml:") {
			continue
		}
		path, err := resolveImport(dir, imp)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return &Error{Code: ErrCodeImport, Path: path, Err: err}
		}
		if l.seen[abs] {
			continue
		}
		imported, err := l.read(path)
		if err != nil {
			return err
		}
		*out = append(*out, imported)
		if err := l.walk(imported, filepath.Dir(path), out); err != nil {
			return err
		}
	}
	return nil
}

// resolveImport finds the file for an import name: the name itself when it
// carries a known extension, otherwise the first of name.yaml, name.yml and
// name.cue that exists.
func resolveImport(dir, name string) (string, error) {
	base := filepath.Join(dir, filepath.FromSlash(name))
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return base, nil
		}
	}
	for _, ext := range Extensions {
		if _, err := os.Stat(base + ext); err == nil {
			return base + ext, nil
		}
	}
	return "", &Error{Code: ErrCodeImport, Path: base, Err: fmt.Errorf("import %q not found", name)}
}
