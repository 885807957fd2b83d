// Package loader builds instances from semi-structured payloads: decoded
// JSON or YAML mappings, lists and scalars.
//
// Inlined class slots recurse into nested mappings. A single-valued slot
// that references its range by identifier accepts only the identifier;
// a nested mapping there is rejected with a ShapeError, whereas the
// constructor would accept it.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/model"
	"github.com/roach88/schemac/internal/types"
)

// ErrCodeShape marks payload structure errors.
const ErrCodeShape = "E401"

// ShapeError reports a payload value whose structure does not match the
// attribute's range classification.
type ShapeError struct {
	Path      string
	Class     string
	Attribute string
	Kind      ir.RangeKind
	Message   string
}

func (e *ShapeError) Code() string { return ErrCodeShape }

func (e *ShapeError) Error() string {
	return fmt.Sprintf("[%s] %s: %s.%s (%s): %s", e.Code(), displayPath(e.Path), e.Class, e.Attribute, e.Kind, e.Message)
}

// PathError wraps a construction error with the payload location it came
// from.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return fmt.Sprintf("%s: %v", displayPath(e.Path), e.Err) }

func (e *PathError) Unwrap() error { return e.Err }

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// IsShapeError returns true if err is a shape error.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}

// Loader constructs instances of a compiled model from payloads.
type Loader struct {
	model  *model.CompiledModel
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger for Debug level load records.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// New returns a loader for m.
func New(m *model.CompiledModel, opts ...Option) *Loader {
	l := &Loader{
		model:  m,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadJSON decodes a JSON object and loads it as className. Numbers are
// kept as json.Number so integer attributes never pass through float64.
func (l *Loader) LoadJSON(className string, data []byte) (*model.Instance, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode JSON payload: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode JSON payload: trailing data after object")
	}
	return l.Load(className, payload)
}

// LoadYAML decodes a YAML mapping and loads it as className.
func (l *Loader) LoadYAML(className string, data []byte) (*model.Instance, error) {
	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode YAML payload: %w", err)
	}
	return l.Load(className, payload)
}

// Load builds an instance of className from payload.
func (l *Loader) Load(className string, payload map[string]any) (*model.Instance, error) {
	c, ok := l.model.Class(className)
	if !ok {
		return nil, fmt.Errorf("load: unknown class %q", className)
	}
	inst, err := l.load(c, payload, "")
	if err != nil {
		return nil, err
	}
	l.logger.Debug("instance loaded", "class", className, "id", inst.ID())
	return inst, nil
}

func (l *Loader) load(c *model.Class, payload map[string]any, path string) (*model.Instance, error) {
	fields := make(map[string]any, len(payload))
	for _, k := range sortedKeys(payload) {
		v := payload[k]
		a, ok := c.Attribute(k)
		if !ok {
			// The constructor reports unknown attributes.
			fields[k] = v
			continue
		}
		out, err := l.value(c, a, v, path+"/"+escape(k))
		if err != nil {
			return nil, err
		}
		fields[k] = out
	}

	inst, err := c.NewFromMap(fields)
	if err != nil {
		return nil, &PathError{Path: path, Err: err}
	}
	return inst, nil
}

// value shapes one attribute value before construction.
func (l *Loader) value(c *model.Class, a *model.Attribute, v any, path string) (any, error) {
	v = normalizeScalar(v)
	shapeErr := func(p, msg string) error {
		return &ShapeError{Path: p, Class: c.Name(), Attribute: a.Name, Kind: a.Kind, Message: msg}
	}

	switch a.Kind {
	case ir.RangeClassIdentified:
		if items, ok := v.([]any); ok {
			for i, item := range items {
				if _, nested := item.(map[string]any); nested {
					return nil, shapeErr(fmt.Sprintf("%s/%d", path, i),
						fmt.Sprintf("expected an identifier of %s, got a nested object", a.Range))
				}
			}
			return items, nil
		}
		if _, nested := v.(map[string]any); nested {
			return nil, shapeErr(path,
				fmt.Sprintf("expected an identifier of %s, got a nested object", a.Range))
		}
		return v, nil

	case ir.RangeClassInlined:
		target := a.RangeClass()
		switch val := v.(type) {
		case map[string]any:
			if a.Multivalued && target.Identifier() != "" {
				if _, single := val[target.Identifier()]; !single {
					return l.keyed(target, val, path)
				}
			}
			return l.load(target, val, path)
		case []any:
			out := make([]any, len(val))
			for i, item := range val {
				item = normalizeScalar(item)
				if m, ok := item.(map[string]any); ok {
					inst, err := l.load(target, m, fmt.Sprintf("%s/%d", path, i))
					if err != nil {
						return nil, err
					}
					out[i] = inst
					continue
				}
				out[i] = item
			}
			return out, nil
		}
		return v, nil

	default:
		if items, ok := v.([]any); ok {
			out := make([]any, len(items))
			for i, item := range items {
				out[i] = l.scalar(a, normalizeScalar(item))
			}
			return out, nil
		}
		return l.scalar(a, v), nil
	}
}

// scalar renders a decoded timestamp as text unless the attribute's type
// is temporal, whose coercion takes time.Time directly.
func (l *Loader) scalar(a *model.Attribute, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if typ := a.RangeType(); typ != nil {
		switch typ.Kind {
		case types.KindDate, types.KindDateTime, types.KindTime:
			return t
		}
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}

// keyed loads a mapping of identifier to object body.
func (l *Loader) keyed(target *model.Class, m map[string]any, path string) (any, error) {
	idName := target.Identifier()
	out := make([]any, 0, len(m))
	for _, k := range sortedKeys(m) {
		body := map[string]any{}
		switch val := m[k].(type) {
		case nil:
		case map[string]any:
			for fk, fv := range val {
				body[fk] = fv
			}
		default:
			return nil, &ShapeError{
				Path: path + "/" + escape(k), Class: target.Name(), Attribute: idName,
				Kind:    ir.RangeClassInlined,
				Message: fmt.Sprintf("keyed entry must be a mapping, got %T", val),
			}
		}
		if _, ok := body[idName]; !ok {
			body[idName] = k
		}
		inst, err := l.load(target, body, path+"/"+escape(k))
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// normalizeScalar turns decoder-specific mappings into string-keyed ones.
func normalizeScalar(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = e
		}
		return out
	}
	return v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// escape applies JSON pointer escaping to one path segment.
func escape(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
