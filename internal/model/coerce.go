package model

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/roach88/schemac/internal/ir"
)

// coerce converts a caller-supplied value to the attribute's range.
// Multivalued attributes take a list or a single value wrapped into one.
func (a *Attribute) coerce(v any) (any, error) {
	if !a.Multivalued {
		return a.coerceOne(v)
	}
	if v == nil {
		return []any{}, nil
	}
	if m, ok := v.(map[string]any); ok && a.keyedCollection(m) {
		return a.coerceKeyed(m)
	}
	items, ok := listItems(v)
	if !ok {
		one, err := a.coerceOne(v)
		if err != nil {
			return nil, err
		}
		return []any{one}, nil
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		c, err := a.coerceOne(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", a.Name, i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// listItems unpacks slices and arrays of any element type. Strings and
// byte slices are scalars.
func listItems(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case string, []byte, ir.Value:
		if arr, ok := v.(ir.Array); ok {
			items := make([]any, len(arr))
			for i, e := range arr {
				items[i] = e
			}
			return items, true
		}
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// keyedCollection reports whether m is a mapping of identifier to object
// for an inlined identified range, rather than a single object.
func (a *Attribute) keyedCollection(m map[string]any) bool {
	if a.Kind != ir.RangeClassInlined || a.target.Identifier() == "" {
		return false
	}
	_, single := m[a.target.Identifier()]
	return !single
}

// coerceKeyed constructs one instance per key, in sorted key order. The
// key is the identifier; a nil value constructs an instance from the key
// alone.
func (a *Attribute) coerceKeyed(m map[string]any) ([]any, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idName := a.target.Identifier()
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		fields := map[string]any{}
		switch body := m[k].(type) {
		case nil:
		case map[string]any:
			for fk, fv := range body {
				fields[fk] = fv
			}
		default:
			return nil, &TypeCoercionError{
				Class: a.class.Name(), Attribute: a.Name, Range: a.Range, Value: body,
				Reason: fmt.Sprintf("entry %q must be a mapping", k),
			}
		}
		if _, ok := fields[idName]; !ok {
			fields[idName] = k
		}
		inst, err := a.target.NewFromMap(fields)
		if err != nil {
			return nil, fmt.Errorf("%s[%q]: %w", a.Name, k, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// coerceOne converts a single value. nil stays nil.
func (a *Attribute) coerceOne(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if _, isNull := v.(ir.Null); isNull {
		return nil, nil
	}
	switch a.Kind {
	case ir.RangePrimitive:
		out, err := a.typ.Coerce(v)
		if err != nil {
			return nil, a.coercionError(v, "", err)
		}
		return out, nil
	case ir.RangeEnum:
		ev, err := a.enum.Lookup(v)
		if err != nil {
			return nil, a.coercionError(v, "", err)
		}
		return ev, nil
	case ir.RangeClassIdentified:
		return a.coerceReference(v)
	case ir.RangeClassInlined:
		return a.coerceInlined(v)
	}
	return nil, a.coercionError(v, fmt.Sprintf("unsupported range kind %s", a.Kind), nil)
}

// coerceReference accepts an instance of the range class or a descendant,
// a Ref, a mapping constructed through the range class, or a bare
// identifier. The result is always a Ref.
func (a *Attribute) coerceReference(v any) (any, error) {
	switch val := v.(type) {
	case *Instance:
		if err := a.checkInstance(val); err != nil {
			return nil, err
		}
		return Ref{ID: val.ID(), Target: val}, nil
	case Ref:
		return val, nil
	case *Ref:
		return *val, nil
	case map[string]any:
		inst, err := a.target.NewFromMap(val)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", a.class.Name(), a.Name, err)
		}
		return Ref{ID: inst.ID(), Target: inst}, nil
	case ir.Object:
		return a.coerceReference(ir.ToAny(val))
	}
	id, err := a.target.coerceIdentifier(v)
	if err != nil {
		return nil, a.coercionError(v, "not an identifier", err)
	}
	return Ref{ID: id}, nil
}

// coerceInlined accepts an instance of the range class or a descendant or
// a mapping constructed through the range class. When the range class has
// an identifier, a bare identifier constructs an instance from it alone.
func (a *Attribute) coerceInlined(v any) (any, error) {
	switch val := v.(type) {
	case *Instance:
		if err := a.checkInstance(val); err != nil {
			return nil, err
		}
		return val, nil
	case map[string]any:
		inst, err := a.target.NewFromMap(val)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", a.class.Name(), a.Name, err)
		}
		return inst, nil
	case ir.Object:
		return a.coerceInlined(ir.ToAny(val))
	}
	if a.target.Identifier() == "" {
		return nil, a.coercionError(v, "expected an object", nil)
	}
	inst, err := a.target.New(v)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", a.class.Name(), a.Name, err)
	}
	return inst, nil
}

func (a *Attribute) checkInstance(inst *Instance) error {
	if inst.class.model != a.target.model {
		return a.coercionError(inst, "instance belongs to a different compiled model", nil)
	}
	if !inst.class.IsA(a.Range) {
		return a.coercionError(inst, fmt.Sprintf("%s is not a %s", inst.class.Name(), a.Range), nil)
	}
	return nil
}

func (a *Attribute) coercionError(v any, reason string, err error) *TypeCoercionError {
	return &TypeCoercionError{
		Class:     a.class.Name(),
		Attribute: a.Name,
		Range:     a.Range,
		Value:     v,
		Reason:    reason,
		Err:       err,
	}
}

// coerceIdentifier converts v with the identifier attribute's type. It
// looks the type up by name so it does not depend on link order.
func (c *Class) coerceIdentifier(v any) (any, error) {
	if c.def.Identifier == "" {
		return nil, fmt.Errorf("class %s has no identifier", c.Name())
	}
	if _, ok := v.(*Instance); ok {
		return nil, fmt.Errorf("instance given where an identifier is expected")
	}
	ident := c.attrs[0]
	t, ok := c.model.types.Lookup(ident.Range)
	if !ok {
		return nil, fmt.Errorf("identifier %s has non-primitive range %s", ident.Name, ident.Range)
	}
	return t.Coerce(v)
}
