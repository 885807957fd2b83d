package compiler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/schemac/internal/ir"
	"github.com/roach88/schemac/internal/types"
)

// parseIfAbsent turns an ifabsent expression into a literal value. The
// expression is matched against a fixed set of forms and is never run.
//
//	true | false                    boolean
//	string(x) | str(x)              string
//	int(n) | integer(n)             integer
//	float(x) | double(x) | decimal(x)
//	date("...") | datetime("...")   temporal literal, checked by the range type
//	EnumName(VALUE)                 enum value of the slot's own range
//	class_name | slot_name          name of the instantiated class or the slot
//	anything else                   bare literal, read as kind
//
// kind is the native kind of the slot's range. Enum and class ranges pass
// KindString, so a bare literal stays text unless the range is numeric.
func parseIfAbsent(expr, class, slot, rangeName string, kind types.Kind) (ir.Value, error) {
	e := strings.TrimSpace(expr)
	invalid := func(reason string, args ...any) error {
		return &InvalidDefaultError{Class: class, Slot: slot, Expr: expr, Reason: fmt.Sprintf(reason, args...)}
	}

	switch e {
	case "":
		return nil, nil
	case "true", "True":
		return ir.Bool(true), nil
	case "false", "False":
		return ir.Bool(false), nil
	case "class_name":
		return ir.String(class), nil
	case "slot_name":
		return ir.String(slot), nil
	}

	fn, arg, isCall := splitCall(e)
	if !isCall {
		return bareLiteral(e, kind), nil
	}
	switch fn {
	case "string", "str":
		return ir.String(unquote(arg)), nil
	case "int", "integer":
		n, err := strconv.ParseInt(unquote(arg), 10, 64)
		if err != nil {
			return nil, invalid("%q is not an integer", arg)
		}
		return ir.Int(n), nil
	case "float", "double", "decimal":
		f, err := strconv.ParseFloat(unquote(arg), 64)
		if err != nil {
			return nil, invalid("%q is not a number", arg)
		}
		return ir.Float(f), nil
	case "date", "datetime", "time":
		return ir.String(unquote(arg)), nil
	case "bool", "boolean":
		b, err := strconv.ParseBool(unquote(arg))
		if err != nil {
			return nil, invalid("%q is not a boolean", arg)
		}
		return ir.Bool(b), nil
	}
	if fn == rangeName {
		return ir.String(unquote(arg)), nil
	}
	return nil, invalid("unknown form %s(...)", fn)
}

// splitCall recognizes name(arg). name must be a plain identifier.
func splitCall(e string) (fn, arg string, ok bool) {
	open := strings.IndexByte(e, '(')
	if open <= 0 || !strings.HasSuffix(e, ")") {
		return "", "", false
	}
	fn = e[:open]
	for _, r := range fn {
		if r != '_' && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			return "", "", false
		}
	}
	return fn, strings.TrimSpace(e[open+1 : len(e)-1]), true
}

func unquote(s string) string {
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// bareLiteral reads e as a number only for numeric kinds. Anything that
// does not parse stays text and is rejected later by the range's coercion.
func bareLiteral(e string, kind types.Kind) ir.Value {
	switch kind {
	case types.KindInteger:
		if n, err := strconv.ParseInt(e, 10, 64); err == nil {
			return ir.Int(n)
		}
		if f, err := strconv.ParseFloat(e, 64); err == nil {
			return ir.Float(f)
		}
	case types.KindFloat:
		if f, err := strconv.ParseFloat(e, 64); err == nil {
			return ir.Float(f)
		}
	}
	return ir.String(unquote(e))
}

// compileDefault parses the attribute's ifabsent and checks the literal
// against its classified range.
func (ix *index) compileDefault(class string, a *ir.ResolvedAttribute) error {
	kind := types.KindString
	if a.Kind == ir.RangePrimitive {
		if t, ok := ix.types.Lookup(a.Range); ok {
			kind = t.Kind
		}
	}
	v, err := parseIfAbsent(a.IfAbsent, class, a.Name, a.Range, kind)
	if err != nil || v == nil {
		return err
	}
	invalid := func(reason string) error {
		return &InvalidDefaultError{Class: class, Slot: a.Name, Expr: a.IfAbsent, Reason: reason}
	}

	switch a.Kind {
	case ir.RangePrimitive:
		t, _ := ix.types.Lookup(a.Range)
		if _, err := t.Coerce(v); err != nil {
			return invalid(err.Error())
		}
	case ir.RangeEnum:
		s, ok := v.(ir.String)
		if !ok {
			return invalid("enum default must name a permissible value")
		}
		values := ix.enums[a.Range].PermissibleValues
		if !slices.ContainsFunc(values, func(pv ir.PermissibleValue) bool { return pv.Name == string(s) }) {
			return invalid(fmt.Sprintf("%s is not a value of %s", s, a.Range))
		}
	case ir.RangeClassIdentified:
		if _, ok := v.(ir.String); !ok {
			return invalid("class reference default must be an identifier string")
		}
	case ir.RangeClassInlined:
		return invalid("inlined class ranges cannot take a default")
	}
	a.Default = v
	return nil
}
