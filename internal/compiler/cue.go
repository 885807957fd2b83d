package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/schemac/internal/ir"
)

// CompileSchemaCUE parses a CUE value into a SchemaDefinition.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the schema struct itself. Field order is declaration order,
// so it fixes class, slot and enum value order:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`schema: { name: "zoo", classes: { Animal: { slots: ["id"] } } }`)
//	schema, err := CompileSchemaCUE(v.LookupPath(cue.ParsePath("schema")))
func CompileSchemaCUE(v cue.Value) (*ir.SchemaDefinition, error) {
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := &ir.SchemaDefinition{}
	var err error
	if schema.Name, err = optionalString(v, "name"); err != nil {
		return nil, err
	}
	if schema.Name == "" {
		labels := v.Path().Selectors()
		if len(labels) == 0 {
			return nil, &CompileError{Field: "name", Message: "schema name is required", Pos: v.Pos()}
		}
		schema.Name = labels[len(labels)-1].String()
	}
	if schema.ID, err = optionalString(v, "id"); err != nil {
		return nil, err
	}
	if schema.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if schema.DefaultRange, err = optionalString(v, "default_range"); err != nil {
		return nil, err
	}
	if schema.Imports, err = optionalStrings(v, "imports"); err != nil {
		return nil, err
	}

	if err := eachField(v, "types", func(name string, tv cue.Value) error {
		t, err := parseTypeCUE(name, tv)
		schema.Types = append(schema.Types, t)
		return err
	}); err != nil {
		return nil, err
	}
	if err := eachField(v, "enums", func(name string, ev cue.Value) error {
		e, err := parseEnumCUE(name, ev)
		schema.Enums = append(schema.Enums, e)
		return err
	}); err != nil {
		return nil, err
	}
	if err := eachField(v, "slots", func(name string, sv cue.Value) error {
		s, err := parseSlotCUE(name, sv)
		schema.Slots = append(schema.Slots, s)
		return err
	}); err != nil {
		return nil, err
	}
	if err := eachField(v, "classes", func(name string, cv cue.Value) error {
		c, err := parseClassCUE(name, cv)
		schema.Classes = append(schema.Classes, c)
		return err
	}); err != nil {
		return nil, err
	}

	return schema, nil
}

// eachField calls fn for every field of the struct at path, in order.
// A missing struct is not an error.
func eachField(v cue.Value, path string, fn func(name string, fv cue.Value) error) error {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return nil
	}
	iter, err := sv.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Selector().Unquoted(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func parseTypeCUE(name string, v cue.Value) (ir.TypeDefinition, error) {
	t := ir.TypeDefinition{Name: name}
	var err error
	if t.Typeof, err = optionalString(v, "typeof"); err != nil {
		return t, err
	}
	if t.Base, err = optionalString(v, "base"); err != nil {
		return t, err
	}
	if t.Description, err = optionalString(v, "description"); err != nil {
		return t, err
	}
	return t, nil
}

func parseEnumCUE(name string, v cue.Value) (ir.EnumDefinition, error) {
	e := ir.EnumDefinition{Name: name}
	var err error
	if e.Description, err = optionalString(v, "description"); err != nil {
		return e, err
	}

	pvs := v.LookupPath(cue.ParsePath("permissible_values"))
	if !pvs.Exists() {
		return e, nil
	}

	// A list of names is shorthand for values without metadata.
	if pvs.Kind() == cue.ListKind {
		names, err := optionalStrings(v, "permissible_values")
		if err != nil {
			return e, err
		}
		for _, n := range names {
			e.PermissibleValues = append(e.PermissibleValues, ir.PermissibleValue{Name: n})
		}
		return e, nil
	}

	err = eachField(v, "permissible_values", func(pvName string, pv cue.Value) error {
		value := ir.PermissibleValue{Name: pvName}
		var err error
		if value.Text, err = optionalString(pv, "text"); err != nil {
			return err
		}
		if value.Description, err = optionalString(pv, "description"); err != nil {
			return err
		}
		if value.Meaning, err = optionalString(pv, "meaning"); err != nil {
			return err
		}
		err = eachField(pv, "annotations", func(key string, av cue.Value) error {
			s, err := av.String()
			if err != nil {
				return &CompileError{Field: "annotations." + key, Message: "annotation must be a string", Pos: av.Pos()}
			}
			if value.Annotations == nil {
				value.Annotations = make(map[string]string)
			}
			value.Annotations[key] = s
			return nil
		})
		e.PermissibleValues = append(e.PermissibleValues, value)
		return err
	})
	return e, err
}

func parseSlotCUE(name string, v cue.Value) (ir.SlotDefinition, error) {
	s := ir.SlotDefinition{Name: name}
	var err error
	if s.Range, err = optionalString(v, "range"); err != nil {
		return s, err
	}
	if s.Multivalued, err = optionalBool(v, "multivalued"); err != nil {
		return s, err
	}
	if s.Required, err = optionalBool(v, "required"); err != nil {
		return s, err
	}
	if s.Identifier, err = optionalBool(v, "identifier"); err != nil {
		return s, err
	}
	if s.Inlined, err = triStateBool(v, "inlined"); err != nil {
		return s, err
	}
	if s.InlinedAsList, err = triStateBool(v, "inlined_as_list"); err != nil {
		return s, err
	}
	if s.IfAbsent, err = optionalString(v, "ifabsent"); err != nil {
		return s, err
	}
	if s.Description, err = optionalString(v, "description"); err != nil {
		return s, err
	}
	return s, nil
}

func parseSlotUsageCUE(name string, v cue.Value) (ir.SlotUsage, error) {
	u := ir.SlotUsage{Name: name}
	var err error
	if u.Range, err = triStateString(v, "range"); err != nil {
		return u, err
	}
	if u.Multivalued, err = triStateBool(v, "multivalued"); err != nil {
		return u, err
	}
	if u.Required, err = triStateBool(v, "required"); err != nil {
		return u, err
	}
	if u.Identifier, err = triStateBool(v, "identifier"); err != nil {
		return u, err
	}
	if u.Inlined, err = triStateBool(v, "inlined"); err != nil {
		return u, err
	}
	if u.InlinedAsList, err = triStateBool(v, "inlined_as_list"); err != nil {
		return u, err
	}
	if u.IfAbsent, err = triStateString(v, "ifabsent"); err != nil {
		return u, err
	}
	if u.Description, err = triStateString(v, "description"); err != nil {
		return u, err
	}
	return u, nil
}

func parseClassCUE(name string, v cue.Value) (ir.ClassDefinition, error) {
	c := ir.ClassDefinition{Name: name}
	var err error
	if c.Description, err = optionalString(v, "description"); err != nil {
		return c, err
	}
	if c.IsA, err = optionalString(v, "is_a"); err != nil {
		return c, err
	}
	if c.Mixins, err = optionalStrings(v, "mixins"); err != nil {
		return c, err
	}
	if c.Slots, err = optionalStrings(v, "slots"); err != nil {
		return c, err
	}
	if c.Abstract, err = optionalBool(v, "abstract"); err != nil {
		return c, err
	}
	if c.Mixin, err = optionalBool(v, "mixin"); err != nil {
		return c, err
	}
	if err := eachField(v, "attributes", func(attr string, av cue.Value) error {
		s, err := parseSlotCUE(attr, av)
		c.Attributes = append(c.Attributes, s)
		return err
	}); err != nil {
		return c, err
	}
	if err := eachField(v, "slot_usage", func(slot string, uv cue.Value) error {
		u, err := parseSlotUsageCUE(slot, uv)
		c.SlotUsage = append(c.SlotUsage, u)
		return err
	}); err != nil {
		return c, err
	}
	return c, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: "must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

func triStateString(v cue.Value, field string) (*string, error) {
	if !v.LookupPath(cue.ParsePath(field)).Exists() {
		return nil, nil
	}
	s, err := optionalString(v, field)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, &CompileError{Field: field, Message: "must be a boolean", Pos: fv.Pos()}
	}
	return b, nil
}

func triStateBool(v cue.Value, field string) (*bool, error) {
	if !v.LookupPath(cue.ParsePath(field)).Exists() {
		return nil, nil
	}
	b, err := optionalBool(v, field)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func optionalStrings(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: fv.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
