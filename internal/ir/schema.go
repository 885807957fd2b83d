package ir

// DefaultRange is the range assumed for slots that declare none and whose
// schema does not set default_range.
const DefaultRange = "string"

// SchemaDefinition is a merged definition set: types, enums, slots and
// classes, each keyed by a name that is unique within its category.
// Slices keep declaration order, which fixes enum value and attribute order.
type SchemaDefinition struct {
	ID           string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	DefaultRange string            `json:"default_range,omitempty"`
	Imports      []string          `json:"imports,omitempty"`
	Types        []TypeDefinition  `json:"types,omitempty"`
	Enums        []EnumDefinition  `json:"enums,omitempty"`
	Slots        []SlotDefinition  `json:"slots,omitempty"`
	Classes      []ClassDefinition `json:"classes,omitempty"`
}

// TypeDefinition declares a named primitive type. Typeof names the type it
// refines; Base may name a builtin primitive directly.
type TypeDefinition struct {
	Name        string `json:"name"`
	Typeof      string `json:"typeof,omitempty"`
	Base        string `json:"base,omitempty"`
	Description string `json:"description,omitempty"`
}

// EnumDefinition declares an enumeration with an ordered set of values.
type EnumDefinition struct {
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	PermissibleValues []PermissibleValue `json:"permissible_values"`
}

// PermissibleValue is one enumeration value. Name is the canonical name;
// Text is the display text and defaults to Name. Description, Meaning and
// Annotations are opaque data and are never interpreted.
type PermissibleValue struct {
	Name        string            `json:"name"`
	Text        string            `json:"text,omitempty"`
	Description string            `json:"description,omitempty"`
	Meaning     string            `json:"meaning,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// DisplayText returns Text, falling back to Name.
func (pv PermissibleValue) DisplayText() string {
	if pv.Text != "" {
		return pv.Text
	}
	return pv.Name
}

// SlotDefinition declares an attribute. Inlined and InlinedAsList are
// tri-state: nil means "not stated in the schema".
type SlotDefinition struct {
	Name          string `json:"name"`
	Range         string `json:"range,omitempty"`
	Multivalued   bool   `json:"multivalued,omitempty"`
	Required      bool   `json:"required,omitempty"`
	Identifier    bool   `json:"identifier,omitempty"`
	Inlined       *bool  `json:"inlined,omitempty"`
	InlinedAsList *bool  `json:"inlined_as_list,omitempty"`
	IfAbsent      string `json:"ifabsent,omitempty"`
	Description   string `json:"description,omitempty"`
}

// SlotUsage is a class-level partial override of a slot. Only non-nil fields
// replace the inherited value.
type SlotUsage struct {
	Name          string  `json:"name"`
	Range         *string `json:"range,omitempty"`
	Multivalued   *bool   `json:"multivalued,omitempty"`
	Required      *bool   `json:"required,omitempty"`
	Identifier    *bool   `json:"identifier,omitempty"`
	Inlined       *bool   `json:"inlined,omitempty"`
	InlinedAsList *bool   `json:"inlined_as_list,omitempty"`
	IfAbsent      *string `json:"ifabsent,omitempty"`
	Description   *string `json:"description,omitempty"`
}

// Apply returns def with every set field of u applied.
func (u SlotUsage) Apply(def SlotDefinition) SlotDefinition {
	if u.Range != nil {
		def.Range = *u.Range
	}
	if u.Multivalued != nil {
		def.Multivalued = *u.Multivalued
	}
	if u.Required != nil {
		def.Required = *u.Required
	}
	if u.Identifier != nil {
		def.Identifier = *u.Identifier
	}
	if u.Inlined != nil {
		def.Inlined = boolPtr(*u.Inlined)
	}
	if u.InlinedAsList != nil {
		def.InlinedAsList = boolPtr(*u.InlinedAsList)
	}
	if u.IfAbsent != nil {
		def.IfAbsent = *u.IfAbsent
	}
	if u.Description != nil {
		def.Description = *u.Description
	}
	return def
}

// ClassDefinition declares a class. Slots references schema-level slots by
// name; Attributes are class-local slot definitions.
type ClassDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	IsA         string           `json:"is_a,omitempty"`
	Mixins      []string         `json:"mixins,omitempty"`
	Slots       []string         `json:"slots,omitempty"`
	Attributes  []SlotDefinition `json:"attributes,omitempty"`
	SlotUsage   []SlotUsage      `json:"slot_usage,omitempty"`
	Abstract    bool             `json:"abstract,omitempty"`
	Mixin       bool             `json:"mixin,omitempty"`
}

// Attribute returns the class-local definition for name.
func (c *ClassDefinition) Attribute(name string) (SlotDefinition, bool) {
	for _, a := range c.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return SlotDefinition{}, false
}

// Usage returns the slot usage for name.
func (c *ClassDefinition) Usage(name string) (SlotUsage, bool) {
	for _, u := range c.SlotUsage {
		if u.Name == name {
			return u, true
		}
	}
	return SlotUsage{}, false
}

// Class returns the class definition for name or nil.
func (s *SchemaDefinition) Class(name string) *ClassDefinition {
	for i := range s.Classes {
		if s.Classes[i].Name == name {
			return &s.Classes[i]
		}
	}
	return nil
}

// Slot returns the schema-level slot definition for name or nil.
func (s *SchemaDefinition) Slot(name string) *SlotDefinition {
	for i := range s.Slots {
		if s.Slots[i].Name == name {
			return &s.Slots[i]
		}
	}
	return nil
}

// Enum returns the enum definition for name or nil.
func (s *SchemaDefinition) Enum(name string) *EnumDefinition {
	for i := range s.Enums {
		if s.Enums[i].Name == name {
			return &s.Enums[i]
		}
	}
	return nil
}

// Type returns the type definition for name or nil.
func (s *SchemaDefinition) Type(name string) *TypeDefinition {
	for i := range s.Types {
		if s.Types[i].Name == name {
			return &s.Types[i]
		}
	}
	return nil
}

// EffectiveDefaultRange returns DefaultRange unless the schema overrides it.
func (s *SchemaDefinition) EffectiveDefaultRange() string {
	if s.DefaultRange != "" {
		return s.DefaultRange
	}
	return DefaultRange
}

// BoolPtr returns a pointer to b, for tri-state slot fields.
func BoolPtr(b bool) *bool { return boolPtr(b) }

// StrPtr returns a pointer to s, for slot usage fields.
func StrPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
