package ir

import "fmt"

// RangeKind classifies how a slot's values are represented.
type RangeKind int

const (
	// RangePrimitive is a builtin or user-defined type.
	RangePrimitive RangeKind = iota
	// RangeEnum is a reference to an enumeration value.
	RangeEnum
	// RangeClassIdentified is a class referenced by its identifier string.
	RangeClassIdentified
	// RangeClassInlined is a class embedded by value (object, list of objects
	// or mapping keyed by identifier).
	RangeClassInlined
)

var rangeKindNames = map[RangeKind]string{
	RangePrimitive:       "primitive",
	RangeEnum:            "enum",
	RangeClassIdentified: "class_ref",
	RangeClassInlined:    "class_inlined",
}

func (k RangeKind) String() string {
	if s, ok := rangeKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("RangeKind(%d)", int(k))
}

// IsClass reports whether the range is a class, inlined or referenced.
func (k RangeKind) IsClass() bool {
	return k == RangeClassIdentified || k == RangeClassInlined
}

// Category is the definition category a range name resolves to.
type Category string

const (
	CategoryType  Category = "type"
	CategoryEnum  Category = "enum"
	CategoryClass Category = "class"
)

// ResolvedAttribute is one flattened, fully resolved attribute of a class.
type ResolvedAttribute struct {
	Name          string    `json:"name"`
	Range         string    `json:"range"`
	Category      Category  `json:"category"`
	Kind          RangeKind `json:"-"`
	Multivalued   bool      `json:"multivalued"`
	Required      bool      `json:"required"`
	Identifier    bool      `json:"identifier"`
	InlinedAsList bool      `json:"inlined_as_list"`
	IfAbsent      string    `json:"ifabsent,omitempty"`
	Default       Value     `json:"-"`
	Owner         string    `json:"owner"` // class that introduced the slot
}

// HasDefault reports whether the attribute carries a compiled default.
func (a ResolvedAttribute) HasDefault() bool {
	if a.Default == nil {
		return false
	}
	_, isNull := a.Default.(Null)
	return !isNull
}

// ResolvedClassModel is the output of linearization and slot resolution.
// Attributes are in final order: identifier first, then chain order.
type ResolvedClassModel struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Ancestors   []string            `json:"ancestors"` // most-general-first, includes Name
	Attributes  []ResolvedAttribute `json:"attributes"`
	Identifier  string              `json:"identifier,omitempty"`
	Abstract    bool                `json:"abstract,omitempty"`
	Mixin       bool                `json:"mixin,omitempty"`
}

// Attribute returns the resolved attribute called name.
func (m *ResolvedClassModel) Attribute(name string) (ResolvedAttribute, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return ResolvedAttribute{}, false
}

// AttributeNames returns attribute names in resolved order.
func (m *ResolvedClassModel) AttributeNames() []string {
	names := make([]string, len(m.Attributes))
	for i, a := range m.Attributes {
		names[i] = a.Name
	}
	return names
}

// EnumModel is an emitted enumeration: ordered values with their metadata.
type EnumModel struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Values      []EnumValueModel `json:"values"`
}

// EnumValueModel is one emitted enum value. Metadata fields are copied
// verbatim from the definition.
type EnumValueModel struct {
	Name        string            `json:"name"`
	Text        string            `json:"text"`
	Description string            `json:"description,omitempty"`
	Meaning     string            `json:"meaning,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// ToObject converts the class model to an Object for canonical hashing.
func (m *ResolvedClassModel) ToObject() Object {
	attrs := make(Array, len(m.Attributes))
	for i, a := range m.Attributes {
		attr := Object{
			"name":            String(a.Name),
			"range":           String(a.Range),
			"category":        String(string(a.Category)),
			"kind":            String(a.Kind.String()),
			"multivalued":     Bool(a.Multivalued),
			"required":        Bool(a.Required),
			"identifier":      Bool(a.Identifier),
			"inlined_as_list": Bool(a.InlinedAsList),
			"owner":           String(a.Owner),
		}
		if a.HasDefault() {
			attr["default"] = a.Default
		}
		attrs[i] = attr
	}
	ancestors := make(Array, len(m.Ancestors))
	for i, a := range m.Ancestors {
		ancestors[i] = String(a)
	}
	return Object{
		"name":       String(m.Name),
		"ancestors":  ancestors,
		"attributes": attrs,
		"identifier": String(m.Identifier),
		"abstract":   Bool(m.Abstract),
	}
}

// ToObject converts the enum model to an Object for canonical hashing.
func (m *EnumModel) ToObject() Object {
	values := make(Array, len(m.Values))
	for i, v := range m.Values {
		obj := Object{
			"name": String(v.Name),
			"text": String(v.Text),
		}
		if v.Description != "" {
			obj["description"] = String(v.Description)
		}
		if v.Meaning != "" {
			obj["meaning"] = String(v.Meaning)
		}
		if len(v.Annotations) > 0 {
			ann := make(Object, len(v.Annotations))
			for k, a := range v.Annotations {
				ann[k] = String(a)
			}
			obj["annotations"] = ann
		}
		values[i] = obj
	}
	return Object{
		"name":   String(m.Name),
		"values": values,
	}
}

// ReferenceCycle records classes that reference each other. Mutual
// references are legal; the cycle is informational.
type ReferenceCycle struct {
	// Members are every class of the strongly connected component, in
	// declaration order.
	Members []string `json:"members"`

	// Path is one closed walk through the component starting at its first
	// member. It need not visit every member.
	Path    []string `json:"path"`
	Message string   `json:"message"`
}
