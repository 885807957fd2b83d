package compiler

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/schemac/internal/ir"
)

// ParseError reports a malformed YAML schema document.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("yaml:%d: %s", e.Line, e.Message)
	}
	return "yaml: " + e.Message
}

// metadataKeys are top-level schema keys accepted and ignored: they describe
// the schema but do not affect the compiled model.
var metadataKeys = map[string]bool{
	"title":             true,
	"version":           true,
	"license":           true,
	"prefixes":          true,
	"default_prefix":    true,
	"default_curi_maps": true,
	"subsets":           true,
	"see_also":          true,
	"status":            true,
	"notes":             true,
	"comments":          true,
}

type yamlSlot struct {
	Range         *string `yaml:"range"`
	Multivalued   *bool   `yaml:"multivalued"`
	Required      *bool   `yaml:"required"`
	Identifier    *bool   `yaml:"identifier"`
	Inlined       *bool   `yaml:"inlined"`
	InlinedAsList *bool   `yaml:"inlined_as_list"`
	IfAbsent      *string `yaml:"ifabsent"`
	Description   *string `yaml:"description"`
}

func (s yamlSlot) definition(name string) ir.SlotDefinition {
	return ir.SlotUsage{
		Range:         s.Range,
		Multivalued:   s.Multivalued,
		Required:      s.Required,
		Identifier:    s.Identifier,
		Inlined:       s.Inlined,
		InlinedAsList: s.InlinedAsList,
		IfAbsent:      s.IfAbsent,
		Description:   s.Description,
	}.Apply(ir.SlotDefinition{Name: name})
}

func (s yamlSlot) usage(name string) ir.SlotUsage {
	return ir.SlotUsage{
		Name:          name,
		Range:         s.Range,
		Multivalued:   s.Multivalued,
		Required:      s.Required,
		Identifier:    s.Identifier,
		Inlined:       s.Inlined,
		InlinedAsList: s.InlinedAsList,
		IfAbsent:      s.IfAbsent,
		Description:   s.Description,
	}
}

type yamlClass struct {
	Description string    `yaml:"description"`
	IsA         string    `yaml:"is_a"`
	Mixins      []string  `yaml:"mixins"`
	Slots       []string  `yaml:"slots"`
	Abstract    bool      `yaml:"abstract"`
	Mixin       bool      `yaml:"mixin"`
	Attributes  yaml.Node `yaml:"attributes"`
	SlotUsage   yaml.Node `yaml:"slot_usage"`
}

type yamlEnum struct {
	Description       string    `yaml:"description"`
	PermissibleValues yaml.Node `yaml:"permissible_values"`
}

type yamlPermissibleValue struct {
	Text        string            `yaml:"text"`
	Description string            `yaml:"description"`
	Meaning     string            `yaml:"meaning"`
	Annotations map[string]string `yaml:"annotations"`
}

// ParseSchemaYAML parses a LinkML-style YAML schema document. Mapping order
// in the document fixes class, slot and enum value order. Unknown top-level
// keys are rejected; unknown keys inside a definition are ignored.
func ParseSchemaYAML(data []byte) (*ir.SchemaDefinition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, &ParseError{Message: "empty document"}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: root.Line, Message: "schema must be a mapping"}
	}

	schema := &ir.SchemaDefinition{}
	err := eachPair(root, func(key string, kn, vn *yaml.Node) error {
		switch key {
		case "id":
			return decodeNode(vn, &schema.ID)
		case "name":
			return decodeNode(vn, &schema.Name)
		case "description":
			return decodeNode(vn, &schema.Description)
		case "default_range":
			return decodeNode(vn, &schema.DefaultRange)
		case "imports":
			return decodeNode(vn, &schema.Imports)
		case "types":
			return eachPair(vn, func(name string, _, tn *yaml.Node) error {
				t := ir.TypeDefinition{Name: name}
				var body struct {
					Typeof      string `yaml:"typeof"`
					Base        string `yaml:"base"`
					Description string `yaml:"description"`
				}
				if err := decodeNode(tn, &body); err != nil {
					return err
				}
				t.Typeof, t.Base, t.Description = body.Typeof, body.Base, body.Description
				schema.Types = append(schema.Types, t)
				return nil
			})
		case "enums":
			return eachPair(vn, func(name string, _, en *yaml.Node) error {
				e, err := parseEnumYAML(name, en)
				if err != nil {
					return err
				}
				schema.Enums = append(schema.Enums, e)
				return nil
			})
		case "slots":
			return eachPair(vn, func(name string, _, sn *yaml.Node) error {
				var body yamlSlot
				if err := decodeNode(sn, &body); err != nil {
					return err
				}
				schema.Slots = append(schema.Slots, body.definition(slotName(name)))
				return nil
			})
		case "classes":
			return eachPair(vn, func(name string, _, cn *yaml.Node) error {
				c, err := parseClassYAML(name, cn)
				if err != nil {
					return err
				}
				schema.Classes = append(schema.Classes, c)
				return nil
			})
		default:
			if metadataKeys[key] {
				return nil
			}
			return &ParseError{Line: kn.Line, Message: fmt.Sprintf("unknown schema key %q", key)}
		}
	})
	if err != nil {
		return nil, err
	}
	if schema.Name == "" {
		return nil, &ParseError{Line: root.Line, Message: "schema name is required"}
	}
	return schema, nil
}

func parseEnumYAML(name string, n *yaml.Node) (ir.EnumDefinition, error) {
	e := ir.EnumDefinition{Name: name}
	var body yamlEnum
	if err := decodeNode(n, &body); err != nil {
		return e, err
	}
	e.Description = body.Description

	pvs := &body.PermissibleValues
	if pvs.Kind == yaml.SequenceNode {
		var names []string
		if err := decodeNode(pvs, &names); err != nil {
			return e, err
		}
		for _, v := range names {
			e.PermissibleValues = append(e.PermissibleValues, ir.PermissibleValue{Name: v})
		}
		return e, nil
	}

	err := eachPair(pvs, func(value string, _, vn *yaml.Node) error {
		var pv yamlPermissibleValue
		if err := decodeNode(vn, &pv); err != nil {
			return err
		}
		e.PermissibleValues = append(e.PermissibleValues, ir.PermissibleValue{
			Name:        value,
			Text:        pv.Text,
			Description: pv.Description,
			Meaning:     pv.Meaning,
			Annotations: pv.Annotations,
		})
		return nil
	})
	return e, err
}

func parseClassYAML(name string, n *yaml.Node) (ir.ClassDefinition, error) {
	c := ir.ClassDefinition{Name: name}
	var body yamlClass
	if err := decodeNode(n, &body); err != nil {
		return c, err
	}
	c.Description = body.Description
	c.IsA = body.IsA
	c.Mixins = body.Mixins
	c.Abstract = body.Abstract
	c.Mixin = body.Mixin
	for _, s := range body.Slots {
		c.Slots = append(c.Slots, slotName(s))
	}

	err := eachPair(&body.Attributes, func(attr string, _, an *yaml.Node) error {
		var s yamlSlot
		if err := decodeNode(an, &s); err != nil {
			return err
		}
		c.Attributes = append(c.Attributes, s.definition(slotName(attr)))
		return nil
	})
	if err != nil {
		return c, err
	}
	err = eachPair(&body.SlotUsage, func(slot string, _, un *yaml.Node) error {
		var s yamlSlot
		if err := decodeNode(un, &s); err != nil {
			return err
		}
		c.SlotUsage = append(c.SlotUsage, s.usage(slotName(slot)))
		return nil
	})
	return c, err
}

// eachPair calls fn for each key of a mapping node in document order. A
// zero or null node has no pairs.
func eachPair(n *yaml.Node, fn func(key string, kn, vn *yaml.Node) error) error {
	if n.Kind == 0 || isNull(n) {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return &ParseError{Line: n.Line, Message: "expected a mapping"}
	}
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		if seen[kn.Value] {
			return &ParseError{Line: kn.Line, Message: fmt.Sprintf("duplicate key %q", kn.Value)}
		}
		seen[kn.Value] = true
		if err := fn(kn.Value, kn, vn); err != nil {
			return err
		}
	}
	return nil
}

// decodeNode decodes n into out; a null node leaves out untouched.
func decodeNode(n *yaml.Node, out any) error {
	if isNull(n) {
		return nil
	}
	if err := n.Decode(out); err != nil {
		return &ParseError{Line: n.Line, Message: err.Error()}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

// slotName maps a LinkML slot name to its attribute name; spaces become
// underscores ("related to" -> "related_to").
func slotName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}
