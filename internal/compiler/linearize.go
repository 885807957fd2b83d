package compiler

import (
	"slices"

	"github.com/roach88/schemac/internal/ir"
)

// Linearize returns the ancestor chain of class, most general first and
// ending with mixins: lin(is_a) ++ [class] ++ lin(mixin_1) ++ ... with
// later duplicates dropped. The result always contains class itself.
func Linearize(schema *ir.SchemaDefinition, class string) ([]string, error) {
	var first error
	ix, _ := newIndex(schema, func(err error) bool {
		first = err
		return false
	})
	if first != nil {
		return nil, first
	}
	return ix.linearize(class)
}

func (ix *index) linearize(class string) ([]string, error) {
	if _, ok := ix.classes[class]; !ok {
		return nil, &UnresolvedReferenceError{Field: "class", Ref: class}
	}

	var out []string
	seen := make(map[string]bool)

	var walk func(name string, path []string) error
	walk = func(name string, path []string) error {
		if slices.Contains(path, name) {
			cycle := append(slices.Clone(path), name)
			return &CyclicInheritanceError{Class: path[0], Path: cycle}
		}
		path = append(path, name)

		c := ix.classes[name]
		if c.IsA != "" {
			if _, ok := ix.classes[c.IsA]; !ok {
				return &UnresolvedReferenceError{Class: name, Field: "is_a", Ref: c.IsA}
			}
			if err := walk(c.IsA, path); err != nil {
				return err
			}
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
		for _, m := range c.Mixins {
			if _, ok := ix.classes[m]; !ok {
				return &UnresolvedReferenceError{Class: name, Field: "mixins", Ref: m}
			}
			if err := walk(m, path); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(class, nil); err != nil {
		return nil, err
	}
	return out, nil
}
