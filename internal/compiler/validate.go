package compiler

import (
	"github.com/roach88/schemac/internal/ir"
)

// Validate checks a definition set and returns every schema error found
// (does not fail fast). Each error implements SchemaError. An empty result
// means Compile will succeed.
func Validate(schema *ir.SchemaDefinition) []error {
	var errs []error
	seen := make(map[string]bool)
	c := &compilation{
		schema: schema,
		opts:   defaultOptions(),
		emit: func(err error) bool {
			if msg := err.Error(); !seen[msg] {
				seen[msg] = true
				errs = append(errs, err)
			}
			return true
		},
	}
	c.run()
	return errs
}

// checkSchemaSlots reports schema-level slots whose range resolves to
// nothing, even when no class uses them.
func (c *compilation) checkSchemaSlots() bool {
	for _, s := range c.schema.Slots {
		if s.Range == "" {
			continue
		}
		if _, ok := c.ix.category(s.Range); !ok {
			if !c.emit(&UnresolvedReferenceError{Slot: s.Name, Field: "range", Ref: s.Range}) {
				return false
			}
		}
	}
	return true
}
