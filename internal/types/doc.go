// Package types is the primitive type registry: it maps builtin and
// user-defined type names to value kinds and lossless coercion functions.
//
// Builtins are registered by NewRegistry. User types refine a builtin through
// a typeof chain and inherit its kind:
//
//	reg := types.NewRegistry()
//	err := reg.Define([]ir.TypeDefinition{{Name: "phone", Typeof: "string"}})
//	t, _ := reg.Lookup("phone")
//	v, err := t.Coerce("555-0100")
package types
