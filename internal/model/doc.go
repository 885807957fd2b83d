// Package model is the instantiable object model produced by compilation.
//
// A CompiledModel holds one Class per resolved class and one Enum per
// enumeration. Classes construct Instances from a positional identifier
// plus named arguments, coercing every value to its attribute's range.
// Instances render to a canonical representation:
//
//	Company(id='ROR:1', name=None, aliases=[], ceo=None)
//
// A CompiledModel is immutable and safe for concurrent use. Instances are
// owned by the caller and are not safe for concurrent mutation.
package model
