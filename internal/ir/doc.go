// Package ir provides the definition and resolved-model types shared by the
// schemac compiler, object model, loader and store.
//
// This package contains type definitions and canonical encoding only. All
// other internal packages import ir; ir imports nothing internal.
//
// Two layers live here:
//   - Definitions (SchemaDefinition, ClassDefinition, SlotDefinition, ...) are
//     the raw input to compilation, already parsed and merged.
//   - Resolved models (ResolvedClassModel, EnumModel) are the compiler output.
//     They are produced once per compilation and never mutated afterwards.
//
// Canonical JSON (MarshalCanonical) and the domain-separated hashes in
// hash.go give compiled models and stored objects a stable content identity.
package ir
