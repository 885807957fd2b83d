// Package store provides SQLite-backed durable storage for compiled models
// and the instances loaded against them.
//
// The store keeps three tables:
//   - runs: one record per compilation (UUIDv7 id, source path, warnings)
//   - models: compiled model snapshots keyed by content hash
//   - objects: instance data keyed by content hash within a model
//
// # Ordering
//
// All ordering uses seq INTEGER (logical clock), never timestamps. Queries
// order by seq ASC, id ASC COLLATE BINARY so results are identical across
// runs.
//
// # Identity
//
// Models and objects are content-addressed via internal/ir/hash.go using
// canonical JSON and SHA-256 with domain separation. Writing the same model
// or object twice is a no-op. Two different objects of one class may not
// share an identifier.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
