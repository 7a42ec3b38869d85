// Package primitives provides the foundational data structures for the overlay
// chart engine: events, the extended-state store, and the declarative chart
// model (states, transitions, machine configuration).
//
// This package uses ONLY the Go standard library. Everything that needs a
// third-party library (serialization formats, storage, tracing) lives in the
// tiers above it.
//
// Core invariants:
//   - Events are values and are never mutated after construction
//   - Context is safe for concurrent reads, single writer (the machine goroutine)
//   - Chart configuration is immutable once a machine has started
//   - Every state is addressed by its dot path from the root ("opening.smoothly.open")
package primitives
