// Package store provides an embedded, SQLite-backed quad store that executes
// the graph operations of package graph.
//
// It backs local runs, the scenario harness and the engine tests, and it is
// the reference semantics for the SPARQL backend: every operation here has a
// SPARQL counterpart in internal/sparql that must leave the same graphs
// behind.
//
// # Storage
//
// One table, quads(g, s, p, o), keyed on all four columns. Terms are stored
// in N-Triples syntax. Writes use INSERT OR IGNORE / ON CONFLICT DO NOTHING,
// so every insert is idempotent, which the engine relies on when collectors
// overlap.
//
// # Deterministic reads
//
// Every paged read orders by the encoded subject and filters with a keyset
// cursor (s > ?). There is no OFFSET anywhere.
//
// # Property paths
//
// Paths are evaluated in Go, one hop at a time, with IN lists chunked to
// stay under SQLite's bound-variable limit. Zero-or-more and one-or-more
// steps compute a breadth-first closure.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - a single open connection: one writer, no SQLITE_BUSY
package store
