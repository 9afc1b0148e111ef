// Package graph defines the backend-neutral description of every graph
// operation the distribution engine and the path resolver issue.
//
// Operations are plain data. Two backends execute them: internal/store runs
// them against the embedded SQLite quad store, internal/sparql compiles them
// to SPARQL and sends them through a store gateway. Keeping the operation set
// closed and declarative is what lets both backends produce the same graph
// state for the same inputs; the engine tests rely on that.
//
// The fragment is deliberately small:
//   - basic graph patterns over a single named graph per pattern
//   - property paths built from sequence, inverse and the * ? + modifiers
//   - existence conditions (FILTER EXISTS / NOT EXISTS over a path)
//   - keyset pagination ordered by resource IRI
//
// No OFFSET, no aggregation beyond counting, no OPTIONAL.
package graph
