// Package sparql talks to the triple store over the SPARQL 1.1 protocol.
//
// Gateway sends queries and updates to one endpoint, forwarding the mu
// headers found in the request context. Store builds on a Gateway and
// implements the same graph operations as the embedded SQLite store, one
// SPARQL request per operation, so the distribution engine can run
// against either backend.
package sparql
