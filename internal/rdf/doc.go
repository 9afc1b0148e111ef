// Package rdf provides the RDF value types shared by every other package:
// terms, triples, quads, property paths and prefix maps, plus an
// N-Triples/N-Quads codec.
//
// This package imports nothing internal. Literal lexical forms are NFC
// normalized when constructed so that equality checks and store keys are
// stable regardless of how the producer encoded them.
package rdf
