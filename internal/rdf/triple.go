package rdf

import (
	"sort"
	"strings"
)

// Triple is a subject/predicate/object statement.
type Triple struct {
	S Term
	P Term
	O Term
}

// NewTriple builds a triple from an IRI subject and predicate.
func NewTriple(s, p string, o Term) Triple {
	return Triple{S: NewIRI(s), P: NewIRI(p), O: o}
}

// String renders the triple as one N-Triples line without the newline.
func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// Quad is a triple in a named graph. An empty Graph means the default graph.
type Quad struct {
	Triple
	Graph string
}

// String renders the quad as one N-Quads line without the newline.
func (q Quad) String() string {
	if q.Graph == "" {
		return q.Triple.String()
	}
	return q.S.String() + " " + q.P.String() + " " + q.O.String() + " " + NewIRI(q.Graph).String() + " ."
}

// SortTriples orders triples by their N-Triples rendering, which gives a
// stable order for dumps and comparisons.
func SortTriples(ts []Triple) {
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].String() < ts[j].String()
	})
}

// FormatNTriples renders triples as a sorted N-Triples document.
func FormatNTriples(ts []Triple) string {
	sorted := make([]Triple, len(ts))
	copy(sorted, ts)
	SortTriples(sorted)

	var b strings.Builder
	for _, t := range sorted {
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	return b.String()
}
