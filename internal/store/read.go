package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/vocab"
)

// TypeCounts returns, per rdf:type, the number of distinct subjects of that
// type in graph, ordered by type IRI. Types listed in exclude are skipped.
func (s *Store) TypeCounts(ctx context.Context, g string, exclude ...string) ([]graph.TypeCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT o, COUNT(DISTINCT s) FROM quads
		 WHERE g = ? AND p = ?
		 GROUP BY o ORDER BY o`,
		g, enc(vocab.Type))
	if err != nil {
		return nil, fmt.Errorf("type counts for %s: %w", g, err)
	}
	defer rows.Close()

	out := []graph.TypeCount{}
	for rows.Next() {
		var term string
		var n int
		if err := rows.Scan(&term, &n); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		// Literal "types" are data errors; skip them with the excluded ones
		typ, ok := decIRI(term)
		if !ok || slices.Contains(exclude, typ) {
			continue
		}
		out = append(out, graph.TypeCount{Type: typ, Count: n})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate type counts: %w", err)
	}
	return out, nil
}

// ResourcePage returns up to limit distinct resources of type typ in graph
// g, ordered, starting strictly after the resource after ("" for the first
// page).
func (s *Store) ResourcePage(ctx context.Context, g, typ, after string, limit int) ([]string, error) {
	// Keyset pagination: (g, p, o) index, then s > cursor. Stable under
	// concurrent deletes, unlike OFFSET.
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT s FROM quads
		 WHERE g = ? AND p = ? AND o = ? AND s > ?
		 ORDER BY s LIMIT ?`,
		g, enc(vocab.Type), enc(typ), cursor(after), limit)
	if err != nil {
		return nil, fmt.Errorf("resource page %s in %s: %w", typ, g, err)
	}
	terms, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}
	return decodeIRIs(terms), nil
}

// CountResources returns the number of distinct subjects in graph g.
func (s *Store) CountResources(ctx context.Context, g string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT s) FROM quads WHERE g = ?`, g).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count resources in %s: %w", g, err)
	}
	return n, nil
}

// Triples returns every triple of graph g in canonical order.
func (s *Store) Triples(ctx context.Context, g string) ([]rdf.Triple, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s, p, o FROM quads WHERE g = ? ORDER BY s, p, o`, g)
	if err != nil {
		return nil, fmt.Errorf("triples of %s: %w", g, err)
	}
	defer rows.Close()

	out := []rdf.Triple{}
	for rows.Next() {
		var sv, pv, ov string
		if err := rows.Scan(&sv, &pv, &ov); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		t, err := decodeTriple(sv, pv, ov)
		if err != nil {
			return nil, fmt.Errorf("graph %s: %w", g, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate triples: %w", err)
	}
	// SQL orders by encoded term text; canonical order is by term
	rdf.SortTriples(out)
	return out, nil
}

// Contains reports whether graph g holds triple t.
func (s *Store) Contains(ctx context.Context, g string, t rdf.Triple) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quads WHERE g = ? AND s = ? AND p = ? AND o = ?`,
		g, t.S.String(), t.P.String(), t.O.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("contains: %w", err)
	}
	return n > 0, nil
}

// Graphs lists every non-empty graph with its triple count.
func (s *Store) Graphs(ctx context.Context) ([]graph.GraphStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g, COUNT(*) FROM quads GROUP BY g ORDER BY g`)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	defer rows.Close()

	// Empty graphs have no rows, so they never appear
	out := []graph.GraphStat{}
	for rows.Next() {
		var gs graph.GraphStat
		if err := rows.Scan(&gs.Graph, &gs.Triples); err != nil {
			return nil, fmt.Errorf("scan graph: %w", err)
		}
		out = append(out, gs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graphs: %w", err)
	}
	return out, nil
}

func decodeTriple(s, p, o string) (rdf.Triple, error) {
	st, err := rdf.ParseTerm(s)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("subject %q: %w", s, err)
	}
	pt, err := rdf.ParseTerm(p)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("predicate %q: %w", p, err)
	}
	ot, err := rdf.ParseTerm(o)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("object %q: %w", o, err)
	}
	return rdf.Triple{S: st, P: pt, O: ot}, nil
}

// decodeIRIs keeps the IRI terms of a column, in order.
func decodeIRIs(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if iri, ok := decIRI(t); ok {
			out = append(out, iri)
		}
	}
	return out
}

// cursor encodes a keyset cursor. The empty cursor sorts before every term.
func cursor(after string) string {
	if after == "" {
		return ""
	}
	return enc(after)
}
