package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/yggdrasil/internal/rdf"
)

// INSERT OR IGNORE makes every write idempotent: re-inserting a stored
// triple is a no-op on the primary key.
const insertQuadSQL = `INSERT OR IGNORE INTO quads (g, s, p, o) VALUES (?, ?, ?, ?)`

// InsertData adds triples to a graph. Triples already present are ignored.
func (s *Store) InsertData(ctx context.Context, graph string, triples []rdf.Triple) error {
	if len(triples) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertTriples(ctx, tx, graph, triples)
	})
}

// InsertQuads adds quads to their graphs. Used by the loader and fixtures.
func (s *Store) InsertQuads(ctx context.Context, quads []rdf.Quad) error {
	if len(quads) == 0 {
		return nil
	}
	// One transaction and one prepared statement for the whole batch
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertQuadSQL)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()
		for _, q := range quads {
			// Quads are always stored in a named graph
			if q.Graph == "" {
				return fmt.Errorf("quad %s has no graph", q.Triple)
			}
			if _, err := stmt.ExecContext(ctx, q.Graph, q.S.String(), q.P.String(), q.O.String()); err != nil {
				return fmt.Errorf("insert quad: %w", err)
			}
		}
		return nil
	})
}

func insertTriples(ctx context.Context, tx *sql.Tx, graph string, triples []rdf.Triple) error {
	stmt, err := tx.PrepareContext(ctx, insertQuadSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, t := range triples {
		if _, err := stmt.ExecContext(ctx, graph, t.S.String(), t.P.String(), t.O.String()); err != nil {
			return fmt.Errorf("insert triple into %s: %w", graph, err)
		}
	}
	return nil
}

// DeleteData removes triples from a graph. Absent triples are ignored.
func (s *Store) DeleteData(ctx context.Context, graph string, triples []rdf.Triple) error {
	if len(triples) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`DELETE FROM quads WHERE g = ? AND s = ? AND p = ? AND o = ?`)
		if err != nil {
			return fmt.Errorf("prepare delete: %w", err)
		}
		defer stmt.Close()
		for _, t := range triples {
			if _, err := stmt.ExecContext(ctx, graph, t.S.String(), t.P.String(), t.O.String()); err != nil {
				return fmt.Errorf("delete triple from %s: %w", graph, err)
			}
		}
		return nil
	})
}

// DropGraph removes every triple of a graph. Dropping an empty or unknown
// graph is not an error.
func (s *Store) DropGraph(ctx context.Context, graph string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM quads WHERE g = ?`, graph); err != nil {
		return fmt.Errorf("drop graph %s: %w", graph, err)
	}
	return nil
}

// AddGraph inserts every triple of from into to, leaving to's other triples
// in place.
func (s *Store) AddGraph(ctx context.Context, from, to string) error {
	// Single statement: SQLite copies the rows without a round trip per
	// triple. Triples already in to are skipped.
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO quads (g, s, p, o)
		 SELECT ?, s, p, o FROM quads WHERE g = ?`, to, from)
	if err != nil {
		return fmt.Errorf("add graph %s to %s: %w", from, to, err)
	}
	return nil
}

// missingWhere selects triples a of one graph that another graph lacks.
// Parameters: source graph, excluded subject (encoded), target graph.
const missingWhere = `a.g = ? AND a.s <> ?
	AND NOT EXISTS (
		SELECT 1 FROM quads b
		WHERE b.g = ? AND b.s = a.s AND b.p = a.p AND b.o = a.o
	)`

// CountMissing counts the triples of from that are absent in to, ignoring
// triples whose subject is exclude.
func (s *Store) CountMissing(ctx context.Context, from, to, exclude string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quads a WHERE `+missingWhere,
		from, enc(exclude), to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count missing %s -> %s: %w", from, to, err)
	}
	return n, nil
}

// CopyMissing inserts at most limit triples of from that are absent in to.
// Repeated calls make progress without an offset because every call shrinks
// the missing set.
func (s *Store) CopyMissing(ctx context.Context, from, to, exclude string, limit int) error {
	// Ordered so every batch is deterministic
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO quads (g, s, p, o)
		 SELECT ?, a.s, a.p, a.o FROM quads a
		 WHERE `+missingWhere+`
		 ORDER BY a.s, a.p, a.o
		 LIMIT ?`,
		to, from, enc(exclude), to, limit)
	if err != nil {
		return fmt.Errorf("copy missing %s -> %s: %w", from, to, err)
	}
	return nil
}
