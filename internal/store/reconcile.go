package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/vocab"
)

// Orphans returns up to limit resources of the target graph that trace
// lineage to an agenda of scope but have no lineage edge at all in the
// scratch graph, ordered and strictly after the resource after.
func (s *Store) Orphans(ctx context.Context, scope graph.Scope, after string, limit int) ([]string, error) {
	if len(scope.Agendas) == 0 {
		return []string{}, nil
	}
	lin := enc(vocab.TracesLineageTo)
	agendas := encAll(scope.Agendas)
	query := fmt.Sprintf(
		`SELECT DISTINCT t.s FROM quads t
		 WHERE t.g = ? AND t.p = ? AND t.o IN (%s) AND t.s > ?
		 AND NOT EXISTS (
			-- no lineage at all in scratch
			SELECT 1 FROM quads x WHERE x.g = ? AND x.s = t.s AND x.p = ?
		 )
		 ORDER BY t.s LIMIT ?`,
		placeholders(len(agendas)))
	rows, err := s.db.QueryContext(ctx, query,
		args([]any{scope.Target, lin}, agendas, cursor(after), scope.Scratch, lin, limit)...)
	if err != nil {
		return nil, fmt.Errorf("orphans in %s: %w", scope.Target, err)
	}
	terms, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}
	return decodeIRIs(terms), nil
}

// StaleResources returns up to limit resources of the target graph that
// trace lineage to an agenda of scope and have at least one non-lineage
// triple, outgoing or incoming, that the scratch graph does not hold.
func (s *Store) StaleResources(ctx context.Context, scope graph.Scope, after string, limit int) ([]string, error) {
	if len(scope.Agendas) == 0 {
		return []string{}, nil
	}
	lin := enc(vocab.TracesLineageTo)
	agendas := encAll(scope.Agendas)
	query := fmt.Sprintf(
		`SELECT DISTINCT t.s FROM quads t
		 WHERE t.g = ? AND t.p = ? AND t.o IN (%s) AND t.s > ?
		 AND (
			EXISTS (
				SELECT 1 FROM quads a
				WHERE a.g = t.g AND a.s = t.s AND a.p <> ?
				AND NOT EXISTS (
					SELECT 1 FROM quads b
					WHERE b.g = ? AND b.s = a.s AND b.p = a.p AND b.o = a.o
				)
			)
			OR EXISTS (
				SELECT 1 FROM quads a
				WHERE a.g = t.g AND a.o = t.s AND a.p <> ?
				AND NOT EXISTS (
					SELECT 1 FROM quads b
					WHERE b.g = ? AND b.s = a.s AND b.p = a.p AND b.o = a.o
				)
			)
		 )
		 ORDER BY t.s LIMIT ?`,
		placeholders(len(agendas)))
	rows, err := s.db.QueryContext(ctx, query,
		args([]any{scope.Target, lin}, agendas,
			cursor(after), lin, scope.Scratch, lin, scope.Scratch, limit)...)
	if err != nil {
		return nil, fmt.Errorf("stale resources in %s: %w", scope.Target, err)
	}
	terms, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}
	return decodeIRIs(terms), nil
}

// StaleLineage returns up to limit lineage edges of the target graph to an
// agenda of scope that the scratch graph does not hold, ordered by
// (resource, agenda) and strictly after the edge after.
func (s *Store) StaleLineage(ctx context.Context, scope graph.Scope, after graph.Lineage, limit int) ([]graph.Lineage, error) {
	if len(scope.Agendas) == 0 {
		return []graph.Lineage{}, nil
	}
	lin := enc(vocab.TracesLineageTo)
	agendas := encAll(scope.Agendas)
	// Keyset cursor over (resource, agenda)
	afterS, afterO := cursor(after.Resource), cursor(after.Agenda)
	query := fmt.Sprintf(
		`SELECT t.s, t.o FROM quads t
		 WHERE t.g = ? AND t.p = ? AND t.o IN (%s)
		 AND (t.s > ? OR (t.s = ? AND t.o > ?))
		 AND NOT EXISTS (
			SELECT 1 FROM quads x
			WHERE x.g = ? AND x.s = t.s AND x.p = t.p AND x.o = t.o
		 )
		 ORDER BY t.s, t.o LIMIT ?`,
		placeholders(len(agendas)))
	rows, err := s.db.QueryContext(ctx, query,
		args([]any{scope.Target, lin}, agendas,
			afterS, afterS, afterO, scope.Scratch, limit)...)
	if err != nil {
		return nil, fmt.Errorf("stale lineage in %s: %w", scope.Target, err)
	}
	defer rows.Close()

	out := []graph.Lineage{}
	for rows.Next() {
		var sv, ov string
		if err := rows.Scan(&sv, &ov); err != nil {
			return nil, fmt.Errorf("scan lineage: %w", err)
		}
		r, ok1 := decIRI(sv)
		a, ok2 := decIRI(ov)
		if ok1 && ok2 {
			out = append(out, graph.Lineage{Resource: r, Agenda: a})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lineage: %w", err)
	}
	return out, nil
}

// PurgeResource removes every triple of g in which one of resources is the
// subject or the object.
func (s *Store) PurgeResource(ctx context.Context, g string, resources []string) error {
	if len(resources) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Chunked to stay under SQLite's bound-variable limit
		for _, chunk := range chunks(encAll(resources), maxVars) {
			ph := placeholders(len(chunk))
			query := fmt.Sprintf(
				`DELETE FROM quads WHERE g = ? AND (s IN (%s) OR o IN (%s))`, ph, ph)
			vals := args([]any{g}, chunk)
			vals = args(vals, chunk)
			if _, err := tx.ExecContext(ctx, query, vals...); err != nil {
				return fmt.Errorf("purge resources in %s: %w", g, err)
			}
		}
		return nil
	})
}

// DeleteLineage removes the given lineage edges from g.
func (s *Store) DeleteLineage(ctx context.Context, g string, edges []graph.Lineage) error {
	if len(edges) == 0 {
		return nil
	}
	lin := enc(vocab.TracesLineageTo)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`DELETE FROM quads WHERE g = ? AND s = ? AND p = ? AND o = ?`)
		if err != nil {
			return fmt.Errorf("prepare delete lineage: %w", err)
		}
		defer stmt.Close()
		for _, e := range edges {
			if _, err := stmt.ExecContext(ctx, g, enc(e.Resource), lin, enc(e.Agenda)); err != nil {
				return fmt.Errorf("delete lineage %s -> %s: %w", e.Resource, e.Agenda, err)
			}
		}
		return nil
	})
}
