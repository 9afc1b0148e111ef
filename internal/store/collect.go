package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/vocab"
)

// SeedAgendas inserts the selected agendas of the source graph into the
// scratch graph, typed and with a lineage edge to themselves.
func (s *Store) SeedAgendas(ctx context.Context, seed graph.AgendaSeed) error {
	if err := seed.Validate(); err != nil {
		return err
	}

	var candidates []string
	var err error
	if seed.All {
		candidates, err = subjectsOfType(ctx, s.db, seed.Source, vocab.Agenda, nil)
	} else {
		candidates, err = subjectsOfType(ctx, s.db, seed.Source, vocab.Agenda, encAll(seed.Agendas))
	}
	if err != nil {
		return fmt.Errorf("seed agendas: %w", err)
	}

	conds := newConditionCache(s.db, seed.Source)
	agendas, err := conds.filter(ctx, seed.Where, graph.OnResource, candidates)
	if err != nil {
		return fmt.Errorf("seed agendas: %w", err)
	}
	if len(agendas) == 0 {
		return nil
	}

	typ, lineage := enc(vocab.Type), enc(vocab.TracesLineageTo)
	rows := make([][3]string, 0, 2*len(agendas))
	for _, a := range agendas {
		rows = append(rows, [3]string{a, typ, enc(vocab.Agenda)}, [3]string{a, lineage, a})
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertEncoded(ctx, tx, seed.Scratch, rows)
	})
}

// InsertReachable runs one collection traversal. For every anchor in the
// scratch graph it follows the path through the source graph and inserts
// each reached typed resource, plus a lineage edge to every agenda of the
// anchor that satisfies the agenda conditions.
func (s *Store) InsertReachable(ctx context.Context, t graph.Traversal) error {
	if err := t.Validate(); err != nil {
		return err
	}

	anchors, err := subjectsOfType(ctx, s.db, t.Scratch, t.Anchor, nil)
	if err != nil {
		return fmt.Errorf("traversal anchors: %w", err)
	}
	if len(anchors) == 0 {
		return nil
	}

	srcConds := newConditionCache(s.db, t.Source)
	anchors, err = srcConds.filter(ctx, t.Where, graph.OnAnchor, anchors)
	if err != nil {
		return err
	}

	lineage, err := lineageOf(ctx, s.db, t.Scratch, anchors)
	if err != nil {
		return err
	}

	reached, err := walk(ctx, s.db, t.Source, anchors, t.Path)
	if err != nil {
		return fmt.Errorf("traversal from %s: %w", t.Anchor, err)
	}

	all := nodeSet{}
	for _, set := range reached {
		for n := range set {
			if len(n) > 0 && n[0] == '<' {
				all.add(n)
			}
		}
	}
	types, err := typesOf(ctx, s.db, t.Source, all.keys())
	if err != nil {
		return err
	}
	wantTypes := nodeSet{}
	for _, typ := range t.Types {
		wantTypes.add(enc(typ))
	}

	var candidates []string
	for n := range all {
		if len(matchTypes(types[n], wantTypes)) > 0 {
			candidates = append(candidates, n)
		}
	}
	candidates, err = srcConds.filter(ctx, t.Where, graph.OnResource, candidates)
	if err != nil {
		return err
	}
	accepted := nodeSet{}
	for _, c := range candidates {
		accepted.add(c)
	}

	agendaSet := nodeSet{}
	for _, as := range lineage {
		for _, a := range as {
			agendaSet.add(a)
		}
	}
	agendas, err := srcConds.filter(ctx, t.Where, graph.OnAgenda, agendaSet.keys())
	if err != nil {
		return err
	}
	releasedAgenda := nodeSet{}
	for _, a := range agendas {
		releasedAgenda.add(a)
	}

	typ, lin := enc(vocab.Type), enc(vocab.TracesLineageTo)
	seen := map[[3]string]bool{}
	var rows [][3]string
	emit := func(r [3]string) {
		if !seen[r] {
			seen[r] = true
			rows = append(rows, r)
		}
	}
	for _, anchor := range anchors {
		var edges []string
		for _, a := range lineage[anchor] {
			if releasedAgenda.has(a) {
				edges = append(edges, a)
			}
		}
		if len(edges) == 0 {
			continue
		}
		for n := range reached[anchor] {
			if !accepted.has(n) {
				continue
			}
			if t.AssignType != "" {
				emit([3]string{n, typ, enc(t.AssignType)})
			} else {
				for _, ty := range matchTypes(types[n], wantTypes) {
					emit([3]string{n, typ, ty})
				}
			}
			for _, a := range edges {
				emit([3]string{n, lin, a})
			}
		}
	}
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool {
		for k := 0; k < 3; k++ {
			if rows[i][k] != rows[j][k] {
				return rows[i][k] < rows[j][k]
			}
		}
		return false
	})
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertEncoded(ctx, tx, t.Scratch, rows)
	})
}

// CopyDetails copies every outgoing and incoming triple of resources from
// source into scratch.
func (s *Store) CopyDetails(ctx context.Context, source, scratch string, resources []string) error {
	if len(resources) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, chunk := range chunks(encAll(resources), maxVars) {
			for _, col := range []string{"s", "o"} {
				query := fmt.Sprintf(
					`INSERT OR IGNORE INTO quads (g, s, p, o)
					 SELECT ?, s, p, o FROM quads WHERE g = ? AND %s IN (%s)`,
					col, placeholders(len(chunk)))
				if _, err := tx.ExecContext(ctx, query, args([]any{scratch, source}, chunk)...); err != nil {
					return fmt.Errorf("copy details (%s) into %s: %w", col, scratch, err)
				}
			}
		}
		return nil
	})
}

// DeleteByTypePredicate removes every predicate triple whose subject has
// type typ in graph g.
func (s *Store) DeleteByTypePredicate(ctx context.Context, g, typ, predicate string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM quads
		 WHERE g = ? AND p = ?
		 AND s IN (SELECT s FROM quads WHERE g = ? AND p = ? AND o = ?)`,
		g, enc(predicate), g, enc(vocab.Type), enc(typ))
	if err != nil {
		return fmt.Errorf("delete %s of %s in %s: %w", predicate, typ, g, err)
	}
	return nil
}

// PruneUnlineaged removes every triple of g whose subject has no lineage
// edge in g. Triples about keep are left alone.
func (s *Store) PruneUnlineaged(ctx context.Context, g, keep string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM quads
		 WHERE g = ? AND s <> ?
		 AND s NOT IN (SELECT s FROM quads WHERE g = ? AND p = ?)`,
		g, enc(keep), g, enc(vocab.TracesLineageTo))
	if err != nil {
		return fmt.Errorf("prune unlineaged in %s: %w", g, err)
	}
	return nil
}

// PruneHiddenReferences removes triples of scratch that point at a typed
// resource of source which has no lineage in scratch. Type triples are
// kept.
func (s *Store) PruneHiddenReferences(ctx context.Context, source, scratch string) error {
	typ := enc(vocab.Type)
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM quads
		 WHERE g = ? AND p <> ?
		 AND o IN (SELECT s FROM quads WHERE g = ? AND p = ?)
		 AND o NOT IN (SELECT s FROM quads WHERE g = ? AND p = ?)`,
		scratch, typ, source, typ, scratch, enc(vocab.TracesLineageTo))
	if err != nil {
		return fmt.Errorf("prune hidden references in %s: %w", scratch, err)
	}
	return nil
}

// subjectsOfType returns the encoded subjects of type typ in g, restricted
// to within when it is non-nil.
func subjectsOfType(ctx context.Context, q querier, g, typ string, within []string) ([]string, error) {
	if within == nil {
		rows, err := q.QueryContext(ctx,
			`SELECT DISTINCT s FROM quads WHERE g = ? AND p = ? AND o = ? ORDER BY s`,
			g, enc(vocab.Type), enc(typ))
		if err != nil {
			return nil, fmt.Errorf("subjects of %s: %w", typ, err)
		}
		return scanStrings(rows)
	}

	var out []string
	for _, chunk := range chunks(within, maxVars) {
		query := fmt.Sprintf(
			`SELECT DISTINCT s FROM quads WHERE g = ? AND p = ? AND o = ? AND s IN (%s) ORDER BY s`,
			placeholders(len(chunk)))
		rows, err := q.QueryContext(ctx, query, args([]any{g, enc(vocab.Type), enc(typ)}, chunk)...)
		if err != nil {
			return nil, fmt.Errorf("subjects of %s: %w", typ, err)
		}
		found, err := scanStrings(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	sort.Strings(out)
	return out, nil
}

// lineageOf returns the encoded agendas each node traces lineage to in g.
func lineageOf(ctx context.Context, q querier, g string, nodes []string) (map[string][]string, error) {
	return objectsOf(ctx, q, g, vocab.TracesLineageTo, nodes)
}

// typesOf returns the encoded rdf:types of each node in g.
func typesOf(ctx context.Context, q querier, g string, nodes []string) (map[string][]string, error) {
	return objectsOf(ctx, q, g, vocab.Type, nodes)
}

func objectsOf(ctx context.Context, q querier, g, pred string, nodes []string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, chunk := range chunks(nodes, maxVars) {
		query := fmt.Sprintf(
			`SELECT s, o FROM quads WHERE g = ? AND p = ? AND s IN (%s) ORDER BY s, o`,
			placeholders(len(chunk)))
		rows, err := q.QueryContext(ctx, query, args([]any{g, enc(pred)}, chunk)...)
		if err != nil {
			return nil, fmt.Errorf("objects of %s: %w", pred, err)
		}
		for rows.Next() {
			var sv, ov string
			if err := rows.Scan(&sv, &ov); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s: %w", pred, err)
			}
			out[sv] = append(out[sv], ov)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate %s: %w", pred, err)
		}
	}
	return out, nil
}

// matchTypes returns the IRI types in have that are in want, or every IRI
// type when want is empty.
func matchTypes(have []string, want nodeSet) []string {
	var out []string
	for _, t := range have {
		if len(t) == 0 || t[0] != '<' {
			continue
		}
		if len(want) == 0 || want.has(t) {
			out = append(out, t)
		}
	}
	return out
}

// insertEncoded inserts rows of already encoded (s, p, o) terms.
func insertEncoded(ctx context.Context, tx *sql.Tx, g string, rows [][3]string) error {
	stmt, err := tx.PrepareContext(ctx, insertQuadSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, g, r[0], r[1], r[2]); err != nil {
			return fmt.Errorf("insert into %s: %w", g, err)
		}
	}
	return nil
}
