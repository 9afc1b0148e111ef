package sparql

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/rdf"
)

// DefaultBatchSize bounds the triples or resources sent in one request.
const DefaultBatchSize = 500

// Store runs the graph operations of the distribution engine against a
// remote triple store.
//
// Thread-safety: Store is safe for concurrent use if its Client is.
type Store struct {
	client    Client
	batchSize int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithBatchSize sets how many triples or resources go into one request.
func WithBatchSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewStore creates a store on top of client.
func NewStore(client Client, opts ...StoreOption) *Store {
	s := &Store{client: client, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InsertData adds triples to graph g.
func (s *Store) InsertData(ctx context.Context, g string, triples []rdf.Triple) error {
	for batch := range slices.Chunk(triples, s.batchSize) {
		if err := s.client.Update(ctx, insertDataQuery(g, batch)); err != nil {
			return fmt.Errorf("insert into %s: %w", g, err)
		}
	}
	return nil
}

// InsertQuads adds quads to their graphs, one request per graph batch.
func (s *Store) InsertQuads(ctx context.Context, quads []rdf.Quad) error {
	byGraph := map[string][]rdf.Triple{}
	for _, q := range quads {
		if q.Graph == "" {
			return fmt.Errorf("quad %s has no graph", q.Triple)
		}
		byGraph[q.Graph] = append(byGraph[q.Graph], q.Triple)
	}
	graphs := make([]string, 0, len(byGraph))
	for g := range byGraph {
		graphs = append(graphs, g)
	}
	sort.Strings(graphs)
	for _, g := range graphs {
		if err := s.InsertData(ctx, g, byGraph[g]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteData removes triples from graph g.
func (s *Store) DeleteData(ctx context.Context, g string, triples []rdf.Triple) error {
	for batch := range slices.Chunk(triples, s.batchSize) {
		if err := s.client.Update(ctx, deleteDataQuery(g, batch)); err != nil {
			return fmt.Errorf("delete from %s: %w", g, err)
		}
	}
	return nil
}

// DropGraph removes every triple of g.
func (s *Store) DropGraph(ctx context.Context, g string) error {
	if err := s.client.Update(ctx, dropGraphQuery(g)); err != nil {
		return fmt.Errorf("drop %s: %w", g, err)
	}
	return nil
}

// AddGraph copies every triple of from into to, keeping what to holds.
func (s *Store) AddGraph(ctx context.Context, from, to string) error {
	if err := s.client.Update(ctx, addGraphQuery(from, to)); err != nil {
		return fmt.Errorf("add %s to %s: %w", from, to, err)
	}
	return nil
}

// CountMissing counts the triples of from that to lacks, ignoring triples
// about exclude.
func (s *Store) CountMissing(ctx context.Context, from, to, exclude string) (int, error) {
	res, err := s.client.Query(ctx, countMissingQuery(from, to, exclude))
	if err != nil {
		return 0, fmt.Errorf("count missing in %s: %w", to, err)
	}
	return res.Int("count")
}

// CopyMissing copies up to limit triples of from that to lacks.
func (s *Store) CopyMissing(ctx context.Context, from, to, exclude string, limit int) error {
	if err := s.client.Update(ctx, copyMissingQuery(from, to, exclude, limit)); err != nil {
		return fmt.Errorf("copy missing into %s: %w", to, err)
	}
	return nil
}

// TypeCounts returns the number of distinct resources per type in g,
// ordered by type. Types in exclude are skipped.
func (s *Store) TypeCounts(ctx context.Context, g string, exclude ...string) ([]graph.TypeCount, error) {
	res, err := s.client.Query(ctx, typeCountsQuery(g))
	if err != nil {
		return nil, fmt.Errorf("type counts for %s: %w", g, err)
	}
	out := []graph.TypeCount{}
	for _, row := range res.Results.Bindings {
		typ, count := row["type"], row["count"]
		if typ.Type != "uri" || slices.Contains(exclude, typ.Value) {
			continue
		}
		var n int
		if _, err := fmt.Sscan(count.Value, &n); err != nil {
			return nil, fmt.Errorf("%w: count %q", ErrMalformedResponse, count.Value)
		}
		out = append(out, graph.TypeCount{Type: typ.Value, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// ResourcePage returns up to limit resources of type typ in g, ordered and
// strictly after after.
func (s *Store) ResourcePage(ctx context.Context, g, typ, after string, limit int) ([]string, error) {
	return s.iris(ctx, resourcePageQuery(g, typ, after, limit), "s")
}

// CountResources counts the distinct subjects of g.
func (s *Store) CountResources(ctx context.Context, g string) (int, error) {
	res, err := s.client.Query(ctx, countResourcesQuery(g))
	if err != nil {
		return 0, fmt.Errorf("count resources in %s: %w", g, err)
	}
	return res.Int("count")
}

// Triples returns every triple of g, sorted.
func (s *Store) Triples(ctx context.Context, g string) ([]rdf.Triple, error) {
	res, err := s.client.Query(ctx, triplesQuery(g))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", g, err)
	}
	out := make([]rdf.Triple, 0, len(res.Results.Bindings))
	for _, row := range res.Results.Bindings {
		var t rdf.Triple
		if t.S, err = row["s"].Term(); err != nil {
			return nil, err
		}
		if t.P, err = row["p"].Term(); err != nil {
			return nil, err
		}
		if t.O, err = row["o"].Term(); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	rdf.SortTriples(out)
	return out, nil
}

// Contains reports whether g holds t.
func (s *Store) Contains(ctx context.Context, g string, t rdf.Triple) (bool, error) {
	res, err := s.client.Query(ctx, containsQuery(g, t))
	if err != nil {
		return false, fmt.Errorf("contains: %w", err)
	}
	if res.Boolean == nil {
		return false, fmt.Errorf("%w: ASK without boolean", ErrMalformedResponse)
	}
	return *res.Boolean, nil
}

// Graphs lists every non-empty graph with its triple count.
func (s *Store) Graphs(ctx context.Context) ([]graph.GraphStat, error) {
	res, err := s.client.Query(ctx, graphsQuery())
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	out := []graph.GraphStat{}
	for _, row := range res.Results.Bindings {
		var n int
		if _, err := fmt.Sscan(row["count"].Value, &n); err != nil {
			return nil, fmt.Errorf("%w: count %q", ErrMalformedResponse, row["count"].Value)
		}
		out = append(out, graph.GraphStat{Graph: row["g"].Value, Triples: n})
	}
	return out, nil
}

// SeedAgendas inserts the selected agendas into the scratch graph with a
// lineage edge to themselves.
func (s *Store) SeedAgendas(ctx context.Context, seed graph.AgendaSeed) error {
	if err := seed.Validate(); err != nil {
		return err
	}
	if err := s.client.Update(ctx, seedAgendasQuery(seed)); err != nil {
		return fmt.Errorf("seed agendas: %w", err)
	}
	return nil
}

// InsertReachable runs one collection traversal as a single update.
func (s *Store) InsertReachable(ctx context.Context, t graph.Traversal) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.client.Update(ctx, insertReachableQuery(t)); err != nil {
		return fmt.Errorf("traversal from %s: %w", t.Anchor, err)
	}
	return nil
}

// CopyDetails copies every outgoing and incoming triple of resources from
// source into scratch.
func (s *Store) CopyDetails(ctx context.Context, source, scratch string, resources []string) error {
	for batch := range slices.Chunk(resources, s.batchSize) {
		if err := s.client.Update(ctx, copyDetailsQuery(source, scratch, batch)); err != nil {
			return fmt.Errorf("copy details into %s: %w", scratch, err)
		}
	}
	return nil
}

// DeleteByTypePredicate removes every predicate triple whose subject has
// type typ in g.
func (s *Store) DeleteByTypePredicate(ctx context.Context, g, typ, predicate string) error {
	if err := s.client.Update(ctx, deleteByTypePredicateQuery(g, typ, predicate)); err != nil {
		return fmt.Errorf("delete %s of %s in %s: %w", predicate, typ, g, err)
	}
	return nil
}

// PruneUnlineaged removes every triple of g whose subject has no lineage
// edge in g. Triples about keep are left alone.
func (s *Store) PruneUnlineaged(ctx context.Context, g, keep string) error {
	if err := s.client.Update(ctx, pruneUnlineagedQuery(g, keep)); err != nil {
		return fmt.Errorf("prune unlineaged in %s: %w", g, err)
	}
	return nil
}

// PruneHiddenReferences removes triples of scratch pointing at typed
// resources of source that have no lineage in scratch.
func (s *Store) PruneHiddenReferences(ctx context.Context, source, scratch string) error {
	if err := s.client.Update(ctx, pruneHiddenReferencesQuery(source, scratch)); err != nil {
		return fmt.Errorf("prune hidden references in %s: %w", scratch, err)
	}
	return nil
}

// Orphans returns target resources of scope without any lineage in the
// scratch graph.
func (s *Store) Orphans(ctx context.Context, scope graph.Scope, after string, limit int) ([]string, error) {
	if len(scope.Agendas) == 0 {
		return []string{}, nil
	}
	return s.iris(ctx, orphansQuery(scope, after, limit), "resource")
}

// StaleResources returns target resources of scope holding a non-lineage
// triple the scratch graph lacks.
func (s *Store) StaleResources(ctx context.Context, scope graph.Scope, after string, limit int) ([]string, error) {
	if len(scope.Agendas) == 0 {
		return []string{}, nil
	}
	return s.iris(ctx, staleResourcesQuery(scope, after, limit), "resource")
}

// StaleLineage returns lineage edges of the target graph to agendas of
// scope that the scratch graph does not hold.
func (s *Store) StaleLineage(ctx context.Context, scope graph.Scope, after graph.Lineage, limit int) ([]graph.Lineage, error) {
	if len(scope.Agendas) == 0 {
		return []graph.Lineage{}, nil
	}
	res, err := s.client.Query(ctx, staleLineageQuery(scope, after, limit))
	if err != nil {
		return nil, fmt.Errorf("stale lineage in %s: %w", scope.Target, err)
	}
	out := make([]graph.Lineage, 0, len(res.Results.Bindings))
	for _, row := range res.Results.Bindings {
		r, a := row["resource"], row["agenda"]
		if r.Type != "uri" || a.Type != "uri" {
			continue
		}
		out = append(out, graph.Lineage{Resource: r.Value, Agenda: a.Value})
	}
	return out, nil
}

// PurgeResource removes every triple of g with one of resources as subject
// or object.
func (s *Store) PurgeResource(ctx context.Context, g string, resources []string) error {
	for batch := range slices.Chunk(resources, s.batchSize) {
		if err := s.client.Update(ctx, purgeResourceQuery(g, batch)); err != nil {
			return fmt.Errorf("purge resources in %s: %w", g, err)
		}
	}
	return nil
}

// DeleteLineage removes the given lineage edges from g.
func (s *Store) DeleteLineage(ctx context.Context, g string, edges []graph.Lineage) error {
	for batch := range slices.Chunk(edges, s.batchSize) {
		if err := s.client.Update(ctx, deleteLineageQuery(g, batch)); err != nil {
			return fmt.Errorf("delete lineage in %s: %w", g, err)
		}
	}
	return nil
}

// ReachableAgendas returns the resources of type r.Target reachable from
// the subjects of type r.Type via any of r.Paths.
func (s *Store) ReachableAgendas(ctx context.Context, r graph.Reach) ([]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if len(r.Subjects) == 0 {
		return []string{}, nil
	}
	out, err := s.iris(ctx, reachableAgendasQuery(r), "agenda")
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return slices.Compact(out), nil
}

func (s *Store) iris(ctx context.Context, query, name string) ([]string, error) {
	res, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return res.IRIs(name), nil
}
