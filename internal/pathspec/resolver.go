package pathspec

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/vocab"
)

// DefaultChunkSize bounds the number of subjects sent in one store call.
const DefaultChunkSize = 100

// Reacher answers reachability questions against the source graph.
type Reacher interface {
	ReachableAgendas(ctx context.Context, r graph.Reach) ([]string, error)
}

// Resolver maps changed subjects to the agendas they affect.
//
// Thread-safety: Resolver is immutable after construction and safe for
// concurrent use if its Reacher is.
type Resolver struct {
	store      Reacher
	table      *Flattened
	graph      string
	agendaType string
	chunkSize  int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithChunkSize sets how many subjects go into one store call.
func WithChunkSize(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// WithAgendaType overrides the class subjects resolve to.
func WithAgendaType(iri string) ResolverOption {
	return func(r *Resolver) {
		r.agendaType = iri
	}
}

// NewResolver creates a resolver over the source graph.
func NewResolver(store Reacher, table *Flattened, source string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:      store,
		table:      table,
		graph:      source,
		agendaType: vocab.Agenda,
		chunkSize:  DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the sorted, deduplicated agendas reachable from subjects.
// A subject that is itself an agenda resolves to itself. Subjects of no
// known type resolve to nothing.
func (r *Resolver) Resolve(ctx context.Context, subjects []string) ([]string, error) {
	start := time.Now()
	unique := slices.Clone(subjects)
	sort.Strings(unique)
	unique = slices.Compact(unique)
	if len(unique) > 0 && unique[0] == "" {
		unique = unique[1:]
	}
	if len(unique) == 0 {
		return []string{}, nil
	}
	slog.Debug("resolving subjects", "count", len(unique), "subjects", unique)

	found := map[string]bool{}
	for chunk := range slices.Chunk(unique, r.chunkSize) {
		reaches := make([]graph.Reach, 0, len(r.table.Names)+1)
		reaches = append(reaches, graph.Reach{
			Graph:    r.graph,
			Subjects: chunk,
			Type:     r.agendaType,
			Paths:    []rdf.Path{nil},
			Target:   r.agendaType,
		})
		for _, name := range r.table.Names {
			paths := r.table.Paths[name]
			if len(paths) == 0 {
				continue
			}
			reaches = append(reaches, graph.Reach{
				Graph:    r.graph,
				Subjects: chunk,
				Type:     r.table.Types[name],
				Paths:    paths,
				Target:   r.agendaType,
			})
		}

		for _, reach := range reaches {
			agendas, err := r.store.ReachableAgendas(ctx, reach)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", reach.Type, err)
			}
			for _, a := range agendas {
				found[a] = true
			}
		}
	}

	out := make([]string, 0, len(found))
	for a := range found {
		out = append(out, a)
	}
	sort.Strings(out)
	slog.Debug("resolved agendas",
		"subjects", len(unique),
		"agendas", len(out),
		"duration", time.Since(start))
	return out, nil
}
