package distribution

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/vocab"
)

// Store is the set of graph operations a run needs. It is implemented by
// the embedded SQLite store and by the SPARQL store.
type Store interface {
	InsertData(ctx context.Context, g string, triples []rdf.Triple) error
	DeleteData(ctx context.Context, g string, triples []rdf.Triple) error
	DropGraph(ctx context.Context, g string) error
	AddGraph(ctx context.Context, from, to string) error
	CountMissing(ctx context.Context, from, to, exclude string) (int, error)
	CopyMissing(ctx context.Context, from, to, exclude string, limit int) error

	TypeCounts(ctx context.Context, g string, exclude ...string) ([]graph.TypeCount, error)
	ResourcePage(ctx context.Context, g, typ, after string, limit int) ([]string, error)

	SeedAgendas(ctx context.Context, seed graph.AgendaSeed) error
	InsertReachable(ctx context.Context, t graph.Traversal) error
	CopyDetails(ctx context.Context, source, scratch string, resources []string) error
	DeleteByTypePredicate(ctx context.Context, g, typ, predicate string) error
	PruneUnlineaged(ctx context.Context, g, keep string) error
	PruneHiddenReferences(ctx context.Context, source, scratch string) error

	Orphans(ctx context.Context, scope graph.Scope, after string, limit int) ([]string, error)
	StaleResources(ctx context.Context, scope graph.Scope, after string, limit int) ([]string, error)
	StaleLineage(ctx context.Context, scope graph.Scope, after graph.Lineage, limit int) ([]graph.Lineage, error)
	PurgeResource(ctx context.Context, g string, resources []string) error
	DeleteLineage(ctx context.Context, g string, edges []graph.Lineage) error
}

// Collector adds one kind of resource to a run's scratch graph.
//
// Collect may assume every resource it anchors on is already in scratch
// with its lineage. It must tag everything it inserts with lineage to the
// agendas it was reached from. Collectors are idempotent and only add.
type Collector interface {
	Name() string
	Collect(ctx context.Context, run *Run) error
}

// Scope selects the agendas a run recomputes.
type Scope struct {
	Agendas []string `json:"agendas,omitempty"`

	// Initial skips reconciliation: the target is assumed empty.
	Initial bool `json:"initial,omitempty"`

	// All selects every agenda in the source graph.
	All bool `json:"all,omitempty"`
}

// Validate rejects a scope that selects nothing.
func (s Scope) Validate() error {
	if !s.All && len(s.Agendas) == 0 {
		return errors.New("scope selects no agendas")
	}
	return nil
}

// Run is the state one distribution run hands to its collectors.
type Run struct {
	Profile Profile
	Scope   Scope
	Scratch string
	Store   Store

	pageSize int
}

// Seed inserts agendas from the source graph into scratch.
func (r *Run) Seed(ctx context.Context, seed graph.AgendaSeed) error {
	seed.Source = r.Profile.Source
	seed.Scratch = r.Scratch
	return r.Store.SeedAgendas(ctx, seed)
}

// Traverse runs one collection traversal from source into scratch.
func (r *Run) Traverse(ctx context.Context, t graph.Traversal) error {
	t.Source = r.Profile.Source
	t.Scratch = r.Scratch
	return r.Store.InsertReachable(ctx, t)
}

// Agendas returns every agenda collected in scratch so far, sorted.
func (r *Run) Agendas(ctx context.Context) ([]string, error) {
	return allOfType(ctx, r.Store, r.Scratch, vocab.Agenda, r.pageSize)
}

func allOfType(ctx context.Context, s Store, g, typ string, pageSize int) ([]string, error) {
	if pageSize <= 0 {
		pageSize = DefaultResourcePageSize
	}
	var out []string
	after := ""
	for {
		page, err := s.ResourcePage(ctx, g, typ, after, pageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
		after = page[len(page)-1]
	}
}

// Stage names one step of a run.
type Stage string

const (
	StageStage     Stage = "stage"
	StageCollect   Stage = "collect"
	StageDetails   Stage = "details"
	StageFilter    Stage = "filter"
	StageReconcile Stage = "reconcile"
	StageCopy      Stage = "copy"
	StageDispose   Stage = "dispose"
)

// StageResult is the outcome of one stage.
type StageResult struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration"`
	Skipped  bool          `json:"skipped,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// RunResult reports what a run did.
type RunResult struct {
	Profile string        `json:"profile"`
	Scope   Scope         `json:"scope"`
	Scratch string        `json:"scratch,omitempty"`
	Stages  []StageResult `json:"stages"`

	// Collected is the scratch summary taken before detail collection.
	Collected []graph.TypeCount `json:"collected,omitempty"`

	// EndedEarly is set when a collector reported nothing to collect.
	EndedEarly bool `json:"ended_early,omitempty"`

	Orphans        int `json:"orphans"`
	Stale          int `json:"stale"`
	LineageRemoved int `json:"lineage_removed"`
	Copied         int `json:"copied"`

	Err              error `json:"-"`
	CleanupAttempted bool  `json:"cleanup_attempted"`
	CleanupErr       error `json:"-"`

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// OK reports whether the run succeeded.
func (r RunResult) OK() bool {
	return r.Err == nil
}
