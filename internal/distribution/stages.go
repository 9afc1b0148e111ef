package distribution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/observability"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/vocab"
)

func sentinel(scratch string) rdf.Triple {
	return rdf.NewTriple(scratch, vocab.Type, rdf.NewIRI(vocab.TempGraph))
}

// stageScratch marks the scratch graph so it can be recognised and
// cleaned up if the process dies mid-run.
func (e *Engine) stageScratch(ctx context.Context, run *Run, _ *RunResult) error {
	return e.store.InsertData(ctx, run.Scratch, []rdf.Triple{sentinel(run.Scratch)})
}

func (e *Engine) collect(ctx context.Context, run *Run, res *RunResult) error {
	for _, c := range e.profile.Collectors {
		start := time.Now()
		err := c.Collect(ctx, run)
		if errors.Is(err, ErrNothingCollected) {
			slog.Info("collection ended early", "profile", e.profile.Name, "collector", c.Name())
			res.EndedEarly = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("collector %s: %w", c.Name(), err)
		}
		slog.Debug("collector finished", "profile", e.profile.Name, "collector", c.Name(), "duration", time.Since(start))
	}
	return nil
}

// collectDetails copies the outgoing and incoming triples of every
// collected resource, type by type, one keyset page at a time.
func (e *Engine) collectDetails(ctx context.Context, run *Run, res *RunResult) error {
	counts, err := e.store.TypeCounts(ctx, run.Scratch, vocab.TempGraph)
	if err != nil {
		return err
	}
	res.Collected = counts

	attrs := make([]any, 0, 2*len(counts)+2)
	attrs = append(attrs, "profile", e.profile.Name)
	for _, tc := range counts {
		attrs = append(attrs, tc.Type, tc.Count)
	}
	slog.Info("scratch graph summary", attrs...)

	for _, tc := range counts {
		after, pages := "", 0
		for {
			page, err := e.store.ResourcePage(ctx, run.Scratch, tc.Type, after, e.pageSize)
			if err != nil {
				return fmt.Errorf("page %s: %w", tc.Type, err)
			}
			if len(page) == 0 {
				break
			}
			if err := e.store.CopyDetails(ctx, e.profile.Source, run.Scratch, page); err != nil {
				return fmt.Errorf("details of %s: %w", tc.Type, err)
			}
			pages++
			after = page[len(page)-1]
			if len(page) < e.pageSize {
				break
			}
		}
		slog.Debug("collected details", "profile", e.profile.Name, "type", tc.Type, "pages", pages)
	}
	return nil
}

func (e *Engine) filter(ctx context.Context, run *Run, _ *RunResult) error {
	for _, d := range e.profile.Denylist {
		if err := e.store.DeleteByTypePredicate(ctx, run.Scratch, d.Type, d.Predicate); err != nil {
			return err
		}
	}
	if err := e.store.PruneUnlineaged(ctx, run.Scratch, run.Scratch); err != nil {
		return err
	}
	if e.profile.PruneHiddenReferences {
		return e.store.PruneHiddenReferences(ctx, e.profile.Source, run.Scratch)
	}
	return nil
}

// inScope returns the sorted agendas whose published data this run
// replaces.
func (e *Engine) inScope(ctx context.Context, run *Run) ([]string, error) {
	agendas := slices.Clone(run.Scope.Agendas)
	collected, err := allOfType(ctx, e.store, run.Scratch, vocab.Agenda, e.pageSize)
	if err != nil {
		return nil, err
	}
	agendas = append(agendas, collected...)
	if run.Scope.All {
		published, err := allOfType(ctx, e.store, e.profile.Target, vocab.Agenda, e.pageSize)
		if err != nil {
			return nil, err
		}
		agendas = append(agendas, published...)
	}
	sort.Strings(agendas)
	return slices.Compact(agendas), nil
}

// reconcile removes what the previous publication holds for the in-scope
// agendas but this run no longer produces: orphaned resources, resources
// with stale properties and stale lineage edges. Resources purged here are
// copied back in full when they are still visible.
func (e *Engine) reconcile(ctx context.Context, run *Run, res *RunResult) error {
	agendas, err := e.inScope(ctx, run)
	if err != nil {
		return err
	}
	slog.Info("reconciling published data", "profile", e.profile.Name, "agendas", len(agendas))

	var scopes []graph.Scope
	for chunk := range slices.Chunk(agendas, e.pageSize) {
		scopes = append(scopes, graph.Scope{Target: e.profile.Target, Scratch: run.Scratch, Agendas: chunk})
	}

	// Purging a resource also removes the lineage edges pointing at it, so
	// each set is read in full before anything is deleted.
	orphans, err := e.gather(ctx, scopes, e.store.Orphans)
	if err != nil {
		return fmt.Errorf("orphans: %w", err)
	}
	if err := e.purge(ctx, orphans); err != nil {
		return fmt.Errorf("orphans: %w", err)
	}
	res.Orphans = len(orphans)

	stale, err := e.gather(ctx, scopes, e.store.StaleResources)
	if err != nil {
		return fmt.Errorf("stale resources: %w", err)
	}
	if err := e.purge(ctx, stale); err != nil {
		return fmt.Errorf("stale resources: %w", err)
	}
	res.Stale = len(stale)

	for _, scope := range scopes {
		n, err := e.deleteStaleLineage(ctx, scope)
		if err != nil {
			return fmt.Errorf("stale lineage: %w", err)
		}
		res.LineageRemoved += n
	}

	observability.PurgedResources.WithLabelValues(e.profile.Name, "orphan").Add(float64(res.Orphans))
	observability.PurgedResources.WithLabelValues(e.profile.Name, "stale").Add(float64(res.Stale))
	observability.PurgedResources.WithLabelValues(e.profile.Name, "lineage").Add(float64(res.LineageRemoved))
	slog.Info("reconciled published data",
		"profile", e.profile.Name,
		"orphans", res.Orphans,
		"stale", res.Stale,
		"lineage_removed", res.LineageRemoved)
	return nil
}

type pageFunc func(ctx context.Context, scope graph.Scope, after string, limit int) ([]string, error)

// gather pages through next for every scope and returns the sorted,
// deduplicated union.
func (e *Engine) gather(ctx context.Context, scopes []graph.Scope, next pageFunc) ([]string, error) {
	var out []string
	for _, scope := range scopes {
		after := ""
		for {
			page, err := next(ctx, scope, after, e.pageSize)
			if err != nil {
				return nil, err
			}
			out = append(out, page...)
			if len(page) < e.pageSize {
				break
			}
			after = page[len(page)-1]
		}
	}
	sort.Strings(out)
	return slices.Compact(out), nil
}

func (e *Engine) purge(ctx context.Context, resources []string) error {
	for batch := range slices.Chunk(resources, e.pageSize) {
		if err := e.store.PurgeResource(ctx, e.profile.Target, batch); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) deleteStaleLineage(ctx context.Context, scope graph.Scope) (int, error) {
	total := 0
	var after graph.Lineage
	for {
		page, err := e.store.StaleLineage(ctx, scope, after, e.pageSize)
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			return total, nil
		}
		if err := e.store.DeleteLineage(ctx, scope.Target, page); err != nil {
			return total, err
		}
		total += len(page)
		after = page[len(page)-1]
		if len(page) < e.pageSize {
			return total, nil
		}
	}
}

func (e *Engine) copyToTarget(ctx context.Context, run *Run, res *RunResult) error {
	switch e.profile.CopyStrategy {
	case CopyBulk:
		if err := e.store.DeleteData(ctx, run.Scratch, []rdf.Triple{sentinel(run.Scratch)}); err != nil {
			return err
		}
		return e.store.AddGraph(ctx, run.Scratch, e.profile.Target)
	case CopyDelta:
		count, err := e.store.CountMissing(ctx, run.Scratch, e.profile.Target, run.Scratch)
		if err != nil {
			return err
		}
		batches := (count + e.copyPageSize - 1) / e.copyPageSize
		slog.Info("copying new triples",
			"profile", e.profile.Name,
			"triples", count,
			"batches", batches,
			"target", e.profile.Target)
		for i := 0; i < batches; i++ {
			if err := e.store.CopyMissing(ctx, run.Scratch, e.profile.Target, run.Scratch, e.copyPageSize); err != nil {
				return fmt.Errorf("copy batch %d/%d: %w", i+1, batches, err)
			}
		}
		res.Copied = count
		observability.CopiedTriples.WithLabelValues(e.profile.Name).Add(float64(count))
		return nil
	default:
		return fmt.Errorf("unknown copy strategy %q", e.profile.CopyStrategy)
	}
}
