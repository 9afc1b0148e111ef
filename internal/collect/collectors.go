package collect

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/yggdrasil/internal/distribution"
	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/vocab"
)

var prefixes = rdf.PrefixMap(vocab.Prefixes())

func path(expr string) rdf.Path {
	return rdf.MustParsePath(expr, prefixes)
}

var (
	releasedDecisions = graph.Condition{On: graph.OnAgenda, Path: path("besluit:isAangemaaktVoor / ext:releasedDecisions")}
	releasedDocuments = graph.Condition{On: graph.OnAgenda, Path: path("besluit:isAangemaaktVoor / ext:releasedDocuments")}
	notDesignAgenda   = graph.Condition{
		On:     graph.OnResource,
		Path:   path("besluitvorming:agendaStatus"),
		Values: []rdf.Term{rdf.NewIRI(vocab.DesignAgendaStatus)},
		Negate: true,
	}
)

// trueValue is the mu boolean literal "true".
var trueValue = rdf.NewTypedLiteral("true", vocab.BooleanType)

// Agendas seeds the run's agendas into scratch.
type Agendas struct {
	// ExcludeDesign skips agendas that are still being drafted.
	ExcludeDesign bool

	// RequireAny ends collection with distribution.ErrNothingCollected
	// when no agenda was seeded.
	RequireAny bool
}

func (Agendas) Name() string { return "agendas" }

func (a Agendas) Collect(ctx context.Context, run *distribution.Run) error {
	seed := graph.AgendaSeed{All: run.Scope.All}
	if !run.Scope.All {
		seed.Agendas = run.Scope.Agendas
	}
	if a.ExcludeDesign {
		seed.Where = append(seed.Where, notDesignAgenda)
	}
	if err := run.Seed(ctx, seed); err != nil {
		return err
	}
	if !a.RequireAny {
		return nil
	}
	agendas, err := run.Agendas(ctx)
	if err != nil {
		return fmt.Errorf("count agendas: %w", err)
	}
	if len(agendas) == 0 {
		return distribution.ErrNothingCollected
	}
	return nil
}

// Release names the release check a traversal is subject to.
type Release int

const (
	ReleaseNone Release = iota
	// ReleaseDecisions requires the agenda's meeting to have released its
	// decisions, when the profile validates decision release.
	ReleaseDecisions
	// ReleaseDocuments is the same check for documents.
	ReleaseDocuments
)

// Traverse collects the resources reachable from one anchor type.
type Traverse struct {
	Label      string
	Anchor     string
	Path       rdf.Path
	Types      []string
	AssignType string
	Where      []graph.Condition
	Release    Release
}

func (t Traverse) Name() string { return t.Label }

func (t Traverse) Collect(ctx context.Context, run *distribution.Run) error {
	where := slices.Clone(t.Where)
	switch {
	case t.Release == ReleaseDecisions && run.Profile.ValidateDecisionsRelease:
		where = append(where, releasedDecisions)
	case t.Release == ReleaseDocuments && run.Profile.ValidateDocumentsRelease:
		where = append(where, releasedDocuments)
	}
	return run.Traverse(ctx, graph.Traversal{
		Anchor:     t.Anchor,
		Path:       t.Path,
		Types:      t.Types,
		AssignType: t.AssignType,
		Where:      where,
	})
}
