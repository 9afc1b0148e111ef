package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/yggdrasil/internal/distribution"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/store"
	"github.com/roach88/yggdrasil/internal/vocab"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the store and returns
// the failure messages.
func EvaluateAssertions(ctx context.Context, st *store.Store, profile distribution.Profile, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(ctx, st, profile.Target, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// evaluate dispatches one assertion by type. Every check reads the
// target graph as it is after the last step.
func evaluate(ctx context.Context, st *store.Store, target string, a Assertion) error {
	switch a.Type {
	case AssertTargetContains:
		return assertTriples(ctx, st, target, a, true)
	case AssertTargetLacks:
		return assertTriples(ctx, st, target, a, false)
	case AssertPublished:
		return assertPublished(ctx, st, target, a)
	case AssertAbsent:
		return assertAbsent(ctx, st, target, a)
	case AssertTripleCount:
		return assertTripleCount(ctx, st, target, a)
	case AssertNoScratch:
		return assertNoScratch(ctx, st)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTriples checks that every listed triple is (want) or is not
// (!want) in the target. All offending triples are reported, not just the
// first.
func assertTriples(ctx context.Context, st *store.Store, target string, a Assertion, want bool) error {
	triples, err := rdf.ParseNTriples(strings.NewReader(a.Triples))
	if err != nil {
		return err
	}
	var wrong []string
	for _, t := range triples {
		ok, err := st.Contains(ctx, target, t)
		if err != nil {
			return err
		}
		if ok != want {
			wrong = append(wrong, t.String())
		}
	}
	if len(wrong) == 0 {
		return nil
	}
	actual := "missing from target"
	if !want {
		actual = "present in target"
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d triples", len(triples)),
		Actual:   actual + ":\n    " + strings.Join(wrong, "\n    "),
	}
}

// assertPublished checks for the lineage edge from resource to agenda.
func assertPublished(ctx context.Context, st *store.Store, target string, a Assertion) error {
	edge := rdf.NewTriple(a.Resource, vocab.TracesLineageTo, rdf.NewIRI(a.Agenda))
	ok, err := st.Contains(ctx, target, edge)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertPublished,
		Expected: fmt.Sprintf("%s published for %s", a.Resource, a.Agenda),
		Actual:   "no lineage edge in target",
	}
}

// assertAbsent checks that the resource appears in no target triple,
// neither as subject nor as object.
func assertAbsent(ctx context.Context, st *store.Store, target string, a Assertion) error {
	triples, err := st.Triples(ctx, target)
	if err != nil {
		return err
	}
	var about []string
	for _, t := range triples {
		// Literal objects never name a resource
		if t.S.Value == a.Resource || (t.O.IsIRI() && t.O.Value == a.Resource) {
			about = append(about, t.String())
		}
	}
	if len(about) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Expected: fmt.Sprintf("no triple about %s", a.Resource),
		Actual:   strings.Join(about, "\n    "),
	}
}

func assertTripleCount(ctx context.Context, st *store.Store, target string, a Assertion) error {
	triples, err := st.Triples(ctx, target)
	if err != nil {
		return err
	}
	if len(triples) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTripleCount,
		Expected: fmt.Sprintf("%d triples", a.Count),
		Actual:   fmt.Sprintf("%d triples", len(triples)),
	}
}

// assertNoScratch checks that every run dropped its scratch graph. It
// looks at the whole store, not only the target.
func assertNoScratch(ctx context.Context, st *store.Store) error {
	graphs, err := st.Graphs(ctx)
	if err != nil {
		return err
	}
	var left []string
	for _, g := range graphs {
		if strings.HasPrefix(g.Graph, vocab.ScratchGraphPrefix) {
			left = append(left, g.Graph)
		}
	}
	if len(left) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoScratch,
		Expected: "no scratch graphs",
		Actual:   strings.Join(left, ", "),
	}
}
