package harness

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/roach88/yggdrasil/internal/collect"
	"github.com/roach88/yggdrasil/internal/config"
	"github.com/roach88/yggdrasil/internal/distribution"
	"github.com/roach88/yggdrasil/internal/pathspec"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/store"
	"github.com/roach88/yggdrasil/internal/testutil"
)

// Epoch is the fixed clock of every scenario run.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness executes one scenario.
type Harness struct {
	store    *store.Store
	profile  distribution.Profile
	engine   *distribution.Engine
	resolver *pathspec.Resolver
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. A fixed
// scratch token and clock make the target graph reproducible.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Load the scenario's source data into the profile's source graph
//  3. Execute the steps in order (runs, inserts, deletes, resolves)
//  4. Evaluate the assertions against the store
//  5. Dump the target graph for golden comparison
//
// A returned error means the scenario could not be executed; failed
// expectations and assertions are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	// 1. Fresh database per scenario
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(st, scenario)
	if err != nil {
		return nil, err
	}

	// 2. Source data
	ctx := context.Background()
	if err := h.load(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to load source data: %w", err)
	}

	// 3. Steps. Expectation failures are collected, not fatal.
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.execute(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	// 4. Assertions
	for _, msg := range EvaluateAssertions(ctx, st, h.profile, scenario.Assertions) {
		result.AddError(msg)
	}

	// 5. Sorted N-Triples dump, byte-stable across runs
	triples, err := st.Triples(ctx, h.profile.Target)
	if err != nil {
		return nil, err
	}
	result.Target = rdf.FormatNTriples(triples)
	return result, nil
}

func newHarness(st *store.Store, scenario *Scenario) (*Harness, error) {
	profile, ok := collect.Profile(scenario.Profile)
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", scenario.Profile)
	}
	// Fixed token and clock: scratch graph names and timestamps never vary
	engine, err := distribution.New(st, profile,
		distribution.WithTokenGenerator(testutil.NewFixedTokenGenerator(scenario.Token)),
		distribution.WithNow(func() time.Time { return Epoch }))
	if err != nil {
		return nil, err
	}

	// Resolve steps use the built-in path table over the profile's source
	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	table, err := pathspec.Compile(cfg.PathTable())
	if err != nil {
		return nil, err
	}

	return &Harness{
		store:    st,
		profile:  profile,
		engine:   engine,
		resolver: pathspec.NewResolver(st, table, profile.Source),
	}, nil
}

// load inserts the inline source and every source file into the source
// graph.
func (h *Harness) load(ctx context.Context, scenario *Scenario) error {
	docs := []string{scenario.Source}
	for _, p := range scenario.SourceFiles {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		docs = append(docs, string(data))
	}
	for _, doc := range docs {
		triples, err := rdf.ParseNTriples(strings.NewReader(doc))
		if err != nil {
			return err
		}
		if err := h.store.InsertData(ctx, h.profile.Source, triples); err != nil {
			return err
		}
	}
	return nil
}

// execute runs one step. Exactly one of run, insert, delete or resolve is
// set; LoadScenario enforces that.
func (h *Harness) execute(ctx context.Context, i int, step Step, result *Result) error {
	switch {
	case step.Run != nil:
		res := h.engine.Run(ctx, distribution.Scope{
			Agendas: step.Run.Agendas,
			All:     step.Run.All,
			Initial: step.Run.Initial,
		})
		result.Runs = append(result.Runs, summarize(i, res))
		for _, msg := range checkExpect(i, step.Expect, res) {
			result.AddError(msg)
		}
	case step.Insert != "":
		triples, err := rdf.ParseNTriples(strings.NewReader(step.Insert))
		if err != nil {
			return err
		}
		return h.store.InsertData(ctx, h.profile.Source, triples)
	case step.Delete != "":
		triples, err := rdf.ParseNTriples(strings.NewReader(step.Delete))
		if err != nil {
			return err
		}
		return h.store.DeleteData(ctx, h.profile.Source, triples)
	case step.Resolve != nil:
		got, err := h.resolver.Resolve(ctx, step.Resolve.Subjects)
		if err != nil {
			return err
		}
		// The resolver returns sorted agendas; compare against the sorted
		// expectation so scenario order does not matter.
		want := slices.Clone(step.Resolve.Expect)
		slices.Sort(want)
		if want == nil {
			want = []string{}
		}
		if !slices.Equal(got, want) {
			result.AddError(fmt.Sprintf("steps[%d]: resolve %v: expected agendas %v, got %v",
				i, step.Resolve.Subjects, want, got))
		}
	}
	return nil
}

// checkExpect compares a run result with its step's expect clause. A step
// without one expects a successful run.
func checkExpect(i int, expect *ExpectClause, res distribution.RunResult) []string {
	var errs []string
	if expect == nil {
		expect = &ExpectClause{}
	}
	switch {
	case expect.Error == "" && res.Err != nil:
		errs = append(errs, fmt.Sprintf("steps[%d]: run failed: %v", i, res.Err))
	case expect.Error != "" && res.Err == nil:
		errs = append(errs, fmt.Sprintf("steps[%d]: expected run error containing %q, run succeeded", i, expect.Error))
	case expect.Error != "" && !strings.Contains(res.Err.Error(), expect.Error):
		errs = append(errs, fmt.Sprintf("steps[%d]: expected run error containing %q, got %v", i, expect.Error, res.Err))
	}
	if expect.EndedEarly != nil && *expect.EndedEarly != res.EndedEarly {
		errs = append(errs, fmt.Sprintf("steps[%d]: expected ended_early=%v, got %v", i, *expect.EndedEarly, res.EndedEarly))
	}
	if expect.Orphans != nil && *expect.Orphans != res.Orphans {
		errs = append(errs, fmt.Sprintf("steps[%d]: expected %d orphans, got %d", i, *expect.Orphans, res.Orphans))
	}
	if expect.Stale != nil && *expect.Stale != res.Stale {
		errs = append(errs, fmt.Sprintf("steps[%d]: expected %d stale resources, got %d", i, *expect.Stale, res.Stale))
	}
	return errs
}
