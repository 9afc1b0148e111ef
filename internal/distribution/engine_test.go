package distribution

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/sparql"
	"github.com/roach88/yggdrasil/internal/store"
	"github.com/roach88/yggdrasil/internal/vocab"
)

var (
	_ Store = (*store.Store)(nil)
	_ Store = (*sparql.Store)(nil)
)

const (
	source  = "http://ex/graphs/source"
	target  = "http://ex/graphs/target"
	scratch = "http://ex/graphs/scratch/"
)

var prefixes = rdf.PrefixMap(vocab.Prefixes())

// seedCollector seeds the scope's agendas.
type seedCollector struct{}

func (seedCollector) Name() string { return "seed" }

func (seedCollector) Collect(ctx context.Context, run *Run) error {
	return run.Seed(ctx, graph.AgendaSeed{Agendas: run.Scope.Agendas, All: run.Scope.All})
}

// itemsCollector collects the agendaitems of collected agendas.
type itemsCollector struct {
	where []graph.Condition
}

func (itemsCollector) Name() string { return "items" }

func (c itemsCollector) Collect(ctx context.Context, run *Run) error {
	return run.Traverse(ctx, graph.Traversal{
		Anchor: vocab.Agenda,
		Path:   rdf.MustParsePath("dct:hasPart", prefixes),
		Types:  []string{vocab.Agendapunt},
		Where:  c.where,
	})
}

// funcCollector runs fn.
type funcCollector struct {
	name string
	fn   func(ctx context.Context, run *Run) error
}

func (c funcCollector) Name() string { return c.name }

func (c funcCollector) Collect(ctx context.Context, run *Run) error { return c.fn(ctx, run) }

type fixture struct {
	t     *testing.T
	store *store.Store
}

func newFixture(t *testing.T, doc string) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	f := &fixture{t: t, store: s}
	f.insert(doc)
	return f
}

func (f *fixture) triples(doc string) []rdf.Triple {
	f.t.Helper()
	triples, err := rdf.ParseNTriples(strings.NewReader(doc))
	require.NoError(f.t, err)
	return triples
}

func (f *fixture) insert(doc string) {
	f.t.Helper()
	require.NoError(f.t, f.store.InsertData(context.Background(), source, f.triples(doc)))
}

func (f *fixture) delete(doc string) {
	f.t.Helper()
	require.NoError(f.t, f.store.DeleteData(context.Background(), source, f.triples(doc)))
}

func (f *fixture) dump(g string) string {
	f.t.Helper()
	triples, err := f.store.Triples(context.Background(), g)
	require.NoError(f.t, err)
	return rdf.FormatNTriples(triples)
}

func (f *fixture) has(g, line string) bool {
	f.t.Helper()
	ok, err := f.store.Contains(context.Background(), g, f.triples(line)[0])
	require.NoError(f.t, err)
	return ok
}

func (f *fixture) engine(p Profile, opts ...EngineOption) *Engine {
	f.t.Helper()
	opts = append([]EngineOption{
		WithScratchPrefix(scratch),
		WithTokenGenerator(NewFixedGenerator("r1", "r2", "r3", "r4", "r5")),
	}, opts...)
	e, err := New(f.store, p, opts...)
	require.NoError(f.t, err)
	return e
}

func testProfile(collectors ...Collector) Profile {
	if len(collectors) == 0 {
		collectors = []Collector{seedCollector{}, itemsCollector{}}
	}
	return Profile{
		Name:         "test",
		Source:       source,
		Target:       target,
		Collectors:   collectors,
		Denylist:     DefaultDenylist,
		CopyStrategy: CopyDelta,
	}
}

func line(s, p, o string) string {
	obj := "<" + o + ">"
	if strings.HasPrefix(o, `"`) {
		obj = o
	}
	return "<" + s + "> <" + p + "> " + obj + " .\n"
}

const (
	a1 = "http://ex/agendas/1"
	a2 = "http://ex/agendas/2"
	i1 = "http://ex/items/1"
	i2 = "http://ex/items/2"
	m1 = "http://ex/meetings/1"
	m2 = "http://ex/meetings/2"

	title = vocab.Dct + "title"
)

var twoAgendas = line(a1, vocab.Type, vocab.Agenda) +
	line(a1, vocab.HasPart, i1) +
	line(i1, vocab.Type, vocab.Agendapunt) +
	line(i1, title, `"one"`) +
	line(i1, vocab.PrivateComment, `"secret"`) +
	line(a2, vocab.Type, vocab.Agenda) +
	line(a2, vocab.HasPart, i2) +
	line(i2, vocab.Type, vocab.Agendapunt)

func TestRun_PublishesCollectedResources(t *testing.T) {
	f := newFixture(t, twoAgendas)
	e := f.engine(testProfile())

	res := e.Run(context.Background(), Scope{Agendas: []string{a1}, Initial: true})
	require.NoError(t, res.Err)
	assert.True(t, res.OK())
	assert.Equal(t, scratch+"r1", res.Scratch)

	assert.True(t, f.has(target, line(a1, vocab.Type, vocab.Agenda)))
	assert.True(t, f.has(target, line(a1, vocab.TracesLineageTo, a1)))
	assert.True(t, f.has(target, line(i1, vocab.TracesLineageTo, a1)))
	assert.True(t, f.has(target, line(i1, title, `"one"`)))
	assert.False(t, f.has(target, line(i1, vocab.PrivateComment, `"secret"`)), "denylisted predicate published")
	assert.False(t, f.has(target, line(a2, vocab.Type, vocab.Agenda)), "out of scope agenda published")
	assert.NotContains(t, f.dump(target), vocab.TempGraph)

	assert.Empty(t, f.dump(scratch+"r1"), "scratch graph not dropped")
	assert.True(t, res.CleanupAttempted)
	assert.NoError(t, res.CleanupErr)
	assert.Positive(t, res.Copied)

	var stages []Stage
	for _, s := range res.Stages {
		stages = append(stages, s.Stage)
		if s.Stage == StageReconcile {
			assert.True(t, s.Skipped, "initial run must skip reconciliation")
		}
	}
	assert.Equal(t, []Stage{StageStage, StageCollect, StageDetails, StageFilter, StageReconcile, StageCopy, StageDispose}, stages)

	last, ok := e.LastResult()
	require.True(t, ok)
	assert.Equal(t, res.Scratch, last.Scratch)
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t, twoAgendas)
	e := f.engine(testProfile())
	scope := Scope{Agendas: []string{a1, a2}}

	first := e.Run(context.Background(), scope)
	require.NoError(t, first.Err)
	before := f.dump(target)

	second := e.Run(context.Background(), scope)
	require.NoError(t, second.Err)
	assert.Equal(t, before, f.dump(target))
	assert.Zero(t, second.Copied)
	assert.Zero(t, second.Orphans)
	assert.Zero(t, second.Stale)
	assert.Zero(t, second.LineageRemoved)
}

func TestRun_EveryPublishedResourceHasLineage(t *testing.T) {
	f := newFixture(t, twoAgendas)
	e := f.engine(testProfile())

	require.NoError(t, e.Run(context.Background(), Scope{All: true}).Err)

	triples, err := f.store.Triples(context.Background(), target)
	require.NoError(t, err)
	lineaged := map[string]bool{}
	for _, tr := range triples {
		if tr.P.Value == vocab.TracesLineageTo {
			lineaged[tr.S.Value] = true
		}
	}
	for _, tr := range triples {
		assert.True(t, lineaged[tr.S.Value], "%s has no lineage", tr.S)
	}
}

func TestRun_RemovesOrphans(t *testing.T) {
	f := newFixture(t, twoAgendas)
	e := f.engine(testProfile())
	scope := Scope{Agendas: []string{a1}}

	require.NoError(t, e.Run(context.Background(), scope).Err)
	require.True(t, f.has(target, line(i1, title, `"one"`)))

	f.delete(line(a1, vocab.HasPart, i1))
	res := e.Run(context.Background(), scope)
	require.NoError(t, res.Err)

	assert.Equal(t, 1, res.Orphans)
	assert.NotContains(t, f.dump(target), "<"+i1+">")
	assert.True(t, f.has(target, line(a1, vocab.TracesLineageTo, a1)))
}

func TestRun_RemovesOrphansAcrossPages(t *testing.T) {
	f := newFixture(t, twoAgendas)
	scope := Scope{Agendas: []string{a1}}

	require.NoError(t, f.engine(testProfile()).Run(context.Background(), scope).Err)
	require.True(t, f.has(target, line(i1, title, `"one"`)))

	// The withdrawn agenda sorts before its item and pages hold a single
	// resource.
	f.delete(line(a1, vocab.Type, vocab.Agenda))
	res := f.engine(testProfile(), WithResourcePageSize(1)).Run(context.Background(), scope)
	require.NoError(t, res.Err)

	assert.Equal(t, 2, res.Orphans)
	assert.Empty(t, f.dump(target))
}

func TestRun_RepublishesStaleResourcesAcrossPages(t *testing.T) {
	f := newFixture(t, twoAgendas+line(a1, title, `"draft"`))
	scope := Scope{Agendas: []string{a1}}

	require.NoError(t, f.engine(testProfile()).Run(context.Background(), scope).Err)

	f.delete(line(a1, title, `"draft"`) + line(i1, title, `"one"`))
	f.insert(line(a1, title, `"final"`) + line(i1, title, `"two"`))
	res := f.engine(testProfile(), WithResourcePageSize(1)).Run(context.Background(), scope)
	require.NoError(t, res.Err)

	assert.Equal(t, 2, res.Stale)
	assert.False(t, f.has(target, line(a1, title, `"draft"`)))
	assert.False(t, f.has(target, line(i1, title, `"one"`)))
	assert.True(t, f.has(target, line(a1, title, `"final"`)))
	assert.True(t, f.has(target, line(i1, title, `"two"`)))
	assert.True(t, f.has(target, line(i1, vocab.TracesLineageTo, a1)))
}

func TestRun_RepublishesStaleResources(t *testing.T) {
	f := newFixture(t, twoAgendas)
	e := f.engine(testProfile())
	scope := Scope{Agendas: []string{a1}}

	require.NoError(t, e.Run(context.Background(), scope).Err)

	f.delete(line(i1, title, `"one"`))
	f.insert(line(i1, title, `"two"`))
	res := e.Run(context.Background(), scope)
	require.NoError(t, res.Err)

	assert.Equal(t, 1, res.Stale)
	assert.False(t, f.has(target, line(i1, title, `"one"`)))
	assert.True(t, f.has(target, line(i1, title, `"two"`)))
	assert.True(t, f.has(target, line(a1, vocab.HasPart, i1)), "incoming reference not restored")
}

func TestRun_RemovesStaleLineage(t *testing.T) {
	released := vocab.Ext + "releasedDecisions"
	f := newFixture(t, line(a1, vocab.Type, vocab.Agenda)+
		line(a1, vocab.HasPart, i1)+
		line(a1, vocab.IsAangemaaktVoor, m1)+
		line(m1, released, `"2024-03-01"`)+
		line(a2, vocab.Type, vocab.Agenda)+
		line(a2, vocab.HasPart, i1)+
		line(a2, vocab.IsAangemaaktVoor, m2)+
		line(m2, released, `"2024-03-08"`)+
		line(i1, vocab.Type, vocab.Agendapunt))

	items := itemsCollector{where: []graph.Condition{{
		On:   graph.OnAgenda,
		Path: rdf.MustParsePath("besluit:isAangemaaktVoor / ext:releasedDecisions", prefixes),
	}}}
	e := f.engine(testProfile(seedCollector{}, items))
	scope := Scope{Agendas: []string{a1, a2}}

	require.NoError(t, e.Run(context.Background(), scope).Err)
	require.True(t, f.has(target, line(i1, vocab.TracesLineageTo, a2)))

	f.delete(line(m2, released, `"2024-03-08"`))
	res := e.Run(context.Background(), scope)
	require.NoError(t, res.Err)

	assert.Equal(t, 1, res.LineageRemoved)
	assert.Zero(t, res.Orphans)
	assert.False(t, f.has(target, line(i1, vocab.TracesLineageTo, a2)))
	assert.True(t, f.has(target, line(i1, vocab.TracesLineageTo, a1)))
}

func TestRun_BulkAndDeltaPublishTheSameView(t *testing.T) {
	views := map[CopyStrategy]string{}
	for _, strategy := range []CopyStrategy{CopyBulk, CopyDelta} {
		f := newFixture(t, twoAgendas)
		p := testProfile()
		p.CopyStrategy = strategy
		e := f.engine(p, WithCopyPageSize(2))

		res := e.Run(context.Background(), Scope{All: true, Initial: true})
		require.NoError(t, res.Err, strategy)
		views[strategy] = f.dump(target)
	}
	assert.Equal(t, views[CopyDelta], views[CopyBulk])
	assert.NotContains(t, views[CopyBulk], vocab.TempGraph)
}

func TestRun_SmallPagesMatchDefault(t *testing.T) {
	small := newFixture(t, twoAgendas)
	require.NoError(t, small.engine(testProfile(), WithResourcePageSize(1), WithCopyPageSize(1)).
		Run(context.Background(), Scope{All: true}).Err)

	large := newFixture(t, twoAgendas)
	require.NoError(t, large.engine(testProfile()).Run(context.Background(), Scope{All: true}).Err)

	assert.Equal(t, large.dump(target), small.dump(target))
}

func TestRun_RejectsEmptyScope(t *testing.T) {
	f := newFixture(t, twoAgendas)
	res := f.engine(testProfile()).Run(context.Background(), Scope{})

	require.Error(t, res.Err)
	stage, ok := FailedStage(res.Err)
	require.True(t, ok)
	assert.Equal(t, StageStage, stage)
	assert.False(t, res.CleanupAttempted)
}

func TestRun_FailingCollectorStillDropsScratch(t *testing.T) {
	f := newFixture(t, twoAgendas)
	boom := errors.New("boom")
	e := f.engine(testProfile(seedCollector{}, funcCollector{name: "broken", fn: func(context.Context, *Run) error {
		return boom
	}}))

	res := e.Run(context.Background(), Scope{Agendas: []string{a1}})
	require.ErrorIs(t, res.Err, boom)
	stage, ok := FailedStage(res.Err)
	require.True(t, ok)
	assert.Equal(t, StageCollect, stage)
	assert.Contains(t, res.Err.Error(), "broken")

	assert.True(t, res.CleanupAttempted)
	assert.Empty(t, f.dump(scratch+"r1"))
	assert.Empty(t, f.dump(target), "failed run published data")
}

func TestRun_KeepScratch(t *testing.T) {
	f := newFixture(t, twoAgendas)
	res := f.engine(testProfile(), WithKeepScratch(true)).Run(context.Background(), Scope{Agendas: []string{a1}})
	require.NoError(t, res.Err)

	assert.False(t, res.CleanupAttempted)
	assert.Contains(t, f.dump(res.Scratch), vocab.TempGraph)
}

func TestRun_NothingCollectedEndsEarly(t *testing.T) {
	f := newFixture(t, twoAgendas)
	var after bool
	e := f.engine(testProfile(
		seedCollector{},
		funcCollector{name: "stop", fn: func(context.Context, *Run) error { return ErrNothingCollected }},
		funcCollector{name: "after", fn: func(context.Context, *Run) error { after = true; return nil }},
	))

	res := e.Run(context.Background(), Scope{Agendas: []string{a1}})
	require.NoError(t, res.Err)
	assert.True(t, res.EndedEarly)
	assert.False(t, after, "collectors after an early end must not run")
}

func TestRun_ConcurrentRunIsRejected(t *testing.T) {
	f := newFixture(t, twoAgendas)
	entered := make(chan struct{})
	release := make(chan struct{})
	e := f.engine(testProfile(seedCollector{}, funcCollector{name: "block", fn: func(context.Context, *Run) error {
		close(entered)
		<-release
		return nil
	}}))

	var wg sync.WaitGroup
	var first RunResult
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = e.Run(context.Background(), Scope{Agendas: []string{a1}})
	}()
	<-entered

	busy := e.Run(context.Background(), Scope{Agendas: []string{a1}})
	assert.ErrorIs(t, busy.Err, ErrRunInProgress)
	assert.True(t, IsRunInProgress(busy.Err))

	close(release)
	wg.Wait()
	assert.NoError(t, first.Err)
}

func TestNew_ValidatesProfile(t *testing.T) {
	p := testProfile()
	p.Target = p.Source
	p.CopyStrategy = "rsync"

	_, err := New(nil, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own source graph")
	assert.Contains(t, err.Error(), "rsync")
}
