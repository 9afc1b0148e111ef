package distribution

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/yggdrasil/internal/observability"
	"github.com/roach88/yggdrasil/internal/vocab"
)

var tracer = otel.Tracer("github.com/roach88/yggdrasil/internal/distribution")

const (
	// DefaultResourcePageSize bounds the resources handled per detail,
	// reconciliation or agenda page.
	DefaultResourcePageSize = 1000

	// DefaultCopyPageSize bounds the triples inserted per delta copy batch.
	DefaultCopyPageSize = 2500
)

// Engine runs distributions for one profile.
//
// Thread-safety: Run is safe to call from any goroutine; concurrent calls
// for the same engine return ErrRunInProgress. Engines of different
// profiles run independently.
type Engine struct {
	store         Store
	profile       Profile
	tokens        TokenGenerator
	scratchPrefix string
	pageSize      int
	copyPageSize  int
	keepScratch   bool
	now           func() time.Time

	running sync.Mutex

	lastMu sync.RWMutex
	last   *RunResult
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithResourcePageSize sets the page size for details, agendas and
// reconciliation.
func WithResourcePageSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithCopyPageSize sets the batch size of delta copies.
func WithCopyPageSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.copyPageSize = n
		}
	}
}

// WithKeepScratch leaves scratch graphs in the store after a run.
func WithKeepScratch(keep bool) EngineOption {
	return func(e *Engine) {
		e.keepScratch = keep
	}
}

// WithScratchPrefix sets the IRI prefix of scratch graphs.
func WithScratchPrefix(prefix string) EngineOption {
	return func(e *Engine) {
		e.scratchPrefix = prefix
	}
}

// WithTokenGenerator replaces the UUIDv7 scratch token generator.
func WithTokenGenerator(g TokenGenerator) EngineOption {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithNow replaces the wall clock used for run timestamps.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine for profile. The profile is validated.
func New(s Store, profile Profile, opts ...EngineOption) (*Engine, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		store:         s,
		profile:       profile,
		tokens:        UUIDv7Generator{},
		scratchPrefix: vocab.ScratchGraphPrefix,
		pageSize:      DefaultResourcePageSize,
		copyPageSize:  DefaultCopyPageSize,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Profile returns the engine's profile.
func (e *Engine) Profile() Profile {
	return e.profile
}

// LastResult returns the result of the most recent finished run.
func (e *Engine) LastResult() (RunResult, bool) {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	if e.last == nil {
		return RunResult{}, false
	}
	return *e.last, true
}

// Run builds the view for scope and publishes it.
//
// The run ignores cancellation of ctx; values such as mu headers and the
// trace span are kept.
func (e *Engine) Run(ctx context.Context, scope Scope) RunResult {
	res := RunResult{Profile: e.profile.Name, Scope: scope, Started: e.now()}
	if !e.running.TryLock() {
		res.Err = ErrRunInProgress
		res.Finished = res.Started
		observability.RunsTotal.WithLabelValues(e.profile.Name, observability.OutcomeBusy).Inc()
		slog.Warn("distribution run skipped, profile busy", "profile", e.profile.Name)
		return res
	}
	defer e.running.Unlock()

	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "distribution.Run", trace.WithAttributes(
		attribute.String("profile", e.profile.Name),
		attribute.Int("agendas", len(scope.Agendas)),
		attribute.Bool("initial", scope.Initial),
		attribute.Bool("all", scope.All),
	))
	defer span.End()

	e.execute(ctx, scope, &res)

	res.Finished = e.now()
	outcome := observability.OutcomeSuccess
	if res.Err != nil {
		outcome = observability.OutcomeFailure
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		slog.Error("distribution run failed",
			"profile", e.profile.Name,
			"scratch", res.Scratch,
			"error", res.Err,
			"cleanup_attempted", res.CleanupAttempted)
	} else {
		slog.Info("distribution run finished",
			"profile", e.profile.Name,
			"copied", res.Copied,
			"orphans", res.Orphans,
			"stale", res.Stale,
			"lineage_removed", res.LineageRemoved,
			"duration", res.Finished.Sub(res.Started))
	}
	observability.RunsTotal.WithLabelValues(e.profile.Name, outcome).Inc()
	observability.RunDuration.WithLabelValues(e.profile.Name).Observe(res.Finished.Sub(res.Started).Seconds())

	e.lastMu.Lock()
	last := res
	e.last = &last
	e.lastMu.Unlock()
	return res
}

func (e *Engine) execute(ctx context.Context, scope Scope, res *RunResult) {
	if err := scope.Validate(); err != nil {
		res.Err = &RunError{Profile: e.profile.Name, Stage: StageStage, Err: err}
		return
	}

	run := &Run{
		Profile:  e.profile,
		Scope:    scope,
		Scratch:  e.scratchPrefix + e.tokens.Generate(),
		Store:    e.store,
		pageSize: e.pageSize,
	}
	res.Scratch = run.Scratch
	slog.Info("distribution run started",
		"profile", e.profile.Name,
		"scratch", run.Scratch,
		"agendas", len(scope.Agendas),
		"initial", scope.Initial,
		"all", scope.All)

	steps := []struct {
		stage Stage
		skip  bool
		fn    func(context.Context, *Run, *RunResult) error
	}{
		{StageStage, false, e.stageScratch},
		{StageCollect, false, e.collect},
		{StageDetails, false, e.collectDetails},
		{StageFilter, false, e.filter},
		{StageReconcile, scope.Initial, e.reconcile},
		{StageCopy, false, e.copyToTarget},
	}
	for _, step := range steps {
		if step.skip {
			res.Stages = append(res.Stages, StageResult{Stage: step.stage, Skipped: true})
			slog.Info("stage skipped", "profile", e.profile.Name, "stage", step.stage)
			continue
		}
		err := e.stage(ctx, step.stage, res, func(ctx context.Context) error {
			return step.fn(ctx, run, res)
		})
		if err != nil {
			res.Err = &RunError{Profile: e.profile.Name, Stage: step.stage, Err: err}
			break
		}
	}

	if e.keepScratch {
		res.Stages = append(res.Stages, StageResult{Stage: StageDispose, Skipped: true})
		slog.Info("keeping scratch graph", "profile", e.profile.Name, "scratch", run.Scratch)
		return
	}
	res.CleanupAttempted = true
	res.CleanupErr = e.stage(ctx, StageDispose, res, func(ctx context.Context) error {
		return e.store.DropGraph(ctx, run.Scratch)
	})
}

// stage runs fn as one named, traced and timed stage.
func (e *Engine) stage(ctx context.Context, stage Stage, res *RunResult, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "distribution."+string(stage))
	defer span.End()

	slog.Debug("stage started", "profile", e.profile.Name, "stage", stage)
	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)
	observability.StageDuration.WithLabelValues(e.profile.Name, string(stage)).Observe(d.Seconds())

	sr := StageResult{Stage: stage, Duration: d}
	if err != nil {
		sr.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("stage failed", "profile", e.profile.Name, "stage", stage, "duration", d, "error", err)
	} else {
		slog.Info("stage finished", "profile", e.profile.Name, "stage", stage, "duration", d)
	}
	res.Stages = append(res.Stages, sr)
	return err
}
