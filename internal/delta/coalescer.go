package delta

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/yggdrasil/internal/observability"
)

// DefaultDebounce is the quiet period after the last notification before a
// pass starts.
const DefaultDebounce = 5 * time.Minute

// PassFunc processes the resources accumulated for one pass.
type PassFunc func(ctx context.Context, subjects []string) error

type state int

const (
	stateIdle state = iota
	stateRunning
	statePendingRerun
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	case statePendingRerun:
		return "pending-rerun"
	default:
		return "unknown"
	}
}

// Coalescer debounces change notifications into processing passes.
//
// Every notification re-arms the debounce timer. When the timer fires and
// no pass is running, the accumulated resources are drained and handed to
// the pass function in a new goroutine. When a pass is running, the
// coalescer remembers to run again as soon as it finishes. Passes never
// overlap. A pass that fails with ErrBusy puts its resources back and
// re-arms the timer.
//
// Thread-safety: all methods are safe for concurrent use.
type Coalescer struct {
	pass     PassFunc
	clock    Clock
	debounce time.Duration
	acc      *Accumulator
	ctx      context.Context

	mu      sync.Mutex
	state   state
	timer   Timer
	stopped bool
	wg      sync.WaitGroup
}

// CoalescerOption configures a Coalescer.
type CoalescerOption func(*Coalescer)

// WithDebounce sets the debounce period.
func WithDebounce(d time.Duration) CoalescerOption {
	return func(c *Coalescer) {
		c.debounce = d
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) CoalescerOption {
	return func(c *Coalescer) {
		c.clock = clock
	}
}

// WithContext sets the context passes run with. Only its values are used;
// passes are not cancelled through it.
func WithContext(ctx context.Context) CoalescerOption {
	return func(c *Coalescer) {
		c.ctx = context.WithoutCancel(ctx)
	}
}

// NewCoalescer creates an idle coalescer that calls pass.
func NewCoalescer(pass PassFunc, opts ...CoalescerOption) *Coalescer {
	c := &Coalescer{
		pass:     pass,
		clock:    RealClock{},
		debounce: DefaultDebounce,
		acc:      NewAccumulator(),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify records the resources touched by changesets and re-arms the
// debounce timer.
func (c *Coalescer) Notify(changesets []Changeset) {
	c.acc.AddChangesets(changesets)
	c.arm()
}

// NotifySubjects records subjects directly and re-arms the debounce timer.
func (c *Coalescer) NotifySubjects(subjects ...string) {
	c.acc.Add(subjects...)
	c.arm()
}

// Pending returns the number of resources waiting for a pass.
func (c *Coalescer) Pending() int {
	return c.acc.Len()
}

// State returns "idle", "running" or "pending-rerun".
func (c *Coalescer) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.String()
}

func (c *Coalescer) arm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.clock.AfterFunc(c.debounce, c.fire)
}

func (c *Coalescer) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.timer = nil

	switch c.state {
	case stateIdle:
		subjects := c.acc.DrainAndReset()
		if len(subjects) == 0 {
			return
		}
		c.state = stateRunning
		c.wg.Add(1)
		go c.loop(subjects)
	case stateRunning:
		slog.Debug("pass running, deferring", "pending", c.acc.Len())
		c.state = statePendingRerun
	}
}

func (c *Coalescer) loop(subjects []string) {
	defer c.wg.Done()
	for {
		c.runPass(subjects)

		c.mu.Lock()
		if c.state == statePendingRerun && !c.stopped {
			subjects = c.acc.DrainAndReset()
			if len(subjects) > 0 {
				c.state = stateRunning
				c.mu.Unlock()
				continue
			}
		}
		c.state = stateIdle
		c.mu.Unlock()
		return
	}
}

func (c *Coalescer) runPass(subjects []string) {
	start := time.Now()
	slog.Info("processing changes", "subjects", len(subjects))
	err := c.pass(c.ctx, subjects)
	if errors.Is(err, ErrBusy) {
		observability.CoalescerPasses.WithLabelValues(observability.OutcomeBusy).Inc()
		slog.Warn("processing changes deferred", "subjects", len(subjects), "error", err)
		c.acc.Add(subjects...)
		c.arm()
		return
	}
	if err != nil {
		observability.CoalescerPasses.WithLabelValues(observability.OutcomeFailure).Inc()
		slog.Error("processing changes failed", "subjects", len(subjects), "duration", time.Since(start), "error", err)
		return
	}
	observability.CoalescerPasses.WithLabelValues(observability.OutcomeSuccess).Inc()
	slog.Info("processed changes", "subjects", len(subjects), "duration", time.Since(start))
}

// Stop cancels the debounce timer and waits for a running pass to finish
// or ctx to end. Notifications after Stop are accumulated but never
// processed.
func (c *Coalescer) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
