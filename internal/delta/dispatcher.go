package delta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/yggdrasil/internal/distribution"
	"github.com/roach88/yggdrasil/internal/observability"
)

// ErrBusy is wrapped when a profile was already running and the affected
// agendas still need a run.
var ErrBusy = errors.New("profile busy")

// Resolver maps touched resources to the agendas they belong to.
type Resolver interface {
	Resolve(ctx context.Context, subjects []string) ([]string, error)
}

// Runner runs distributions for one profile.
type Runner interface {
	Profile() distribution.Profile
	Run(ctx context.Context, scope distribution.Scope) distribution.RunResult
}

// Dispatcher runs every profile for the agendas touched resources belong
// to.
type Dispatcher struct {
	resolver Resolver
	runners  []Runner
}

// NewDispatcher creates a dispatcher over the enabled profiles' runners.
func NewDispatcher(resolver Resolver, runners ...Runner) *Dispatcher {
	return &Dispatcher{resolver: resolver, runners: runners}
}

// Handle resolves subjects and runs every profile for the affected agendas
// concurrently. Per-profile failures are joined. A profile whose engine was
// busy fails with ErrBusy.
func (d *Dispatcher) Handle(ctx context.Context, subjects []string) error {
	start := time.Now()
	agendas, err := d.resolver.Resolve(ctx, subjects)
	if err != nil {
		return fmt.Errorf("resolve agendas: %w", err)
	}
	observability.ResolvedAgendas.Observe(float64(len(agendas)))
	slog.Debug("resolved subjects",
		"subjects", len(subjects),
		"agendas", agendas,
		"duration", time.Since(start))
	if len(agendas) == 0 {
		slog.Info("changes affect no agenda", "subjects", len(subjects))
		return nil
	}

	errs := make([]error, len(d.runners))
	var g errgroup.Group
	for i, r := range d.runners {
		g.Go(func() error {
			name := r.Profile().Name
			err := r.Run(ctx, distribution.Scope{Agendas: agendas}).Err
			switch {
			case err == nil:
				return nil
			case distribution.IsRunInProgress(err):
				slog.Warn("profile busy, changes deferred", "profile", name, "agendas", len(agendas))
				errs[i] = fmt.Errorf("%s: %w: %w", name, ErrBusy, err)
			default:
				errs[i] = fmt.Errorf("%s: %w", name, err)
			}
			return errs[i]
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Join(errs...)
	}
	return nil
}
