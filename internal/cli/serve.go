package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/yggdrasil/internal/delta"
	"github.com/roach88/yggdrasil/internal/observability"
	"github.com/roach88/yggdrasil/internal/server"
)

// Version is reported in traces.
var Version = "dev"

// shutdownTimeout bounds waiting for a running pass and flushing traces.
const shutdownTimeout = 2 * time.Minute

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the distribution service",
		Long: `Run the HTTP service.

Delta notifications posted to /delta (or received over NATS when
delta.nats.url is set) are debounced, resolved to agendas and published
to every enabled profile.

Example:
  yggdrasil serve
  yggdrasil serve --config ./config.yaml --log-format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if cfg.Log.Debug && !opts.Verbose {
		opts.Verbose = true
		setupLogging(cmd.ErrOrStderr(), opts)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Init(ctx, observability.TelemetryConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Exporter:       cfg.Telemetry.Exporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:   cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start telemetry", err)
	}

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	var (
		engines []server.Engine
		runners []delta.Runner
		enabled []string
	)
	profiles, err := cfg.EnabledProfiles()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid profile", err)
	}
	enabledSet := map[string]bool{}
	for _, p := range profiles {
		enabledSet[p.Name] = true
	}
	for _, name := range cfg.ProfileNames() {
		e, err := newEngine(cfg, b, name)
		if err != nil {
			return err
		}
		engines = append(engines, e)
		if enabledSet[name] {
			runners = append(runners, e)
			enabled = append(enabled, name)
		}
	}
	slog.Info("profiles ready", "configured", len(engines), "enabled", enabled)

	resolver, err := newResolver(cfg, b)
	if err != nil {
		return err
	}
	dispatcher := delta.NewDispatcher(resolver, runners...)
	coalescer := delta.NewCoalescer(dispatcher.Handle,
		delta.WithDebounce(cfg.Delta.Debounce),
		delta.WithContext(ctx))

	if cfg.Delta.NATS.URL != "" {
		nc, err := delta.SubscribeNATS(cfg.Delta.NATS.URL, cfg.Delta.NATS.Subject, coalescer)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to subscribe to NATS", err)
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				slog.Error("error draining NATS connection", "error", err)
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Options{
		Engines:     engines,
		Enabled:     enabled,
		Resolver:    resolver,
		Coalescer:   coalescer,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	serveErr := srv.ListenAndServe(ctx, cfg.Server.Addr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := coalescer.Stop(shutdownCtx); err != nil {
		slog.Warn("change processing did not finish before shutdown", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("error flushing traces", "error", err)
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return WrapExitError(ExitFailure, "server error", serveErr)
	}
	slog.Info("service stopped gracefully")
	return nil
}
