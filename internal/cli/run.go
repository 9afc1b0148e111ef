package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/yggdrasil/internal/distribution"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	All     bool
	Initial bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <profile> [agenda...]",
		Short: "Publish a profile's view once",
		Long: `Run one distribution for a profile and print the result.

Disabled profiles can be run by hand. With --all every agenda of the
source graph is recomputed; --initial skips reconciliation and assumes the
target graph is empty.

Exit codes:
  0 - Run succeeded
  1 - Run failed
  2 - Command error (unknown profile, bad configuration, etc.)

Examples:
  yggdrasil run government http://themis.vlaanderen.be/id/agenda/1
  yggdrasil run public --all --initial
  yggdrasil run cabinet --all --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistribution(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "recompute every agenda")
	cmd.Flags().BoolVar(&opts.Initial, "initial", false, "skip reconciliation (empty target)")

	return cmd
}

func runDistribution(opts *RunOptions, profile string, agendas []string, cmd *cobra.Command) error {
	scope := distribution.Scope{Agendas: agendas, All: opts.All, Initial: opts.Initial}
	// Validate the scope before touching the store
	if err := scope.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "nothing to run", err)
	}

	// Load configuration (--config file, then environment)
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	// Disabled profiles can still be run by hand
	e, err := newEngine(cfg, b, profile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	slog.Info("starting distribution", "profile", profile, "agendas", len(agendas), "all", opts.All)
	res := e.Run(ctx, scope)

	// RunResult hides its errors from JSON; carry the message separately
	data := runOutput{RunResult: res}
	if res.Err != nil {
		data.Error = res.Err.Error()
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := out.Success(data, func(w io.Writer) { printRunResult(w, res) }); err != nil {
		return err
	}
	// The result is printed either way; a failed run still exits non-zero
	if res.Err != nil {
		return WrapExitError(ExitFailure, "distribution failed", res.Err)
	}
	return nil
}

type runOutput struct {
	distribution.RunResult
	Error string `json:"error,omitempty"`
}

func printRunResult(w io.Writer, res distribution.RunResult) {
	status := "✓"
	if res.Err != nil {
		status = "✗"
	}
	fmt.Fprintf(w, "%s %s (%s)\n", status, res.Profile, res.Finished.Sub(res.Started).Round(time.Millisecond))
	for _, s := range res.Stages {
		switch {
		case s.Skipped:
			fmt.Fprintf(w, "  %-10s skipped\n", s.Stage)
		case s.Error != "":
			fmt.Fprintf(w, "  %-10s failed: %s\n", s.Stage, s.Error)
		default:
			fmt.Fprintf(w, "  %-10s %s\n", s.Stage, s.Duration.Round(time.Millisecond))
		}
	}
	for _, tc := range res.Collected {
		fmt.Fprintf(w, "  collected %6d %s\n", tc.Count, tc.Type)
	}
	if res.EndedEarly {
		fmt.Fprintln(w, "  collection ended early")
	}
	fmt.Fprintf(w, "  orphans %d, stale %d, lineage removed %d, copied %d\n",
		res.Orphans, res.Stale, res.LineageRemoved, res.Copied)
	if res.CleanupErr != nil {
		fmt.Fprintf(w, "  cleanup failed: %v\n", res.CleanupErr)
	}
}
