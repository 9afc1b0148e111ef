package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <subject...>",
		Short: "List the agendas changed resources belong to",
		Long: `Resolve resources to the agendas whose views they appear in, using the
configured path table. Agendas resolve to themselves; resources of no
known type resolve to nothing.

Example:
  yggdrasil resolve http://themis.vlaanderen.be/id/agendapunt/1`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, args, cmd)
		},
	}
}

func runResolve(opts *RootOptions, subjects []string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	resolver, err := newResolver(cfg, b)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	agendas, err := resolver.Resolve(ctx, subjects)
	if err != nil {
		return WrapExitError(ExitFailure, "resolve failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(map[string]any{"agendas": agendas}, func(w io.Writer) {
		for _, a := range agendas {
			fmt.Fprintln(w, a)
		}
	})
}
