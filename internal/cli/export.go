package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/yggdrasil/internal/rdf"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [graph]",
		Short: "Print a graph as N-Triples",
		Long: `Print every triple of a graph as sorted N-Triples. Without a graph, list
the non-empty graphs of the store with their sizes.

Example:
  yggdrasil export
  yggdrasil export http://mu.semte.ch/graphs/public > public.nt`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, args, cmd)
		},
	}
}

func runExport(opts *RootOptions, args []string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if len(args) == 0 {
		graphs, err := b.resolves.Graphs(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list graphs", err)
		}
		return out.Success(graphs, func(w io.Writer) {
			for _, g := range graphs {
				fmt.Fprintf(w, "%8d %s\n", g.Triples, g.Graph)
			}
		})
	}

	triples, err := b.resolves.Triples(ctx, args[0])
	if err != nil {
		return WrapExitError(ExitFailure, "failed to export "+args[0], err)
	}
	doc := rdf.FormatNTriples(triples)
	return out.Success(map[string]any{"graph": args[0], "triples": len(triples), "ntriples": doc}, func(w io.Writer) {
		fmt.Fprint(w, doc)
	})
}
