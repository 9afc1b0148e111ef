package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/vocab"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Graph string
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <file...>",
		Short: "Load N-Triples or N-Quads into the store",
		Long: `Load RDF files into the configured store.

Files ending in .nq are read as N-Quads; quads without a graph go to
--graph. Every other file is read as N-Triples into --graph.

Example:
  STORE_BACKEND=sqlite yggdrasil load ./dump/kanselarij.nt
  yggdrasil load --graph http://mu.semte.ch/graphs/public public.nt`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Graph, "graph", "g", vocab.AdminGraph, "graph for triples without one")

	return cmd
}

func runLoad(opts *LoadOptions, files []string, cmd *cobra.Command) error {
	quads := []rdf.Quad{}
	for _, file := range files {
		qs, err := readQuads(file, opts.Graph)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read "+file, err)
		}
		slog.Debug("read file", "file", file, "quads", len(qs))
		quads = append(quads, qs...)
	}

	cfg, err := loadConfig(opts.RootOptions)
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
	if err := b.resolves.InsertQuads(ctx, quads); err != nil {
		return WrapExitError(ExitFailure, "failed to load", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(map[string]any{"files": len(files), "quads": len(quads)}, func(w io.Writer) {
		fmt.Fprintf(w, "Loaded %d quads from %d file(s)\n", len(quads), len(files))
	})
}

func readQuads(file, graph string) ([]rdf.Quad, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(file), ".nq") {
		return rdf.ParseNQuads(f, graph)
	}
	triples, err := rdf.ParseNTriples(f)
	if err != nil {
		return nil, err
	}
	quads := make([]rdf.Quad, len(triples))
	for i, t := range triples {
		quads[i] = rdf.Quad{Triple: t, Graph: graph}
	}
	return quads, nil
}
