package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/yggdrasil/internal/config"
	"github.com/roach88/yggdrasil/internal/distribution"
	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/pathspec"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/sparql"
	"github.com/roach88/yggdrasil/internal/store"
	"github.com/roach88/yggdrasil/internal/vocab"
)

// Store is what the commands need from a backend. Both the SQLite store
// and the SPARQL store implement it.
type Store interface {
	distribution.Store
	pathspec.Reacher
	InsertQuads(ctx context.Context, quads []rdf.Quad) error
	Triples(ctx context.Context, g string) ([]rdf.Triple, error)
	Graphs(ctx context.Context) ([]graph.GraphStat, error)
}

var (
	_ Store = (*store.Store)(nil)
	_ Store = (*sparql.Store)(nil)
)

// backend is an opened store. Runs and resolution may go to different
// endpoints: with direct queries, runs bypass the authorization layer.
type backend struct {
	runs     Store
	resolves Store
	close    func() error
}

func openBackend(cfg *config.Config) (*backend, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		slog.Info("opening database", "path", cfg.Store.SQLitePath)
		st, err := store.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		return &backend{runs: st, resolves: st, close: st.Close}, nil

	case config.BackendSPARQL:
		muAuth := sparql.NewStore(sparql.NewGateway(cfg.SPARQL.Endpoint,
			sparql.WithSudo(), sparql.WithTimeout(cfg.SPARQL.Timeout)))
		b := &backend{runs: muAuth, resolves: muAuth, close: func() error { return nil }}
		if cfg.SPARQL.UseDirectQueries {
			b.runs = sparql.NewStore(sparql.NewGateway(cfg.SPARQL.DirectEndpoint,
				sparql.WithTimeout(cfg.SPARQL.Timeout)))
		}
		slog.Info("using SPARQL endpoint",
			"endpoint", cfg.SPARQL.Endpoint,
			"direct", cfg.SPARQL.UseDirectQueries)
		return b, nil

	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown store backend %q", cfg.Store.Backend))
	}
}

func (b *backend) Close() {
	if err := b.close(); err != nil {
		slog.Error("error closing store", "error", err)
	}
}

// newEngine builds the engine of a configured profile.
func newEngine(cfg *config.Config, b *backend, name string) (*distribution.Engine, error) {
	profile, err := cfg.Profile(name)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "unknown profile", err)
	}
	e, err := distribution.New(b.runs, profile, engineOptions(cfg)...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid profile", err)
	}
	return e, nil
}

func engineOptions(cfg *config.Config) []distribution.EngineOption {
	return []distribution.EngineOption{
		distribution.WithResourcePageSize(cfg.Engine.ResourcePageSize),
		distribution.WithCopyPageSize(cfg.Engine.CopyPageSize),
		distribution.WithKeepScratch(cfg.Engine.KeepScratchGraph),
		distribution.WithScratchPrefix(cfg.Engine.ScratchPrefix),
	}
}

// newResolver builds the path resolver over the source graph every profile
// reads from.
func newResolver(cfg *config.Config, b *backend) (*pathspec.Resolver, error) {
	table, err := pathspec.Compile(cfg.PathTable())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid path table", err)
	}
	return pathspec.NewResolver(b.resolves, table, vocab.AdminGraph), nil
}
