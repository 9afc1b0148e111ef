package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/yggdrasil/internal/pathspec"
)

// NewPathsCommand creates the paths command.
func NewPathsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the flattened path table",
		Long: `Compile the configured path table and print, for every resource type,
the property paths that lead from it to an agenda.

Example:
  yggdrasil paths
  yggdrasil paths --config ./config.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaths(rootOpts, cmd)
		},
	}
}

// flatPaths is the JSON form of a flattened table.
type flatPaths struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Paths []string `json:"paths"`
}

func runPaths(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	flat, err := pathspec.Compile(cfg.PathTable())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid path table", err)
	}

	prefixes := flat.Prefixes()
	data := make([]flatPaths, 0, len(flat.Names))
	for _, name := range flat.Names {
		fp := flatPaths{Name: name, Type: flat.Types[name], Paths: []string{}}
		for _, p := range flat.Paths[name] {
			fp.Paths = append(fp.Paths, p.Format(prefixes))
		}
		data = append(data, fp)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(data, func(w io.Writer) {
		fmt.Fprint(w, flat.Format())
	})
}
