// Command yggdrasil publishes access-controlled views of the agenda graph.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/yggdrasil/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
