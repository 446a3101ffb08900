// Command skelpose evaluates, records and replays 2D skeleton poses.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/skelpose/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "skelpose: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
