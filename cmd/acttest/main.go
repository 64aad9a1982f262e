// Command acttest mounts render scenarios and checks what they produce.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/acttest/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
