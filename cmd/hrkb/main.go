// Command hrkb is the multi-tenant HR knowledge base CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cleardesk/hrkb/internal/adapters/driving/cli"
)

func main() {
	// Ctrl-C cancels the command context for long-running commands
	// such as watch and mcp serve.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
