// Command actionkit runs the action helpers from a
// workflow step: creating or closing pull requests,
// committing through the API and computing the next
// release version.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)

	err := newRootCmd().ExecuteContext(ctx)

	stop()

	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
