package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stemsi/exstem-certify/internal/cli"
)

func main() {
	// ─── Signal Handling ───────────────────────────────────────────────
	// An in-flight submission is not cancelled by the signal; it finishes
	// or times out so the attempt is never left ambiguous.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── Run ───────────────────────────────────────────────────────────
	cmd := cli.NewRootCommand(cli.DefaultAppFactory)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
