package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"service-request-form/internal/cli"
)

func main() {
	// Graceful shutdown on Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewServerCommand(cli.ServerDependencies{
		Input:  os.Stdin,
		Output: os.Stdout,
	})
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
