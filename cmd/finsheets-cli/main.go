package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"finsheets/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := SetupCommands(func(cfg appConfig) (*App, error) {
		return NewApp(cfg, os.Stdout, os.Stdin)
	})
	if err := root.ExecuteContext(ctx); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
