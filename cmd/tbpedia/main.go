package main

import (
	"context"
	"os"
	"os/signal"

	"tbpedia-dashboard/cmd/tbpedia/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
