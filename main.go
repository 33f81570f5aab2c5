package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/diaria/cmd"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, version); err != nil {
		cmd.HandleError(err)
	}
}
