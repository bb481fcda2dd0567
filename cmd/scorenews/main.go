package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/deusflow/scorenews/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("scorenews failed", "error", err)
		os.Exit(1)
	}
}
