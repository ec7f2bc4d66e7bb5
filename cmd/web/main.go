// Command web serves the well water quality analytics API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wellwq/internal/app"
	"wellwq/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}
