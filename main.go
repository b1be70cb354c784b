package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"semsearch/internal/app"
	"semsearch/internal/config"
	"semsearch/internal/logger"
)

func main() {
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.Provider.Close()

	a, err := app.New(cfg, deps.DB, deps.Store, deps.Provider)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
