package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sheetboard/sheetboard/internal/config"
	"github.com/sheetboard/sheetboard/internal/core"
	"github.com/sheetboard/sheetboard/internal/logging"
	"github.com/sheetboard/sheetboard/internal/watch"
	"github.com/sheetboard/sheetboard/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"workbooks", len(cfg.Sources.Paths),
		"debounce", cfg.Watcher.Debounce,
	)

	sources, err := core.NewSources(cfg.Sources.Paths)
	if err != nil {
		slog.Error("failed to resolve workbook sources", "error", err)
		os.Exit(1)
	}
	for _, p := range sources.Paths() {
		slog.Info("serving workbook", "path", p)
	}

	cache := core.NewCache()
	guard := &core.WriteGuard{}
	hub := core.NewHub(cache)

	pipeline := core.NewPipeline(sources, cache, hub,
		core.RetryPolicy{Attempts: cfg.Reload.ReadAttempts, Delay: cfg.Reload.ReadDelay},
		core.RetryPolicy{Attempts: cfg.Reload.Attempts, Delay: cfg.Reload.Delay},
	)
	saver := core.NewSaver(sources, guard, pipeline, cfg.Reload.SaveSettle)
	launcher := core.NewLauncher(sources)

	// Populate the cache before serving so the first request never races the
	// first load.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipeline.AcceptAndPublish(ctx)

	watcher, err := watch.New(sources, guard, pipeline, cfg.Watcher.Debounce, cfg.Watcher.Settle)
	if err != nil {
		slog.Error("failed to start file watcher", "error", err)
		os.Exit(1)
	}
	go watcher.Run(ctx)

	server := web.NewServer(cache, saver, hub, launcher, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancel()
		if err := watcher.Close(); err != nil {
			slog.Warn("failed to stop file watcher cleanly", "error", err)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
