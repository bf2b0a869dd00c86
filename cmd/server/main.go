package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/stockstage/internal/config"
	"github.com/JonMunkholm/stockstage/internal/core"
	"github.com/JonMunkholm/stockstage/internal/inventory"
	"github.com/JonMunkholm/stockstage/internal/logging"
	"github.com/JonMunkholm/stockstage/internal/web"
	"github.com/joho/godotenv"
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
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	backend, err := inventory.Open(ctx, cfg.Inventory, cfg.Database)
	if err != nil {
		slog.Error("failed to open inventory backend", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	service, err := core.NewService(backend, core.Options{
		MaxFileSize:       cfg.Import.MaxFileSize,
		Delimiter:         cfg.Import.Comma(),
		LazyQuotes:        cfg.Import.LazyQuotes,
		PositionalColumns: cfg.Import.PositionalColumns,
		SubmitTimeout:     cfg.Import.SubmitTimeout,
		MaxConcurrent:     cfg.Import.MaxConcurrent,
		MaxWait:           cfg.Import.MaxWaitTime,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, web.Options{
		Security:       cfg.Security,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadSize:  cfg.Import.MaxFileSize,
	})

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartJanitor(jobCtx, cfg.Import.SessionTTL, cfg.Import.JanitorInterval)

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Submissions still running hold records in flight; let them reconcile.
		if active := service.Limiter().Active(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}
	}()

	if err := server.Start(cfg.Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		backend.Close()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
