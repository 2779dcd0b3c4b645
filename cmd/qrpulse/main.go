package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	corecfg "github.com/qrpulse/qrpulse/internal/core/config"
	"github.com/qrpulse/qrpulse/internal/ingestion"
	"github.com/qrpulse/qrpulse/internal/logging"
	"github.com/qrpulse/qrpulse/internal/persistence"
	"github.com/qrpulse/qrpulse/internal/projection"
	"github.com/qrpulse/qrpulse/internal/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "qrpulse.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Bootstrap logger until config tells us the real one
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)
	slog.Info("Loaded config", "config", *configPath, "backend", cfg.Persistence.Backend)

	flushInterval, _ := cfg.Persistence.FlushIntervalDuration()
	saveTimeout, _ := cfg.Persistence.SaveTimeoutDuration()
	loc, _ := cfg.Clock.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize Storage
	blob, err := persistence.OpenBlob(ctx, cfg.Persistence)
	if err != nil {
		slog.Error("Failed to initialize snapshot storage", "backend", cfg.Persistence.Backend, "error", err)
		os.Exit(1)
	}
	gateway := persistence.NewGateway(blob)
	defer gateway.Close()

	// 3. Restore click counters. A bad snapshot is not fatal: the service
	// starts empty and the next save replaces it.
	store := aggregation.NewStore()
	if err := gateway.Restore(ctx, store); err != nil {
		switch {
		case errors.Is(err, persistence.ErrCorruptState):
			slog.Error("Stored snapshot is corrupt, starting with empty counters", "error", err)
		case errors.Is(err, persistence.ErrIOFailure):
			slog.Error("Stored snapshot unreadable, starting with empty counters", "error", err)
		default:
			slog.Error("Failed to restore snapshot, starting with empty counters", "error", err)
		}
	}
	slog.Info("Click store ready", "qr_codes", store.Len())

	// 4. Initialize Saver (after restore so the restore itself is not saved back)
	saver := persistence.NewSaver(gateway, store, flushInterval, saveTimeout)

	// 5. Initialize Ingestion and Projection
	ingestionSvc := ingestion.NewService(store, saver, cfg.Server.MaxBodySizeMB, cfg.Persistence.SyncSave).
		WithRateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	projectionSvc := projection.NewService(store, loc)

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), gateway, cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	projectionSvc.RegisterRoutes(srv.Engine)

	// Signal handler -> triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// 7. Start Services. The saver outlives the server so clicks accepted
	// while draining are in the final save.
	saverCtx, stopSaver := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return saver.Start(saverCtx)
	})
	g.Go(func() error {
		defer stopSaver()
		err := srv.Run(gctx)
		if err != nil {
			slog.Error("Server stopped with error", "error", err)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Error("Shutdown with error", "error", err)
		logCloser.Close()
		gateway.Close()
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
