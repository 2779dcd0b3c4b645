package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qrpulse/qrpulse/internal/core/config"
	"github.com/qrpulse/qrpulse/internal/core/storage"
	"github.com/qrpulse/qrpulse/internal/core/storage/filesystem"
	"github.com/qrpulse/qrpulse/internal/core/storage/postgres"
	"github.com/qrpulse/qrpulse/internal/core/storage/redis"
	"github.com/qrpulse/qrpulse/internal/core/storage/sqlite"
	"github.com/qrpulse/qrpulse/internal/migrations"
)

// OpenBlob connects the blob store selected by persistence.backend.
// For postgres it also applies the embedded migrations and checks the schema.
func OpenBlob(ctx context.Context, cfg config.PersistenceConfig) (storage.BlobStore, error) {
	switch cfg.Backend {
	case config.BackendFile:
		slog.Info("Using file snapshot storage", "path", cfg.File.Path)
		return filesystem.NewBlobStore(cfg.File.Path), nil

	case config.BackendRedis:
		blob, err := redis.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Key)
		if err != nil {
			return nil, err
		}
		slog.Info("Using redis snapshot storage", "addr", cfg.Redis.Addr, "key", cfg.Redis.Key)
		return blob, nil

	case config.BackendSQLite:
		blob, err := sqlite.Open(cfg.SQLite.DSN, cfg.SQLite.Name)
		if err != nil {
			return nil, err
		}
		slog.Info("Using sqlite snapshot storage", "dsn", cfg.SQLite.DSN, "name", cfg.SQLite.Name)
		return blob, nil

	case config.BackendPostgres:
		db, err := postgres.Open(cfg.Postgres.DSN, cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		if err := migrations.RunMigrations(db, cfg.Postgres.AutoMigrate); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run snapshot migrations: %w", err)
		}
		adapter := postgres.NewAdapter(db, cfg.Postgres.Name)
		if err := adapter.ValidateSchema(ctx); err != nil {
			adapter.Close()
			return nil, err
		}
		slog.Info("Using postgres snapshot storage", "name", cfg.Postgres.Name)
		return adapter, nil
	}

	return nil, fmt.Errorf("unsupported persistence backend %q", cfg.Backend)
}
