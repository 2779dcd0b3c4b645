package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	"github.com/qrpulse/qrpulse/internal/core/config"
	"github.com/stretchr/testify/require"
)

// Save then Restore through every backend that runs without external services.
func TestOpenBlob_RoundTripPerBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  func(dir string) config.PersistenceConfig
	}{
		{
			name: "file",
			cfg: func(dir string) config.PersistenceConfig {
				return config.PersistenceConfig{
					Backend: config.BackendFile,
					File:    config.FileConfig{Path: filepath.Join(dir, "clicks_data.json")},
				}
			},
		},
		{
			name: "sqlite",
			cfg: func(dir string) config.PersistenceConfig {
				return config.PersistenceConfig{
					Backend: config.BackendSQLite,
					SQLite:  config.SQLiteConfig{DSN: filepath.Join(dir, "qrpulse.db"), Name: "clicks_data"},
				}
			},
		},
		{
			name: "redis",
			cfg: func(string) config.PersistenceConfig {
				return config.PersistenceConfig{
					Backend: config.BackendRedis,
					Redis:   config.RedisConfig{Addr: mr.Addr(), Key: "qrpulse:clicks_data"},
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			blob, err := OpenBlob(ctx, tc.cfg(t.TempDir()))
			require.NoError(t, err)
			gw := NewGateway(blob)
			defer gw.Close()

			src := seededStore(t)
			require.NoError(t, gw.Save(ctx, src))

			dst := aggregation.NewStore()
			require.NoError(t, gw.Restore(ctx, dst))
			require.Equal(t, src.Snapshot().Clicks, dst.Snapshot().Clicks)
			require.NoError(t, gw.Ping(ctx))
		})
	}
}

func TestOpenBlob_UnsupportedBackend(t *testing.T) {
	_, err := OpenBlob(context.Background(), config.PersistenceConfig{Backend: "s3"})
	require.ErrorContains(t, err, "unsupported persistence backend")
}
