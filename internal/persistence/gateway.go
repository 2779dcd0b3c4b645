package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	"github.com/qrpulse/qrpulse/internal/core/storage"
	"github.com/qrpulse/qrpulse/internal/metrics"
)

var (
	// ErrIOFailure marks a snapshot that could not be read or written.
	ErrIOFailure = errors.New("snapshot i/o failure")

	// ErrCorruptState marks a stored snapshot that could not be decoded.
	ErrCorruptState = errors.New("snapshot is corrupt")
)

// Gateway moves the whole click store to and from a single blob.
type Gateway struct {
	blob storage.BlobStore
}

// NewGateway creates a gateway over blob.
func NewGateway(blob storage.BlobStore) *Gateway {
	if blob == nil {
		panic("persistence: blob store must not be nil")
	}
	return &Gateway{blob: blob}
}

// Save snapshots store and overwrites the blob with it.
func (g *Gateway) Save(ctx context.Context, store *aggregation.Store) error {
	return g.SaveSnapshot(ctx, store.Snapshot())
}

// SaveSnapshot overwrites the blob with snap. Failures are logged and
// returned wrapped in ErrIOFailure; callers are not expected to fail on them.
func (g *Gateway) SaveSnapshot(ctx context.Context, snap aggregation.Snapshot) error {
	start := time.Now()
	defer func() { metrics.SaveDuration.Observe(time.Since(start).Seconds()) }()

	data, err := Encode(snap)
	if err != nil {
		metrics.Saves.WithLabelValues(metrics.ResultError).Inc()
		slog.Error("Failed to encode click snapshot", "error", err)
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	if err := g.blob.Write(ctx, data); err != nil {
		metrics.Saves.WithLabelValues(metrics.ResultError).Inc()
		slog.Error("Unable to write click snapshot", "error", err, "qr_ids", len(snap.Clicks))
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	metrics.Saves.WithLabelValues(metrics.ResultOK).Inc()
	metrics.SnapshotBytes.Set(float64(len(data)))
	slog.Debug("Click snapshot saved", "qr_ids", len(snap.Clicks), "bytes", len(data), "version", snap.Version)
	return nil
}

// Load reads the stored snapshot. A missing blob is the first-run case and
// yields an empty snapshot with no error.
func (g *Gateway) Load(ctx context.Context) (aggregation.Snapshot, error) {
	data, err := g.blob.Read(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Info("No click snapshot found, starting empty")
		return aggregation.Snapshot{Clicks: map[string]aggregation.Buckets{}}, nil
	}
	if err != nil {
		return aggregation.Snapshot{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	snap, err := Decode(data)
	if err != nil {
		return aggregation.Snapshot{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	return snap, nil
}

// Restore loads the stored snapshot into store. On error store is left untouched.
func (g *Gateway) Restore(ctx context.Context, store *aggregation.Store) error {
	snap, err := g.Load(ctx)
	if err != nil {
		return err
	}
	store.Restore(snap)
	metrics.TrackedQRCodes.Set(float64(store.Len()))
	slog.Info("Click snapshot restored", "qr_ids", len(snap.Clicks))
	return nil
}

// Ping reports whether the blob backend is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.blob.Ping(ctx)
}

// Close releases the blob backend.
func (g *Gateway) Close() error {
	return g.blob.Close()
}
