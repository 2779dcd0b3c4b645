package persistence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/qrpulse/qrpulse/internal/core/aggregation"
)

const defaultSaveTimeout = 10 * time.Second

// Saver writes the click store in the background.
//
// At most one save runs at a time. Triggers that arrive while a save is in
// flight collapse into a single follow-up save, and a save is skipped when the
// store has not changed since the last successful one.
type Saver struct {
	gateway  *Gateway
	store    *aggregation.Store
	interval time.Duration
	timeout  time.Duration
	trigger  chan struct{}

	mu        sync.Mutex // serializes saves; guards lastSaved
	lastSaved uint64
}

// NewSaver creates a saver. interval enables a periodic flush of unsaved
// changes; zero disables it. timeout bounds each write.
func NewSaver(gateway *Gateway, store *aggregation.Store, interval, timeout time.Duration) *Saver {
	if timeout <= 0 {
		timeout = defaultSaveTimeout
	}
	return &Saver{
		gateway:   gateway,
		store:     store,
		interval:  interval,
		timeout:   timeout,
		trigger:   make(chan struct{}, 1),
		lastSaved: store.Version(),
	}
}

// Trigger requests a save without blocking.
func (s *Saver) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
		// a save is already queued; it will pick up this change too
	}
}

// Flush saves the store now if it changed since the last successful save.
// It waits for any save already in flight.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Version() == s.lastSaved {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap := s.store.Snapshot()
	if err := s.gateway.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	s.lastSaved = snap.Version
	return nil
}

// Dirty reports whether the store has changes not yet saved.
func (s *Saver) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Version() != s.lastSaved
}

// Start runs the save loop until ctx is cancelled, then performs a final save.
func (s *Saver) Start(ctx context.Context) error {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	slog.Info("[Saver] Starting snapshot saver", "flush_interval", s.interval, "save_timeout", s.timeout)

	for {
		select {
		case <-s.trigger:
			s.flushLogged(ctx)
		case <-tick:
			s.flushLogged(ctx)
		case <-ctx.Done():
			slog.Info("[Saver] Stopping (context cancelled), running final save...")

			// ctx is already done; the final save gets a fresh one.
			if err := s.Flush(context.Background()); err != nil {
				slog.Error("[Saver] Final save failed", "error", err)
				return nil
			}
			slog.Info("[Saver] Final save complete")
			return nil
		}
	}
}

func (s *Saver) flushLogged(ctx context.Context) {
	if err := s.Flush(ctx); err != nil {
		// Gateway already logged the cause.
		slog.Warn("[Saver] Snapshot save failed, will retry on next trigger", "error", err)
	}
}
