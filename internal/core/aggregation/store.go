package aggregation

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Store keeps hour, day and week click counters per QR id.
//
// Counters only grow. Old buckets are never removed; Query hides them instead.
// All access is serialized on a single store-wide lock.
type Store struct {
	mu      sync.RWMutex
	clicks  map[string]*Buckets
	version uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{clicks: make(map[string]*Buckets)}
}

// Record counts one click for qrID at t in each of the three granularities.
func (s *Store) Record(qrID string, t time.Time) error {
	if qrID == "" {
		return fmt.Errorf("%w: qr_id is required", ErrInvalidInput)
	}

	// Keys are derived before taking the lock so a bad input never leaves a
	// partial update behind.
	t = Naive(t)
	keys := [...]string{KeyFor(Hour, t), KeyFor(Day, t), KeyFor(Week, t)}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clicks[qrID]
	if !ok {
		b = &Buckets{}
		s.clicks[qrID] = b
	}
	for i, g := range Granularities {
		b.ensure(g)[keys[i]]++
	}
	s.version++
	return nil
}

// RecordString parses an ISO-8601 timestamp and records the click.
func (s *Store) RecordString(qrID, timestamp string) (Event, error) {
	if qrID == "" {
		return Event{}, fmt.Errorf("%w: qr_id is required", ErrInvalidInput)
	}
	t, err := ParseTimestamp(timestamp)
	if err != nil {
		return Event{}, err
	}
	if err := s.Record(qrID, t); err != nil {
		return Event{}, err
	}
	return Event{QRID: qrID, At: t}, nil
}

// Query returns the buckets of qrID at granularity g that fall inside the
// trailing window ending at now. The result is never nil and is safe to keep.
func (s *Store) Query(qrID string, g Granularity, now time.Time) BucketMap {
	out := make(BucketMap)

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.clicks[qrID]
	if !ok {
		return out
	}
	for key, count := range b.Map(g) {
		start, err := KeyStart(g, key)
		if err != nil {
			slog.Warn("Skipping unreadable bucket key", "qr_id", qrID, "granularity", g.String(), "key", key, "error", err)
			continue
		}
		if InWindow(g, start, now) {
			out[key] = count
		}
	}
	return out
}

// Count returns the raw counter for one bucket, ignoring any window.
func (s *Store) Count(qrID string, g Granularity, key string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.clicks[qrID]
	if !ok {
		return 0
	}
	return b.Map(g)[key]
}

// Len returns the number of known QR ids.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clicks)
}

// Version increases on every successful Record and Restore.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a deep copy of all counters.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Snapshot{
		Version: s.version,
		Clicks:  make(map[string]Buckets, len(s.clicks)),
	}
	for id, b := range s.clicks {
		out.Clicks[id] = b.clone()
	}
	return out
}

// Restore replaces all counters with a copy of snap.
func (s *Store) Restore(snap Snapshot) {
	clicks := make(map[string]*Buckets, len(snap.Clicks))
	for id, b := range snap.Clicks {
		c := b.clone()
		clicks[id] = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks = clicks
	s.version++
}
