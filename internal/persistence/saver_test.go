package persistence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	"github.com/qrpulse/qrpulse/internal/core/storage"
	"github.com/stretchr/testify/require"
)

// recordingBlob counts writes and can hold them open to simulate slow storage.
type recordingBlob struct {
	mu       sync.Mutex
	last     []byte
	writes   atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	hold     chan struct{} // when set, each Write waits for a receive
	fail     error
}

func (b *recordingBlob) Read(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return nil, storage.ErrNotFound
	}
	return b.last, nil
}

func (b *recordingBlob) Write(ctx context.Context, data []byte) error {
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		seen := b.maxSeen.Load()
		if n <= seen || b.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if b.hold != nil {
		<-b.hold
	}
	b.writes.Add(1)
	if b.fail != nil {
		return b.fail
	}
	b.mu.Lock()
	b.last = append([]byte(nil), data...)
	b.mu.Unlock()
	return nil
}

func (b *recordingBlob) Ping(ctx context.Context) error { return nil }
func (b *recordingBlob) Close() error                   { return nil }

func TestSaver_FlushSkipsWhenClean(t *testing.T) {
	blob := &recordingBlob{}
	store := aggregation.NewStore()
	saver := NewSaver(NewGateway(blob), store, 0, time.Second)

	require.False(t, saver.Dirty())
	require.NoError(t, saver.Flush(context.Background()))
	require.Equal(t, int32(0), blob.writes.Load())

	require.NoError(t, store.Record("id1", time.Date(2024, 1, 25, 20, 34, 6, 0, time.UTC)))
	require.True(t, saver.Dirty())
	require.NoError(t, saver.Flush(context.Background()))
	require.NoError(t, saver.Flush(context.Background()))
	require.Equal(t, int32(1), blob.writes.Load())
	require.False(t, saver.Dirty())
}

func TestSaver_FailedFlushStaysDirty(t *testing.T) {
	blob := &recordingBlob{fail: errors.New("no space left on device")}
	store := aggregation.NewStore()
	saver := NewSaver(NewGateway(blob), store, 0, time.Second)

	require.NoError(t, store.Record("id1", time.Date(2024, 1, 25, 20, 34, 6, 0, time.UTC)))
	err := saver.Flush(context.Background())
	require.ErrorIs(t, err, ErrIOFailure)
	require.True(t, saver.Dirty())
}

func TestSaver_TriggersCoalesceAndNeverOverlap(t *testing.T) {
	blob := &recordingBlob{hold: make(chan struct{})}
	store := aggregation.NewStore()
	saver := NewSaver(NewGateway(blob), store, 0, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- saver.Start(ctx) }()

	ts := time.Date(2024, 2, 22, 3, 22, 6, 0, time.UTC)
	require.NoError(t, store.Record("id1", ts))
	saver.Trigger()

	// First save is now blocked inside Write. Pile up more triggers.
	require.Eventually(t, func() bool { return blob.inFlight.Load() == 1 }, time.Second, 5*time.Millisecond)
	for i := 0; i < 50; i++ {
		require.NoError(t, store.Record("id1", ts))
		saver.Trigger()
	}

	blob.hold <- struct{}{} // release first save
	blob.hold <- struct{}{} // release the single coalesced follow-up

	require.Eventually(t, func() bool { return !saver.Dirty() }, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(2), blob.writes.Load())
	require.Equal(t, int32(1), blob.maxSeen.Load())

	cancel()
	require.NoError(t, <-done)

	snap, err := NewGateway(blob).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(51), snap.Clicks["id1"].Hour["2024-02-22 03"])
}

func TestSaver_FinalSaveOnShutdown(t *testing.T) {
	blob := &recordingBlob{}
	store := aggregation.NewStore()
	saver := NewSaver(NewGateway(blob), store, time.Hour, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- saver.Start(ctx) }()

	// Recorded without a trigger: only the final save can persist it.
	require.NoError(t, store.Record("id1", time.Date(2024, 1, 25, 20, 34, 6, 0, time.UTC)))
	cancel()
	require.NoError(t, <-done)

	require.Equal(t, int32(1), blob.writes.Load())
	require.False(t, saver.Dirty())
}

func TestSaver_PeriodicFlush(t *testing.T) {
	blob := &recordingBlob{}
	store := aggregation.NewStore()
	saver := NewSaver(NewGateway(blob), store, 10*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go saver.Start(ctx)

	require.NoError(t, store.Record("id1", time.Date(2024, 1, 25, 20, 34, 6, 0, time.UTC)))
	require.Eventually(t, func() bool { return blob.writes.Load() == 1 }, time.Second, 5*time.Millisecond)
}
