package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	"github.com/qrpulse/qrpulse/internal/core/storage"
	"github.com/qrpulse/qrpulse/internal/core/storage/filesystem"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockBlob is a testify mock of storage.BlobStore.
type mockBlob struct {
	mock.Mock
}

func (m *mockBlob) Read(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockBlob) Write(ctx context.Context, data []byte) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockBlob) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBlob) Close() error {
	return m.Called().Error(0)
}

func seededStore(t *testing.T) *aggregation.Store {
	t.Helper()
	s := aggregation.NewStore()
	for _, rec := range []struct{ id, ts string }{
		{"id1", "2024-01-25T20:34:06"},
		{"id1", "2024-01-25T21:10:00"},
		{"id1", "2024-02-08T20:34:06"},
		{"id2", "2024-02-22T03:22:06"},
		{"id2", "2024-02-22T03:22:06"},
	} {
		_, err := s.RecordString(rec.id, rec.ts)
		require.NoError(t, err)
	}
	return s
}

func TestGateway_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := NewGateway(filesystem.NewBlobStore(filepath.Join(t.TempDir(), "clicks_data.json")))

	src := seededStore(t)
	require.NoError(t, gw.Save(ctx, src))

	dst := aggregation.NewStore()
	require.NoError(t, gw.Restore(ctx, dst))

	want := src.Snapshot().Clicks
	got := dst.Snapshot().Clicks
	require.Equal(t, want, got)
}

func TestGateway_LoadMissingBlobIsEmpty(t *testing.T) {
	gw := NewGateway(filesystem.NewBlobStore(filepath.Join(t.TempDir(), "absent.json")))

	snap, err := gw.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Clicks)
}

func TestGateway_LoadCorruptBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clicks_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"click_data": [`), 0o644))
	gw := NewGateway(filesystem.NewBlobStore(path))

	store := seededStore(t)
	before := store.Snapshot()

	err := gw.Restore(context.Background(), store)
	require.ErrorIs(t, err, ErrCorruptState)
	require.NotErrorIs(t, err, ErrIOFailure)
	require.Equal(t, before, store.Snapshot())
}

func TestGateway_LoadReadFailureIsIOFailure(t *testing.T) {
	blob := &mockBlob{}
	boom := errors.New("disk gone")
	blob.On("Read", mock.Anything).Return(nil, boom).Once()

	_, err := NewGateway(blob).Load(context.Background())
	require.ErrorIs(t, err, ErrIOFailure)
	require.ErrorIs(t, err, boom)
	blob.AssertExpectations(t)
}

func TestGateway_SaveWriteFailureIsIOFailure(t *testing.T) {
	blob := &mockBlob{}
	blob.On("Write", mock.Anything, mock.AnythingOfType("[]uint8")).Return(errors.New("read-only file system")).Once()

	err := NewGateway(blob).Save(context.Background(), seededStore(t))
	require.ErrorIs(t, err, ErrIOFailure)
	blob.AssertExpectations(t)
}

func TestGateway_SaveWritesEncodedDocument(t *testing.T) {
	blob := &mockBlob{}
	blob.On("Write", mock.Anything, mock.MatchedBy(func(data []byte) bool {
		snap, err := Decode(data)
		return err == nil && snap.Clicks["id2"].Hour["2024-02-22 03"] == 2
	})).Return(nil).Once()

	require.NoError(t, NewGateway(blob).Save(context.Background(), seededStore(t)))
	blob.AssertExpectations(t)
}

func TestGateway_Ping(t *testing.T) {
	blob := &mockBlob{}
	blob.On("Ping", mock.Anything).Return(storage.ErrNotFound).Once()
	blob.On("Close").Return(nil).Once()

	gw := NewGateway(blob)
	require.Error(t, gw.Ping(context.Background()))
	require.NoError(t, gw.Close())
	blob.AssertExpectations(t)
}

func TestGateway_RestoredStoreKeepsCounting(t *testing.T) {
	ctx := context.Background()
	gw := NewGateway(filesystem.NewBlobStore(filepath.Join(t.TempDir(), "clicks_data.json")))
	require.NoError(t, gw.Save(ctx, seededStore(t)))

	store := aggregation.NewStore()
	require.NoError(t, gw.Restore(ctx, store))
	require.NoError(t, store.Record("id1", time.Date(2024, 1, 25, 20, 59, 59, 0, time.UTC)))

	require.Equal(t, uint64(2), store.Count("id1", aggregation.Hour, "2024-01-25 20"))
	require.Equal(t, uint64(3), store.Count("id1", aggregation.Day, "2024-01-25"))
}
