package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/qrpulse/qrpulse/internal/core/storage"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis key the snapshot is stored under.
const DefaultKey = "qrpulse:clicks_data"

var _ storage.BlobStore = (*BlobStore)(nil)

// BlobStore keeps the snapshot in one Redis string key with no expiry.
type BlobStore struct {
	client *goredis.Client
	key    string
}

// NewBlobStore wraps an existing client.
func NewBlobStore(client *goredis.Client, key string) *BlobStore {
	if key == "" {
		key = DefaultKey
	}
	return &BlobStore{client: client, key: key}
}

// Dial creates a client for addr and verifies connectivity.
func Dial(ctx context.Context, addr, password string, db int, key string) (*BlobStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return NewBlobStore(client, key), nil
}

func (b *BlobStore) Read(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot key %q: %w", b.key, err)
	}
	return data, nil
}

func (b *BlobStore) Write(ctx context.Context, data []byte) error {
	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot key %q: %w", b.key, err)
	}
	return nil
}

func (b *BlobStore) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *BlobStore) Close() error {
	return b.client.Close()
}
