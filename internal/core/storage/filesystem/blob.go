package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/qrpulse/qrpulse/internal/core/storage"
)

// DefaultPath matches the file name earlier deployments wrote next to the binary.
const DefaultPath = "clicks_data.json"

var _ storage.BlobStore = (*BlobStore)(nil)

// BlobStore keeps the snapshot in a single local file.
// Writes go to a temp file in the same directory which is then renamed over the
// target, so readers never observe a half-written document.
type BlobStore struct {
	path string
}

// NewBlobStore creates a file backed blob store.
func NewBlobStore(path string) *BlobStore {
	if path == "" {
		path = DefaultPath
	}
	return &BlobStore{path: path}
}

// Path returns the snapshot file location.
func (b *BlobStore) Path() string {
	return b.path
}

func (b *BlobStore) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return data, nil
}

func (b *BlobStore) Write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp snapshot file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp snapshot file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

// Ping checks that the snapshot directory exists.
func (b *BlobStore) Ping(ctx context.Context) error {
	dir := filepath.Dir(b.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("snapshot directory %q is not accessible: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot directory %q is not a directory", dir)
	}
	return nil
}

func (b *BlobStore) Close() error {
	return nil
}
