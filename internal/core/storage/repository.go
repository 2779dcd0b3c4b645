package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by BlobStore.Read when no blob has been written yet.
var ErrNotFound = errors.New("blob not found")

// BlobStore holds one opaque, named document that is overwritten as a whole.
// It backs the click snapshot; implementations live in the sub-packages.
type BlobStore interface {
	// Read returns the current blob contents, or ErrNotFound.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the blob contents.
	Write(ctx context.Context, data []byte) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
