// Package storage defines interfaces for book content storage backends.
// The storage layer persists and retrieves raw book files. Content is
// addressed by its SHA-256 hash so identical uploads are stored once.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrContentNotFound indicates no content is stored under the given hash.
var ErrContentNotFound = errors.New("content not found")

// ErrInvalidHash indicates the hash is not 64 lowercase hex characters.
var ErrInvalidHash = errors.New("invalid content hash")

// Backend defines the interface for content storage backends.
// Implementations include the local filesystem and S3-compatible object storage.
type Backend interface {
	// Store stores content from a reader and returns the content hash (SHA-256)
	// and the number of bytes stored. If the content already exists (same
	// hash), nothing new is written.
	Store(ctx context.Context, reader io.Reader) (contentHash string, size int64, err error)

	// Retrieve retrieves content by its hash.
	// Returns a ReadCloser that must be closed after use, or ErrContentNotFound.
	Retrieve(ctx context.Context, contentHash string) (io.ReadCloser, error)

	// Delete removes content by its hash.
	// Callers only do this once no book references the hash anymore.
	// Deleting missing content is not an error.
	Delete(ctx context.Context, contentHash string) error

	// Exists checks if content with the given hash exists.
	Exists(ctx context.Context, contentHash string) (bool, error)

	// GetSize returns the size of stored content, or ErrContentNotFound.
	GetSize(ctx context.Context, contentHash string) (int64, error)

	// Ping checks that the backend is usable.
	Ping(ctx context.Context) error
}
