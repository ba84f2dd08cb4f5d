// Package filesystem implements storage.Backend on a local directory tree.
// Files are sharded by hash prefix: {data_dir}/ab/cd/abcd....
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-library/internal/pkg/crypto"
	"github.com/prn-tf/alexander-library/internal/storage"
)

// Storage is a content-addressed filesystem backend.
type Storage struct {
	paths   storage.PathConfig
	tempDir string
	logger  zerolog.Logger
}

// New creates the data and temp directories if needed and returns a Storage.
func New(dataDir, tempDir string, logger zerolog.Logger) (*Storage, error) {
	if dataDir == "" {
		return nil, errors.New("data directory is required")
	}
	if tempDir == "" {
		tempDir = filepath.Join(dataDir, ".tmp")
	}

	for _, dir := range []string{dataDir, tempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &Storage{
		paths:   storage.DefaultPathConfig(dataDir),
		tempDir: tempDir,
		logger:  logger.With().Str("component", "filesystem-storage").Logger(),
	}, nil
}

// Store streams reader into a temp file while hashing it, then moves the
// file to its content-addressed location. Existing content is kept as is.
func (s *Storage) Store(ctx context.Context, reader io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp(s.tempDir, "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	hr := crypto.NewHashReader(&contextReader{ctx: ctx, r: reader})
	if _, err := io.Copy(tmp, hr); err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("failed to sync content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close temp file: %w", err)
	}

	hash := hr.SHA256()
	target := storage.ComputePath(s.paths, hash)

	if _, err := os.Stat(target); err == nil {
		s.logger.Debug().Str("hash", hash).Msg("content already stored")
		return hash, hr.Size(), nil
	}

	if err := os.MkdirAll(storage.GetShardPath(s.paths, hash), 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create shard directory: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", 0, fmt.Errorf("failed to move content into place: %w", err)
	}

	s.logger.Debug().Str("hash", hash).Int64("size", hr.Size()).Msg("content stored")
	return hash, hr.Size(), nil
}

// Retrieve opens the content stored under hash.
func (s *Storage) Retrieve(ctx context.Context, hash string) (io.ReadCloser, error) {
	path, err := s.path(hash)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to open content: %w", err)
	}
	return f, nil
}

// Delete removes the content stored under hash.
func (s *Storage) Delete(ctx context.Context, hash string) error {
	path, err := s.path(hash)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete content: %w", err)
	}

	// Empty shard directories are left behind; they are reused by later uploads.
	return nil
}

// Exists checks whether content is stored under hash.
func (s *Storage) Exists(ctx context.Context, hash string) (bool, error) {
	_, err := s.GetSize(ctx, hash)
	if errors.Is(err, storage.ErrContentNotFound) {
		return false, nil
	}
	return err == nil, err
}

// GetSize returns the size of the content stored under hash.
func (s *Storage) GetSize(ctx context.Context, hash string) (int64, error) {
	path, err := s.path(hash)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, storage.ErrContentNotFound
		}
		return 0, fmt.Errorf("failed to stat content: %w", err)
	}
	return info.Size(), nil
}

// Ping checks that the data directory is still accessible.
func (s *Storage) Ping(ctx context.Context) error {
	info, err := os.Stat(s.paths.BasePath)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", s.paths.BasePath)
	}
	return nil
}

// path validates hash before turning it into a filesystem path.
func (s *Storage) path(hash string) (string, error) {
	if !crypto.ValidateSHA256(hash) {
		return "", storage.ErrInvalidHash
	}
	return storage.ComputePath(s.paths, hash), nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ storage.Backend = (*Storage)(nil)
