package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePath(t *testing.T) {
	hash := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"
	cfg := DefaultPathConfig("/data")

	assert.Equal(t, filepath.Join("/data", "ab", "cd", hash), ComputePath(cfg, hash))
	assert.Equal(t, filepath.Join("/data", "ab", "cd"), GetShardPath(cfg, hash))
	assert.Equal(t, []string{"ab", "cd"}, GetShardDirs(cfg, hash))

	// Short hashes are not sharded.
	assert.Equal(t, filepath.Join("/data", "abc"), ComputePath(cfg, "abc"))
	assert.Equal(t, "/data", GetShardPath(cfg, "abc"))
}
