// Package fsblob provides a flat-file blob store for local runs: each
// logical key becomes a path under the data directory.
package fsblob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/protest-map-etl/internal/store"
)

// BlobStore implements store.Blob over the local filesystem.
type BlobStore struct {
	root string
}

// New creates a file blob store rooted at dir.
func New(dir string) *BlobStore {
	return &BlobStore{root: dir}
}

// Get reads the file for key. A missing file maps to store.ErrNotFound.
func (b *BlobStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put writes the file for key, creating parent directories as needed.
func (b *BlobStore) Put(_ context.Context, key string, data []byte) error {
	path := filepath.Join(b.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
