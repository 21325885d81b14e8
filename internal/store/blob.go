// Package store persists each logical collection as one JSON document
// behind a narrow repository interface, so the backing medium (object
// store, flat file) is swappable without touching pipeline logic.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Blob is an opaque key→bytes document store.
type Blob interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// ErrNotFound is returned by Blob.Get when no document exists under a key.
var ErrNotFound = errors.New("store: object not found")

// ErrEventNotFound is returned by mutations referencing an unknown event id.
var ErrEventNotFound = errors.New("store: event not found")

// Collection persists one value of type T as a JSON document under a fixed
// key. Reads never block; mutating callers go through Update, which holds a
// per-collection mutex across the whole read-modify-write cycle so two
// overlapping writes cannot lose one another.
type Collection[T any] struct {
	blob Blob
	key  string
	mu   sync.Mutex
}

// NewCollection creates a collection bound to a blob key.
func NewCollection[T any](blob Blob, key string) *Collection[T] {
	return &Collection[T]{blob: blob, key: key}
}

// Load reads and decodes the document. A missing document yields the zero
// value of T with no error.
func (c *Collection[T]) Load(ctx context.Context) (T, error) {
	var v T
	data, err := c.blob.Get(ctx, c.key)
	if errors.Is(err, ErrNotFound) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("load %s: %w", c.key, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", c.key, err)
	}
	return v, nil
}

// Save encodes and writes the document.
func (c *Collection[T]) Save(ctx context.Context, v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.blob.Put(ctx, c.key, data); err != nil {
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	return nil
}

// Update runs fn on the current document and persists the result under the
// collection mutex. If fn or the write fails, nothing is persisted.
func (c *Collection[T]) Update(ctx context.Context, fn func(T) (T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.Load(ctx)
	if err != nil {
		return err
	}
	v, err = fn(v)
	if err != nil {
		return err
	}
	return c.Save(ctx, v)
}
