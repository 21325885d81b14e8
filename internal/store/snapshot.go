package store

import (
	"context"
	"fmt"

	"github.com/couchcryptid/protest-map-etl/internal/domain"
)

// SnapshotStore persists a source's normalized pipeline output
// (processed/<source>-events.json) so the serve path reads the last good
// snapshot instead of blocking on upstream feeds.
type SnapshotStore struct {
	col *Collection[[]domain.Event]
}

// NewSnapshotStore creates the processed-events repository for a source.
func NewSnapshotStore(blob Blob, source domain.Source) *SnapshotStore {
	key := fmt.Sprintf("processed/%s-events.json", source)
	return &SnapshotStore{col: NewCollection[[]domain.Event](blob, key)}
}

// Load returns the stored snapshot, empty when none has been written yet.
func (s *SnapshotStore) Load(ctx context.Context) ([]domain.Event, error) {
	return s.col.Load(ctx)
}

// Save replaces the snapshot.
func (s *SnapshotStore) Save(ctx context.Context, events []domain.Event) error {
	return s.col.Save(ctx, events)
}
