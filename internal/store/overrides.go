package store

import (
	"context"

	"github.com/couchcryptid/protest-map-etl/internal/domain"
)

const (
	overridesKey  = "overrides/event-overrides.json"
	suppressedKey = "overrides/suppressed-events.json"
)

// OverrideStore persists admin field corrections keyed by source event id.
type OverrideStore struct {
	col *Collection[map[string]domain.Override]
}

// NewOverrideStore creates the override repository.
func NewOverrideStore(blob Blob) *OverrideStore {
	return &OverrideStore{col: NewCollection[map[string]domain.Override](blob, overridesKey)}
}

// All returns every stored override.
func (s *OverrideStore) All(ctx context.Context) (map[string]domain.Override, error) {
	return s.col.Load(ctx)
}

// Set merges fields into the override stored for sourceID, last write
// winning per field.
func (s *OverrideStore) Set(ctx context.Context, sourceID string, o domain.Override) error {
	return s.col.Update(ctx, func(m map[string]domain.Override) (map[string]domain.Override, error) {
		if m == nil {
			m = make(map[string]domain.Override)
		}
		existing := m[sourceID]
		existing.Merge(o)
		m[sourceID] = existing
		return m, nil
	})
}

// SuppressionStore persists the set of source event ids hidden from output.
type SuppressionStore struct {
	col *Collection[[]string]
}

// NewSuppressionStore creates the suppression repository.
func NewSuppressionStore(blob Blob) *SuppressionStore {
	return &SuppressionStore{col: NewCollection[[]string](blob, suppressedKey)}
}

// All returns the suppression set.
func (s *SuppressionStore) All(ctx context.Context) (map[string]struct{}, error) {
	ids, err := s.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Suppress adds sourceID to the set. Adding an already-suppressed id is a
// no-op.
func (s *SuppressionStore) Suppress(ctx context.Context, sourceID string) error {
	return s.col.Update(ctx, func(ids []string) ([]string, error) {
		for _, id := range ids {
			if id == sourceID {
				return ids, nil
			}
		}
		return append(ids, sourceID), nil
	})
}
