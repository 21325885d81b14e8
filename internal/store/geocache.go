package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/protest-map-etl/internal/domain"
)

// Geocache implements domain.KeyedGeocoder over a persisted id→coordinates
// map. Entries are created on first successful geocode and never evicted;
// failures are not persisted so a transient provider error can be retried
// on the next run. The cache is consulted by key only; if the address text
// under a reused key changes, the stored coordinate is still served.
type Geocache struct {
	col      *Collection[map[string]domain.Coordinates]
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewGeocache creates the per-source geocode cache
// (cache/<source>-geocache.json).
func NewGeocache(blob Blob, source domain.Source, geocoder domain.Geocoder, logger *slog.Logger) *Geocache {
	key := fmt.Sprintf("cache/%s-geocache.json", source)
	return &Geocache{
		col:      NewCollection[map[string]domain.Coordinates](blob, key),
		geocoder: geocoder,
		logger:   logger,
	}
}

// Resolve returns the cached pair for key, or geocodes the address and
// persists the new entry before returning it.
func (g *Geocache) Resolve(ctx context.Context, key, address string) (domain.Coordinates, bool, error) {
	entries, err := g.col.Load(ctx)
	if err != nil {
		// A broken cache degrades to a plain geocoder call.
		g.logger.Warn("geocache load failed", "error", err)
	}
	if coords, ok := entries[key]; ok {
		return coords, true, nil
	}

	if g.geocoder == nil {
		return domain.Coordinates{}, false, nil
	}
	coords, found, err := g.geocoder.Geocode(ctx, address)
	if err != nil || !found {
		return domain.Coordinates{}, false, err
	}

	if err := g.col.Update(ctx, func(m map[string]domain.Coordinates) (map[string]domain.Coordinates, error) {
		if m == nil {
			m = make(map[string]domain.Coordinates)
		}
		m[key] = coords
		return m, nil
	}); err != nil {
		g.logger.Warn("geocache write failed", "key", key, "error", err)
	}
	return coords, true, nil
}
