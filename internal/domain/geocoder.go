package domain

import "context"

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder resolves a free-text address to coordinates. found is false when
// the provider returns zero results; callers treat a non-nil error the same
// way (a single failed attempt is permanent for that invocation).
type Geocoder interface {
	Geocode(ctx context.Context, address string) (coords Coordinates, found bool, err error)
}

// KeyedGeocoder resolves addresses through a persistent per-key cache: a hit
// returns the stored pair without a provider call, a miss geocodes and
// persists the result on success only.
type KeyedGeocoder interface {
	Resolve(ctx context.Context, key, address string) (coords Coordinates, found bool, err error)
}
