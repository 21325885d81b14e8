package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeyedGeocoder struct {
	coords Coordinates
	found  bool
	err    error
	keys   []string
}

func (f *fakeKeyedGeocoder) Resolve(_ context.Context, key, _ string) (Coordinates, bool, error) {
	f.keys = append(f.keys, key)
	return f.coords, f.found, f.err
}

func TestNormalizeBlopRow(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	base := BlopRow{
		UUID:    "abc123",
		Title:   "No Kings March",
		Date:    "2025-06-14",
		Time:    "12:00 PM",
		Address: "233 S Wacker Dr",
		City:    "Chicago",
		State:   "IL",
		Links:   "https://example.org/e/1",
	}

	t.Run("complete row is included", func(t *testing.T) {
		geo := &fakeKeyedGeocoder{coords: Coordinates{Latitude: 41.878, Longitude: -87.636}, found: true}

		out := NormalizeBlopRow(ctx, base, cutoff, time.UTC, geo)

		require.True(t, out.Included)
		assert.Equal(t, "abc123", out.Event.ID)
		assert.Equal(t, SourceBlop, out.Event.Source)
		assert.True(t, out.Event.Approved)
		assert.Equal(t, time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC), out.Event.Date)
		assert.Equal(t, "233 S Wacker Dr, Chicago, IL", out.Event.Location.String())
		assert.Equal(t, "Chicago", out.Event.City)
		assert.Equal(t, 41.878, out.Event.Latitude)
		assert.Equal(t, "https://example.org/e/1", out.Event.URL)
		assert.Equal(t, []string{"abc123"}, geo.keys)
	})

	t.Run("canonical uuid used when uuid is empty", func(t *testing.T) {
		geo := &fakeKeyedGeocoder{coords: Coordinates{Latitude: 41, Longitude: -87}, found: true}
		row := base
		row.UUID = ""
		row.CanonicalUUID = "canon-9"

		out := NormalizeBlopRow(ctx, row, cutoff, time.UTC, geo)

		require.True(t, out.Included)
		assert.Equal(t, "canon-9", out.Event.ID)
	})

	t.Run("missing required columns are non-candidates", func(t *testing.T) {
		for _, mutate := range []func(*BlopRow){
			func(r *BlopRow) { r.UUID, r.CanonicalUUID = "", "" },
			func(r *BlopRow) { r.Title = "" },
			func(r *BlopRow) { r.Date = "" },
			func(r *BlopRow) { r.Time = "" },
		} {
			row := base
			mutate(&row)
			out := NormalizeBlopRow(ctx, row, cutoff, time.UTC, nil)
			assert.Equal(t, Outcome{}, out)
		}
	})

	t.Run("unparseable date is a non-candidate", func(t *testing.T) {
		row := base
		row.Date = "next Tuesday"

		out := NormalizeBlopRow(ctx, row, cutoff, time.UTC, nil)

		assert.Equal(t, Outcome{}, out)
	})

	t.Run("past row skipped before geocoding", func(t *testing.T) {
		geo := &fakeKeyedGeocoder{found: true}
		row := base
		row.Date = "2025-05-01"

		out := NormalizeBlopRow(ctx, row, cutoff, time.UTC, geo)

		assert.False(t, out.Included)
		assert.Equal(t, SkipPastCutoff, out.Reason)
		assert.Empty(t, geo.keys)
	})

	t.Run("no usable address", func(t *testing.T) {
		row := base
		row.Address, row.City, row.State = "", "", ""

		out := NormalizeBlopRow(ctx, row, cutoff, time.UTC, &fakeKeyedGeocoder{found: true})

		assert.False(t, out.Included)
		assert.Equal(t, SkipNoUsableAddress, out.Reason)
	})

	t.Run("failed geocode", func(t *testing.T) {
		out := NormalizeBlopRow(ctx, base, cutoff, time.UTC, &fakeKeyedGeocoder{found: false})

		assert.False(t, out.Included)
		assert.Equal(t, SkipFailedGeocode, out.Reason)
	})
}

func TestParseBlopDate(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		clock    string
		expected time.Time
		ok       bool
	}{
		{"iso with 12h time", "2025-06-14", "12:00 PM", time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC), true},
		{"iso with lowercase meridiem", "2025-06-14", "6:30 pm", time.Date(2025, 6, 14, 18, 30, 0, 0, time.UTC), true},
		{"iso with 24h time", "2025-06-14", "18:30", time.Date(2025, 6, 14, 18, 30, 0, 0, time.UTC), true},
		{"us date with 12h time", "6/14/2025", "9:00 AM", time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC), true},
		{"us date with 24h time", "6/14/2025", "09:00", time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC), true},
		{"long form date", "June 14, 2025", "12:00 PM", time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC), true},
		{"padded input", " 2025-06-14 ", " 12:00 PM ", time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC), true},
		{"garbage", "soon", "noonish", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := parseBlopDate(tt.date, tt.clock, time.UTC)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expected, result)
			}
		})
	}

	t.Run("timezone applied", func(t *testing.T) {
		central := time.FixedZone("CDT", -5*3600)
		result, ok := parseBlopDate("2025-06-14", "12:00 PM", central)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC), result.UTC())
	})
}

func TestBlopURL(t *testing.T) {
	tests := []struct {
		name     string
		links    string
		imageURL string
		expected string
	}{
		{"first link", "https://a.org, https://b.org", "https://img.org", "https://a.org"},
		{"single link", "https://a.org", "", "https://a.org"},
		{"empty links fall back to image", "", "https://img.org", "https://img.org"},
		{"bracket literal falls back to image", "[]", "https://img.org", "https://img.org"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, blopURL(BlopRow{Links: tt.links, ImageURL: tt.imageURL}))
		})
	}
}

func TestBlopRowKey(t *testing.T) {
	assert.Equal(t, "u1", BlopRow{UUID: "u1", CanonicalUUID: "c1"}.Key())
	assert.Equal(t, "c1", BlopRow{CanonicalUUID: "c1"}.Key())
	assert.Equal(t, "", BlopRow{}.Key())
}
