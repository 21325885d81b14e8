package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	coords Coordinates
	found  bool
	err    error
	calls  int
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (Coordinates, bool, error) {
	f.calls++
	return f.coords, f.found, f.err
}

func TestNormalizeMobilize(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	future := cutoff.Add(48 * time.Hour).Unix()
	past := cutoff.Add(-48 * time.Hour).Unix()

	chicago := &MobilizeLocation{
		Venue:        "Daley Plaza",
		AddressLines: []string{"50 W Washington St"},
		Locality:     "Chicago",
		Region:       "IL",
		PostalCode:   "60602",
		Country:      "US",
		Latitude:     41.884,
		Longitude:    -87.630,
	}

	t.Run("rally with future timeslot is included", func(t *testing.T) {
		raw := MobilizeEvent{
			ID:         1001,
			Title:      "June Day of Action",
			EventType:  "RALLY",
			BrowserURL: "https://www.mobilize.us/event/1001",
			Timeslots:  []MobilizeTimeslot{{StartDate: future}},
			Location:   chicago,
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		require.True(t, out.Included)
		assert.Equal(t, "1001", out.Event.ID)
		assert.Equal(t, SourceMobilize, out.Event.Source)
		assert.Equal(t, time.Unix(future, 0).UTC(), out.Event.Date)
		assert.Equal(t, "Chicago", out.Event.City)
		assert.Equal(t, "https://www.mobilize.us/event/1001", out.Event.URL)
		assert.Equal(t, 41.884, out.Event.Latitude)
		require.NotNil(t, out.Event.Location.Structured)
		assert.Equal(t, "Daley Plaza", out.Event.Location.Structured.Venue)
	})

	t.Run("virtual event is skipped", func(t *testing.T) {
		raw := MobilizeEvent{
			Title:     "Online Rally",
			EventType: "RALLY",
			IsVirtual: true,
			Timeslots: []MobilizeTimeslot{{StartDate: future}},
			Location:  chicago,
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		assert.False(t, out.Included)
		assert.Equal(t, SkipVirtual, out.Reason)
	})

	t.Run("unknown type is blocked", func(t *testing.T) {
		raw := MobilizeEvent{
			Title:     "Fall Fundraiser",
			EventType: "FUNDRAISER",
			Timeslots: []MobilizeTimeslot{{StartDate: future}},
			Location:  chicago,
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		assert.False(t, out.Included)
		assert.Equal(t, SkipBlockedType, out.Reason)
	})

	t.Run("conditional type without keyword is skipped", func(t *testing.T) {
		raw := MobilizeEvent{
			Title:     "Community Potluck",
			EventType: "COMMUNITY_EVENT",
			Timeslots: []MobilizeTimeslot{{StartDate: future}},
			Location:  chicago,
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		assert.False(t, out.Included)
		assert.Equal(t, SkipConditionalType, out.Reason)
	})

	t.Run("conditional type with keyword is included", func(t *testing.T) {
		raw := MobilizeEvent{
			ID:        7,
			Title:     "Potluck and March for Justice",
			EventType: "COMMUNITY_EVENT",
			Timeslots: []MobilizeTimeslot{{StartDate: future}},
			Location:  chicago,
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		assert.True(t, out.Included)
	})

	t.Run("no timeslots", func(t *testing.T) {
		raw := MobilizeEvent{
			Title:     "Ghost Rally",
			EventType: "RALLY",
			Location:  chicago,
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		assert.False(t, out.Included)
		assert.Equal(t, SkipNoTimeslots, out.Reason)
	})

	t.Run("only past timeslots keep the latest past date", func(t *testing.T) {
		raw := MobilizeEvent{
			ID:        8,
			Title:     "Last Month's Rally",
			EventType: "RALLY",
			Timeslots: []MobilizeTimeslot{{StartDate: past - 3600}, {StartDate: past}},
			Location:  chicago,
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		// The normalizer keeps the record; the admission filter rejects it.
		require.True(t, out.Included)
		assert.Equal(t, time.Unix(past, 0).UTC(), out.Event.Date)
		assert.False(t, Admit(out.Event, cutoff, ContinentalUS))
	})

	t.Run("missing coordinates and no address", func(t *testing.T) {
		raw := MobilizeEvent{
			Title:     "Nowhere Rally",
			EventType: "RALLY",
			Timeslots: []MobilizeTimeslot{{StartDate: future}},
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		assert.False(t, out.Included)
		assert.Equal(t, SkipNoUsableAddress, out.Reason)
	})

	t.Run("missing coordinates with nil geocoder", func(t *testing.T) {
		raw := MobilizeEvent{
			Title:     "Address Only Rally",
			EventType: "RALLY",
			Timeslots: []MobilizeTimeslot{{StartDate: future}},
			Location:  &MobilizeLocation{Locality: "Chicago", Region: "IL"},
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		assert.False(t, out.Included)
		assert.Equal(t, SkipFailedGeocode, out.Reason)
	})

	t.Run("missing coordinates resolved by geocoder", func(t *testing.T) {
		geo := &fakeGeocoder{coords: Coordinates{Latitude: 41.9, Longitude: -87.6}, found: true}
		raw := MobilizeEvent{
			ID:        9,
			Title:     "Address Only Rally",
			EventType: "RALLY",
			Timeslots: []MobilizeTimeslot{{StartDate: future}},
			Location:  &MobilizeLocation{Locality: "Chicago", Region: "IL"},
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, geo)

		require.True(t, out.Included)
		assert.Equal(t, 41.9, out.Event.Latitude)
		assert.Equal(t, -87.6, out.Event.Longitude)
		assert.Equal(t, 1, geo.calls)
	})

	t.Run("geocoder miss", func(t *testing.T) {
		geo := &fakeGeocoder{found: false}
		raw := MobilizeEvent{
			Title:     "Unfindable Rally",
			EventType: "RALLY",
			Timeslots: []MobilizeTimeslot{{StartDate: future}},
			Location:  &MobilizeLocation{Locality: "Atlantis"},
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, geo)

		assert.False(t, out.Included)
		assert.Equal(t, SkipFailedGeocode, out.Reason)
	})

	t.Run("out of bounds coordinates", func(t *testing.T) {
		raw := MobilizeEvent{
			Title:     "London Solidarity Rally",
			EventType: "RALLY",
			Timeslots: []MobilizeTimeslot{{StartDate: future}},
			Location: &MobilizeLocation{
				Locality:  "London",
				Latitude:  51.507,
				Longitude: -0.128,
			},
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		assert.False(t, out.Included)
		assert.Equal(t, SkipOutOfBounds, out.Reason)
	})

	t.Run("falls back to url when browser_url is empty", func(t *testing.T) {
		raw := MobilizeEvent{
			ID:        10,
			Title:     "Rally",
			EventType: "RALLY",
			URL:       "https://example.org/e/10",
			Timeslots: []MobilizeTimeslot{{StartDate: future}},
			Location:  chicago,
		}

		out := NormalizeMobilize(ctx, raw, cutoff, ContinentalUS, nil)

		require.True(t, out.Included)
		assert.Equal(t, "https://example.org/e/10", out.Event.URL)
	})
}

func TestSelectTimeslot(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cut := cutoff.Unix()

	tests := []struct {
		name     string
		slots    []MobilizeTimeslot
		expected int64
		ok       bool
	}{
		{"no slots", nil, 0, false},
		{"single future", []MobilizeTimeslot{{StartDate: cut + 100}}, cut + 100, true},
		{"earliest future wins", []MobilizeTimeslot{{StartDate: cut + 500}, {StartDate: cut + 100}}, cut + 100, true},
		{"slot at cutoff is not future", []MobilizeTimeslot{{StartDate: cut}}, cut, true},
		{"all past keeps latest", []MobilizeTimeslot{{StartDate: cut - 500}, {StartDate: cut - 100}}, cut - 100, true},
		{"mixed picks first future", []MobilizeTimeslot{{StartDate: cut - 100}, {StartDate: cut + 200}, {StartDate: cut + 100}}, cut + 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, ok := selectTimeslot(tt.slots, cutoff)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expected, slot.StartDate)
			}
		})
	}
}

func TestMobilizeCoordinates(t *testing.T) {
	t.Run("nested pair preferred", func(t *testing.T) {
		loc := &MobilizeLocation{
			Latitude:  1,
			Longitude: 2,
			Location:  &MobilizeLatLon{Latitude: 41.8, Longitude: -87.6},
		}
		lat, lon := mobilizeCoordinates(loc)
		assert.Equal(t, 41.8, lat)
		assert.Equal(t, -87.6, lon)
	})

	t.Run("zero nested pair falls back to flat", func(t *testing.T) {
		loc := &MobilizeLocation{
			Latitude:  41.8,
			Longitude: -87.6,
			Location:  &MobilizeLatLon{},
		}
		lat, lon := mobilizeCoordinates(loc)
		assert.Equal(t, 41.8, lat)
		assert.Equal(t, -87.6, lon)
	})

	t.Run("nil location", func(t *testing.T) {
		lat, lon := mobilizeCoordinates(nil)
		assert.Zero(t, lat)
		assert.Zero(t, lon)
	})
}

func TestMobilizeAddress(t *testing.T) {
	t.Run("all parts joined", func(t *testing.T) {
		loc := &MobilizeLocation{
			Venue:        "City Hall",
			AddressLines: []string{"121 N LaSalle St", ""},
			Locality:     "Chicago",
			Region:       "IL",
			PostalCode:   "60602",
			Country:      "US",
		}
		assert.Equal(t, "City Hall, 121 N LaSalle St, Chicago, IL, 60602, US", mobilizeAddress(loc))
	})

	t.Run("empty location", func(t *testing.T) {
		assert.Equal(t, "", mobilizeAddress(&MobilizeLocation{}))
		assert.Equal(t, "", mobilizeAddress(nil))
	})
}
