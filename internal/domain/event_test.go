package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationJSON(t *testing.T) {
	t.Run("text case marshals to a bare string", func(t *testing.T) {
		data, err := json.Marshal(PlainLocation("233 S Wacker Dr, Chicago, IL"))
		require.NoError(t, err)
		assert.Equal(t, `"233 S Wacker Dr, Chicago, IL"`, string(data))
	})

	t.Run("structured case marshals to an object", func(t *testing.T) {
		loc := Location{Structured: &StructuredAddress{Venue: "Daley Plaza", Locality: "Chicago"}}
		data, err := json.Marshal(loc)
		require.NoError(t, err)
		assert.JSONEq(t, `{"venue":"Daley Plaza","locality":"Chicago"}`, string(data))
	})

	t.Run("unmarshals a string", func(t *testing.T) {
		var loc Location
		require.NoError(t, json.Unmarshal([]byte(`"Main St, Springfield"`), &loc))
		assert.Equal(t, "Main St, Springfield", loc.Text)
		assert.Nil(t, loc.Structured)
	})

	t.Run("unmarshals an object", func(t *testing.T) {
		var loc Location
		require.NoError(t, json.Unmarshal([]byte(`{"venue":"City Hall","region":"IL"}`), &loc))
		require.NotNil(t, loc.Structured)
		assert.Equal(t, "City Hall", loc.Structured.Venue)
		assert.Equal(t, "IL", loc.Structured.Region)
		assert.Empty(t, loc.Text)
	})

	t.Run("round trip preserves both cases", func(t *testing.T) {
		for _, loc := range []Location{
			PlainLocation("somewhere"),
			{Structured: &StructuredAddress{Venue: "V", AddressLines: []string{"1 Main St"}, Locality: "Town"}},
		} {
			data, err := json.Marshal(loc)
			require.NoError(t, err)
			var back Location
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, loc, back)
		}
	})
}

func TestLocationRendering(t *testing.T) {
	structured := Location{Structured: &StructuredAddress{
		Venue:        "Daley Plaza",
		AddressLines: []string{"50 W Washington St", ""},
		Locality:     "Chicago",
		Region:       "IL",
		PostalCode:   "60602",
		Country:      "US",
	}}

	t.Run("display form omits postal code and country", func(t *testing.T) {
		assert.Equal(t, "Daley Plaza, 50 W Washington St, Chicago, IL", structured.String())
	})

	t.Run("geocoding form includes postal code and country", func(t *testing.T) {
		assert.Equal(t, "Daley Plaza, 50 W Washington St, Chicago, IL, 60602, US", structured.FullAddress())
	})

	t.Run("text form renders as-is", func(t *testing.T) {
		loc := PlainLocation("corner of 5th and Main")
		assert.Equal(t, "corner of 5th and Main", loc.String())
		assert.Equal(t, "corner of 5th and Main", loc.FullAddress())
	})

	t.Run("zero value", func(t *testing.T) {
		assert.True(t, Location{}.IsZero())
		assert.False(t, PlainLocation("x").IsZero())
		assert.False(t, Location{Structured: &StructuredAddress{}}.IsZero())
	})
}

func TestBoundsContains(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		expected bool
	}{
		{"chicago", 41.88, -87.63, true},
		{"london", 51.51, -0.13, false},
		{"min edge", 24, -125, true},
		{"max edge", 50, -66, true},
		{"below min lat", 23.9, -87, false},
		{"above max lon", 41, -65.9, false},
		{"zero pair", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContinentalUS.Contains(tt.lat, tt.lon))
		})
	}
}

func TestManualEventVisibility(t *testing.T) {
	visible := true
	hidden := false

	assert.True(t, ManualEvent{}.IsVisible())
	assert.True(t, ManualEvent{Visible: &visible}.IsVisible())
	assert.False(t, ManualEvent{Visible: &hidden}.IsVisible())
}

func TestNormalizeManual(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	approved := ManualEvent{Event: Event{
		ID:       "m1",
		Title:    "Neighborhood March",
		Date:     cutoff.Add(24 * time.Hour),
		Source:   SourceManual,
		Approved: true,
	}}

	t.Run("approved future event is included", func(t *testing.T) {
		out := NormalizeManual(approved, cutoff)
		require.True(t, out.Included)
		assert.Equal(t, approved.Event, out.Event)
	})

	t.Run("unapproved event is a non-candidate", func(t *testing.T) {
		ev := approved
		ev.Approved = false
		assert.Equal(t, Outcome{}, NormalizeManual(ev, cutoff))
	})

	t.Run("past event is skipped", func(t *testing.T) {
		ev := approved
		ev.Date = cutoff.Add(-time.Hour)
		out := NormalizeManual(ev, cutoff)
		assert.False(t, out.Included)
		assert.Equal(t, SkipPastCutoff, out.Reason)
	})

	t.Run("zero date is skipped", func(t *testing.T) {
		ev := approved
		ev.Date = time.Time{}
		out := NormalizeManual(ev, cutoff)
		assert.False(t, out.Included)
		assert.Equal(t, SkipPastCutoff, out.Reason)
	})
}

func TestSetClock(t *testing.T) {
	fixedTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	SetClock(clockwork.NewFakeClockAt(fixedTime))
	assert.Equal(t, fixedTime, Now())

	SetClock(nil)
	assert.True(t, time.Since(Now()) < time.Second)
}
