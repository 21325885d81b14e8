package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Source identifies the feed an event originated from. Immutable after creation.
type Source string

const (
	SourceMobilize Source = "mobilize"
	SourceBlop     Source = "blop"
	SourceManual   Source = "manual"
)

// SkipReason is the fixed vocabulary of per-record exclusion reasons.
type SkipReason string

const (
	SkipVirtual         SkipReason = "virtual"
	SkipBlockedType     SkipReason = "blocked-type"
	SkipConditionalType SkipReason = "conditional-type-without-keyword"
	SkipNoTimeslots     SkipReason = "no-timeslots"
	SkipNoUsableAddress SkipReason = "no-usable-address"
	SkipFailedGeocode   SkipReason = "failed-geocode"
	SkipOutOfBounds     SkipReason = "out-of-bounds"
	SkipPastCutoff      SkipReason = "past-cutoff"
)

// Outcome is the result of normalizing one raw record: either an included
// canonical event, a skip with a reason, or a discarded non-candidate row
// (the zero value: blank or structurally unusable input that never counted
// as an event).
type Outcome struct {
	Event    Event
	Included bool
	Reason   SkipReason
}

func included(e Event) Outcome     { return Outcome{Event: e, Included: true} }
func skipped(r SkipReason) Outcome { return Outcome{Reason: r} }

// StructuredAddress is the structured form of an event location.
type StructuredAddress struct {
	Venue        string   `json:"venue,omitempty"`
	AddressLines []string `json:"address_lines,omitempty"`
	Locality     string   `json:"locality,omitempty"`
	Region       string   `json:"region,omitempty"`
	PostalCode   string   `json:"postal_code,omitempty"`
	Country      string   `json:"country,omitempty"`
}

// Location is a two-case variant: free text (spreadsheet and manual sources)
// or a structured address (feed source). Its JSON form is a plain string for
// the text case, preserving compatibility with records written by earlier
// versions of the service.
type Location struct {
	Text       string
	Structured *StructuredAddress
}

// PlainLocation wraps free text in a Location.
func PlainLocation(s string) Location { return Location{Text: s} }

// IsZero reports whether neither case is set.
func (l Location) IsZero() bool { return l.Text == "" && l.Structured == nil }

// String renders the display form: the text as-is, or venue, address lines,
// locality and region comma-joined with empty parts omitted. Postal code and
// country are deliberately left out of the display form.
func (l Location) String() string {
	if l.Structured == nil {
		return l.Text
	}
	s := l.Structured
	parts := make([]string, 0, 4+len(s.AddressLines))
	parts = append(parts, s.Venue)
	parts = append(parts, s.AddressLines...)
	parts = append(parts, s.Locality, s.Region)
	return joinNonEmpty(parts)
}

// FullAddress renders the geocoding form, which also includes postal code
// and country.
func (l Location) FullAddress() string {
	if l.Structured == nil {
		return l.Text
	}
	s := l.Structured
	parts := make([]string, 0, 6+len(s.AddressLines))
	parts = append(parts, s.Venue)
	parts = append(parts, s.AddressLines...)
	parts = append(parts, s.Locality, s.Region, s.PostalCode, s.Country)
	return joinNonEmpty(parts)
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// MarshalJSON emits the text case as a bare JSON string and the structured
// case as an object.
func (l Location) MarshalJSON() ([]byte, error) {
	if l.Structured != nil {
		return json.Marshal(l.Structured)
	}
	return json.Marshal(l.Text)
}

// UnmarshalJSON accepts either form.
func (l *Location) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		l.Structured = nil
		return json.Unmarshal(data, &l.Text)
	}
	var s StructuredAddress
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	l.Text = ""
	l.Structured = &s
	return nil
}

// Bounds is a latitude/longitude rectangle used to reject out-of-region
// coordinates.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the coordinate pair lies inside the box
// (edges included).
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// ContinentalUS is the default bounding box.
var ContinentalUS = Bounds{MinLat: 24, MaxLat: 50, MinLon: -125, MaxLon: -66}

// Event is the canonical record served to clients. Every event reaching the
// client has resolved in-bounds coordinates and a date at or after the cutoff.
type Event struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Location  Location  `json:"location"`
	City      string    `json:"city,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	URL       string    `json:"url,omitempty"`
	Source    Source    `json:"source"`
	Approved  bool      `json:"approved,omitempty"`
}

// ManualEvent is a user-submitted event with moderation metadata.
// Visible is a pointer so records written before the field existed read as
// visible; approved and visible are independent flags checked at different
// stages and must not be unified.
type ManualEvent struct {
	Event

	AddedAt time.Time `json:"addedAt"`
	AddedBy string    `json:"addedBy,omitempty"`
	Visible *bool     `json:"visible,omitempty"`
}

// IsVisible treats an absent visible flag as true.
func (m ManualEvent) IsVisible() bool { return m.Visible == nil || *m.Visible }

// NormalizeManual gates an already-canonical manual event on approval and
// the cutoff. Unapproved events are not candidates (they are pending, not
// skipped).
func NormalizeManual(ev ManualEvent, cutoff time.Time) Outcome {
	if !ev.Approved {
		return Outcome{}
	}
	if ev.Date.IsZero() || ev.Date.Before(cutoff) {
		return skipped(SkipPastCutoff)
	}
	return included(ev.Event)
}
