package domain

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// MobilizeTimeslot is one scheduled occurrence, unix seconds.
type MobilizeTimeslot struct {
	StartDate int64 `json:"start_date"`
	EndDate   int64 `json:"end_date,omitempty"`
}

// MobilizeLatLon is the nested coordinate pair some feed records carry.
type MobilizeLatLon struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MobilizeLocation is the feed's location object. Coordinates may appear
// nested under location.location or flat on the location itself.
type MobilizeLocation struct {
	Venue        string          `json:"venue"`
	AddressLines []string        `json:"address_lines"`
	Locality     string          `json:"locality"`
	Region       string          `json:"region"`
	PostalCode   string          `json:"postal_code"`
	Country      string          `json:"country"`
	Latitude     float64         `json:"latitude,omitempty"`
	Longitude    float64         `json:"longitude,omitempty"`
	Location     *MobilizeLatLon `json:"location,omitempty"`
}

// MobilizeEvent is a raw feed record.
type MobilizeEvent struct {
	ID         int64              `json:"id"`
	Title      string             `json:"title"`
	EventType  string             `json:"event_type"`
	IsVirtual  bool               `json:"is_virtual"`
	BrowserURL string             `json:"browser_url"`
	URL        string             `json:"url,omitempty"`
	Timeslots  []MobilizeTimeslot `json:"timeslots"`
	Location   *MobilizeLocation  `json:"location"`
}

var (
	alwaysIncludeTypes = map[string]bool{
		"RALLY":            true,
		"VISIBILITY_EVENT": true,
	}

	conditionalIncludeTypes = map[string]bool{
		"COMMUNITY_EVENT":  true,
		"SOLIDARITY_EVENT": true,
		"OTHER":            true,
	}

	// protestWordRe matches the keyword lexicon on word boundaries,
	// case-insensitively, e.g. "Spring Rally" but not "rallycross".
	protestWordRe = regexp.MustCompile(`(?i)\b(rally|protest|no kings|march|strike|walkout)\b`)
)

// NormalizeMobilize converts one raw feed record into a canonical event or a
// skip. The geocoder is only consulted when the record supplies no usable
// coordinates of its own.
func NormalizeMobilize(ctx context.Context, raw MobilizeEvent, cutoff time.Time, bounds Bounds, geocoder Geocoder) Outcome {
	if raw.IsVirtual {
		return skipped(SkipVirtual)
	}

	switch {
	case alwaysIncludeTypes[raw.EventType]:
	case conditionalIncludeTypes[raw.EventType]:
		if !protestWordRe.MatchString(raw.Title) {
			return skipped(SkipConditionalType)
		}
	default:
		// Unknown types are treated as blocked.
		return skipped(SkipBlockedType)
	}

	slot, ok := selectTimeslot(raw.Timeslots, cutoff)
	if !ok {
		return skipped(SkipNoTimeslots)
	}

	lat, lon := mobilizeCoordinates(raw.Location)
	if lat == 0 || lon == 0 {
		addr := mobilizeAddress(raw.Location)
		if addr == "" {
			return skipped(SkipNoUsableAddress)
		}
		if geocoder == nil {
			return skipped(SkipFailedGeocode)
		}
		coords, found, err := geocoder.Geocode(ctx, addr)
		if err != nil || !found {
			return skipped(SkipFailedGeocode)
		}
		lat, lon = coords.Latitude, coords.Longitude
	}

	if !bounds.Contains(lat, lon) {
		return skipped(SkipOutOfBounds)
	}

	url := raw.BrowserURL
	if url == "" {
		url = raw.URL
	}

	ev := Event{
		ID:        strconv.FormatInt(raw.ID, 10),
		Title:     raw.Title,
		Date:      time.Unix(slot.StartDate, 0).UTC(),
		Latitude:  lat,
		Longitude: lon,
		URL:       url,
		Source:    SourceMobilize,
	}
	if raw.Location != nil {
		ev.City = raw.Location.Locality
		ev.Location = Location{Structured: &StructuredAddress{
			Venue:        raw.Location.Venue,
			AddressLines: raw.Location.AddressLines,
			Locality:     raw.Location.Locality,
			Region:       raw.Location.Region,
			PostalCode:   raw.Location.PostalCode,
			Country:      raw.Location.Country,
		}}
	}
	return included(ev)
}

// selectTimeslot picks the earliest occurrence strictly after the cutoff.
// With no future occurrence it falls back to the latest past one, which the
// admission filter then rejects; a record with only past slots is skipped
// two stages later, not here.
func selectTimeslot(slots []MobilizeTimeslot, cutoff time.Time) (MobilizeTimeslot, bool) {
	if len(slots) == 0 {
		return MobilizeTimeslot{}, false
	}

	sorted := make([]MobilizeTimeslot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartDate < sorted[j].StartDate })

	cut := cutoff.Unix()
	for _, s := range sorted {
		if s.StartDate > cut {
			return s, true
		}
	}
	return sorted[len(sorted)-1], true
}

// mobilizeCoordinates prefers the nested location.location pair, then the
// flat fields. Zero values count as missing, matching upstream data where
// absent coordinates are encoded as 0.
func mobilizeCoordinates(loc *MobilizeLocation) (float64, float64) {
	if loc == nil {
		return 0, 0
	}
	if loc.Location != nil && loc.Location.Latitude != 0 && loc.Location.Longitude != 0 {
		return loc.Location.Latitude, loc.Location.Longitude
	}
	return loc.Latitude, loc.Longitude
}

// mobilizeAddress assembles the geocoding query: venue, address lines,
// locality, region, postal code, country, empty parts omitted.
func mobilizeAddress(loc *MobilizeLocation) string {
	if loc == nil {
		return ""
	}
	parts := make([]string, 0, 6+len(loc.AddressLines))
	parts = append(parts, loc.Venue)
	parts = append(parts, loc.AddressLines...)
	parts = append(parts, loc.Locality, loc.Region, loc.PostalCode, loc.Country)
	return joinNonEmpty(parts)
}
