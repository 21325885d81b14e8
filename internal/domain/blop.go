package domain

import (
	"context"
	"strings"
	"time"
)

// BlopRow is one parsed row of the spreadsheet CSV export.
type BlopRow struct {
	UUID          string
	CanonicalUUID string
	Title         string
	Date          string
	Time          string
	Address       string
	City          string
	State         string
	Links         string
	ImageURL      string
}

// Key returns the row's stable identifier, preferring the UUID column.
func (r BlopRow) Key() string {
	if r.UUID != "" {
		return r.UUID
	}
	return r.CanonicalUUID
}

// blopDateLayouts are tried in order when combining the Date and Time
// columns. The sheet is hand-maintained, so both ISO and US date forms and
// both 12h and 24h times appear.
var blopDateLayouts = []string{
	"2006-01-02 3:04 PM",
	"2006-01-02 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04",
	"January 2, 2006 3:04 PM",
}

// NormalizeBlopRow converts one CSV row into a canonical event or a skip.
// Rows missing any required column (identifier, title, date, time) or with
// an unparseable timestamp are discarded as non-candidates: spreadsheet
// export noise, not events. The cutoff check runs before geocoding so past
// rows never cost a provider call.
func NormalizeBlopRow(ctx context.Context, row BlopRow, cutoff time.Time, loc *time.Location, geocoder KeyedGeocoder) Outcome {
	key := row.Key()
	if key == "" || row.Title == "" || row.Date == "" || row.Time == "" {
		return Outcome{}
	}

	date, ok := parseBlopDate(row.Date, row.Time, loc)
	if !ok {
		return Outcome{}
	}
	if date.Before(cutoff) {
		return skipped(SkipPastCutoff)
	}

	location := joinNonEmpty([]string{row.Address, row.City, row.State})
	if location == "" {
		return skipped(SkipNoUsableAddress)
	}

	coords, found, err := geocoder.Resolve(ctx, key, location)
	if err != nil || !found {
		return skipped(SkipFailedGeocode)
	}

	return included(Event{
		ID:        key,
		Title:     row.Title,
		Date:      date.UTC(),
		Location:  PlainLocation(location),
		City:      row.City,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		URL:       blopURL(row),
		Source:    SourceBlop,
		Approved:  true,
	})
}

func parseBlopDate(date, clock string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	combined := strings.TrimSpace(date) + " " + strings.ToUpper(strings.TrimSpace(clock))
	for _, layout := range blopDateLayouts {
		if t, err := time.ParseInLocation(layout, combined, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// blopURL selects the detail link: first entry of the Links column, falling
// back to the Image URL column, then empty. The sheet sometimes exports a
// literal "[]" for no links.
func blopURL(row BlopRow) string {
	link := strings.TrimSpace(strings.SplitN(row.Links, ",", 2)[0])
	if link == "" || link == "[]" {
		link = strings.TrimSpace(row.ImageURL)
	}
	return link
}
