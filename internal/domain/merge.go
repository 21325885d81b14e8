package domain

import (
	"sort"
	"time"
)

// Override is an admin-supplied partial field correction applied to a
// non-manual source event at serve time. Nil fields are untouched; set
// fields win over the normalizer's output.
type Override struct {
	Title     *string    `json:"title,omitempty"`
	Location  *Location  `json:"location,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	City      *string    `json:"city,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	URL       *string    `json:"url,omitempty"`
}

// Apply shallow-merges the override onto an event.
func (o Override) Apply(e Event) Event {
	if o.Title != nil {
		e.Title = *o.Title
	}
	if o.Location != nil {
		e.Location = *o.Location
	}
	if o.Date != nil {
		e.Date = *o.Date
	}
	if o.City != nil {
		e.City = *o.City
	}
	if o.Latitude != nil {
		e.Latitude = *o.Latitude
	}
	if o.Longitude != nil {
		e.Longitude = *o.Longitude
	}
	if o.URL != nil {
		e.URL = *o.URL
	}
	return e
}

// Merge folds another override into this one, last write winning per field.
func (o *Override) Merge(next Override) {
	if next.Title != nil {
		o.Title = next.Title
	}
	if next.Location != nil {
		o.Location = next.Location
	}
	if next.Date != nil {
		o.Date = next.Date
	}
	if next.City != nil {
		o.City = next.City
	}
	if next.Latitude != nil {
		o.Latitude = next.Latitude
	}
	if next.Longitude != nil {
		o.Longitude = next.Longitude
	}
	if next.URL != nil {
		o.URL = next.URL
	}
}

// Moderate applies suppression and overrides to a list of non-manual
// events, keyed by the source-assigned identifier. Suppressed events are
// dropped unconditionally, regardless of override contents.
func Moderate(events []Event, overrides map[string]Override, suppressed map[string]struct{}) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if _, gone := suppressed[e.ID]; gone && e.ID != "" {
			continue
		}
		if o, ok := overrides[e.ID]; ok && e.ID != "" {
			e = o.Apply(e)
		}
		out = append(out, e)
	}
	return out
}

// Merge concatenates per-source lists into one sequence sorted ascending by
// date. Tie order between equal dates is unspecified.
func Merge(lists ...[]Event) []Event {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	merged := make([]Event, 0, n)
	for _, l := range lists {
		merged = append(merged, l...)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}
