package domain

import "time"

// Admit applies the uniform post-normalization gate: the event date must be
// at or after the cutoff (ties admitted) and the coordinates inside the
// bounds. A zero date, the unmarshaled form of a missing or malformed
// timestamp, fails closed.
func Admit(e Event, cutoff time.Time, bounds Bounds) bool {
	if e.Date.IsZero() {
		return false
	}
	if e.Date.Before(cutoff) {
		return false
	}
	return bounds.Contains(e.Latitude, e.Longitude)
}

// AdmitAll filters a list through Admit, preserving order.
func AdmitAll(events []Event, cutoff time.Time, bounds Bounds) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if Admit(e, cutoff, bounds) {
			out = append(out, e)
		}
	}
	return out
}
