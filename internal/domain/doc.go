// Package domain models protest event listings from three sources and the
// rules that decide which of them reach the public map.
//
// # Sources
//
// Mobilize feed:
//
//	JSON events from the Mobilize API, fetched per organization. Each record
//	carries an event_type tag, an is_virtual flag, a list of timeslots
//	(unix-second start dates), and a location that may supply coordinates
//	directly or only as structured address fields.
//
// Blop spreadsheet:
//
//	A published Google Sheets CSV export. One row per candidate event with
//	UUID, Title, Date and Time columns (combined into one timestamp), plus
//	Address/City/State for geocoding and a Links / Image URL pair used as a
//	detail-link fallback chain.
//
// Manual submissions:
//
//	Already-canonical records created through the submission form. They wait
//	in the pending queue (approved=false) until an admin approves them.
//
// # Classification
//
// Feed events are classified by event_type into three tiers: always-include
// (RALLY, VISIBILITY_EVENT), conditional-include (COMMUNITY_EVENT,
// SOLIDARITY_EVENT, OTHER; admitted only when the title matches the protest
// keyword lexicon), and blocked (everything else, including unknown types).
// The keyword match is a case-insensitive word-boundary match against:
// rally, protest, no kings, march, strike, walkout.
//
// # Timeslot selection
//
// The earliest timeslot strictly after the cutoff is chosen. A record with
// only past timeslots falls back to its latest past slot; the admission
// filter, not the normalizer, then rejects the past date.
//
// # Bounds
//
// Coordinates must fall inside the configured bounding box. The default is
// the continental US (lat 24 to 50, lon -125 to -66); this is a product
// constraint, not a validity check, so it is configurable.
package domain
