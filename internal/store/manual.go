package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/protest-map-etl/internal/domain"
)

const manualKey = "processed/manual-protests.json"

// ManualStore holds user-submitted events and their approval workflow:
// pending (approved=false) → approved, or removed by deletion.
type ManualStore struct {
	col *Collection[[]domain.ManualEvent]
}

// NewManualStore creates the manual event repository.
func NewManualStore(blob Blob) *ManualStore {
	return &ManualStore{col: NewCollection[[]domain.ManualEvent](blob, manualKey)}
}

// Submission is a public add-event request.
type Submission struct {
	Title     string          `json:"title"`
	Date      time.Time       `json:"date"`
	Location  domain.Location `json:"location"`
	City      string          `json:"city,omitempty"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	URL       string          `json:"url,omitempty"`
}

// Update is an admin save/approve request. A nil Approved approves the
// event; approving an already-approved event is a no-op.
type Update struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Location  domain.Location `json:"location"`
	Date      time.Time       `json:"date"`
	Latitude  float64         `json:"latitude,omitempty"`
	Longitude float64         `json:"longitude,omitempty"`
	Approved  *bool           `json:"approved,omitempty"`
}

// List returns every stored manual event.
func (s *ManualStore) List(ctx context.Context) ([]domain.ManualEvent, error) {
	return s.col.Load(ctx)
}

// Pending returns events awaiting approval.
func (s *ManualStore) Pending(ctx context.Context) ([]domain.ManualEvent, error) {
	events, err := s.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]domain.ManualEvent, 0)
	for _, e := range events {
		if !e.Approved {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// Submit appends a new pending event with a server-assigned id and
// submission metadata. Submissions are never auto-approved.
func (s *ManualStore) Submit(ctx context.Context, sub Submission, addedBy string) (domain.ManualEvent, error) {
	visible := true
	ev := domain.ManualEvent{
		Event: domain.Event{
			ID:        uuid.NewString(),
			Title:     sub.Title,
			Date:      sub.Date,
			Location:  sub.Location,
			City:      sub.City,
			Latitude:  sub.Latitude,
			Longitude: sub.Longitude,
			URL:       sub.URL,
			Source:    domain.SourceManual,
			Approved:  false,
		},
		AddedAt: domain.Now(),
		AddedBy: addedBy,
		Visible: &visible,
	}

	err := s.col.Update(ctx, func(events []domain.ManualEvent) ([]domain.ManualEvent, error) {
		return append(events, ev), nil
	})
	if err != nil {
		return domain.ManualEvent{}, err
	}
	return ev, nil
}

// Save writes admin field edits and the approval flag atomically. Returns
// ErrEventNotFound when no stored event matches the id.
func (s *ManualStore) Save(ctx context.Context, upd Update) error {
	return s.col.Update(ctx, func(events []domain.ManualEvent) ([]domain.ManualEvent, error) {
		for i := range events {
			if events[i].ID != upd.ID {
				continue
			}
			events[i].Title = upd.Title
			events[i].Location = upd.Location
			events[i].Date = upd.Date
			if upd.Latitude != 0 || upd.Longitude != 0 {
				events[i].Latitude = upd.Latitude
				events[i].Longitude = upd.Longitude
			}
			if upd.Approved != nil {
				events[i].Approved = *upd.Approved
			} else {
				events[i].Approved = true
			}
			return events, nil
		}
		return nil, ErrEventNotFound
	})
}

// Delete removes the event by id. Returns ErrEventNotFound when no stored
// event matches; the collection is left unchanged.
func (s *ManualStore) Delete(ctx context.Context, id string) error {
	return s.col.Update(ctx, func(events []domain.ManualEvent) ([]domain.ManualEvent, error) {
		for i := range events {
			if events[i].ID == id {
				return append(events[:i], events[i+1:]...), nil
			}
		}
		return nil, ErrEventNotFound
	})
}
