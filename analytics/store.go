package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultRetention is how long a recorded question is kept.
const DefaultRetention = 30 * 24 * time.Hour

// Event is one qualifying question seen by the chat endpoint.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Category  string    `json:"category"`
	Icon      string    `json:"icon"`
	Timestamp time.Time `json:"timestamp"`
}

// ListFilter narrows a List call. Zero values mean "no restriction".
type ListFilter struct {
	Categories []string
	Since      time.Time
	Limit      int
}

// Store is an append-only log of question events.
type Store interface {
	Record(ctx context.Context, event Event) error
	// List returns matching events, newest first.
	List(ctx context.Context, filter ListFilter) ([]Event, error)
	// Clear removes every event and reports how many were removed.
	Clear(ctx context.Context) (int64, error)
	// PurgeExpired removes events recorded before the cutoff.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

func (f ListFilter) matches(e Event) bool {
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if len(f.Categories) == 0 {
		return true
	}
	for _, c := range f.Categories {
		if c == e.Category {
			return true
		}
	}
	return false
}
