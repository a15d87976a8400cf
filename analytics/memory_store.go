package analytics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps events in process memory. It is the default backend when
// no persistent store is configured and loses everything on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]Event, error) {
	s.mu.RLock()
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.events))
	s.events = nil
	return n, nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	for _, e := range s.events {
		if !e.Timestamp.Before(before) {
			kept = append(kept, e)
		}
	}
	removed := int64(len(s.events) - len(kept))
	s.events = kept
	return removed, nil
}

func (s *MemoryStore) Close() error { return nil }
