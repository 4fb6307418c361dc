package memory

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/duetgate/domain/usage"
	"github.com/artpar/duetgate/ports"
)

// UsageStore is an in-memory ports.UsageStore.
type UsageStore struct {
	mu     sync.RWMutex
	events []usage.Event
}

// NewUsageStore creates an empty in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{}
}

// RecordBatch appends events.
func (s *UsageStore) RecordBatch(_ context.Context, events []usage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// GetSummary aggregates a user's events within [start, end).
func (s *UsageStore) GetSummary(_ context.Context, userID string, start, end time.Time) (usage.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []usage.Event
	for _, e := range s.events {
		if e.UserID != userID {
			continue
		}
		if e.Timestamp.Before(start) || !e.Timestamp.Before(end) {
			continue
		}
		matched = append(matched, e)
	}
	sum := usage.Aggregate(matched, start, end)
	sum.UserID = userID
	return sum, nil
}

// GetRecent returns a user's most recent events, newest first.
func (s *UsageStore) GetRecent(_ context.Context, userID string, limit int) ([]usage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []usage.Event
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].UserID == userID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

var _ ports.UsageStore = (*UsageStore)(nil)
