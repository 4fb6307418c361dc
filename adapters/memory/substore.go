// Package memory provides in-memory store implementations.
// Used for tests and single-process deployments; a shared cache or
// database replaces these in multi-node setups.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/duetgate/domain/subscription"
	"github.com/artpar/duetgate/ports"
)

// SubscriptionStore is an in-memory ports.SubscriptionStore.
type SubscriptionStore struct {
	mu      sync.RWMutex
	records map[string]subscription.Record
}

// NewSubscriptionStore creates an empty in-memory subscription store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{records: make(map[string]subscription.Record)}
}

// Get retrieves a record by user ID.
func (s *SubscriptionStore) Get(_ context.Context, userID string) (subscription.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[userID]
	if !ok {
		return subscription.Record{}, ports.ErrNotFound
	}
	return r, nil
}

// Put creates or replaces a record.
func (s *SubscriptionStore) Put(_ context.Context, r subscription.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.UserID] = r
	return nil
}

// List returns all records sorted by user ID.
func (s *SubscriptionStore) List(_ context.Context) ([]subscription.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]subscription.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Delete removes a record. Deleting an absent record is not an error.
func (s *SubscriptionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}

var _ ports.SubscriptionStore = (*SubscriptionStore)(nil)
