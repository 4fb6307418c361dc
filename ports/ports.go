// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/duetgate/domain/subscription"
	"github.com/artpar/duetgate/domain/usage"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// SubscriptionStore persists account subscription records.
type SubscriptionStore interface {
	// Get retrieves a record by user ID. Returns ErrNotFound when absent.
	Get(ctx context.Context, userID string) (subscription.Record, error)

	// Put creates or replaces a record.
	Put(ctx context.Context, r subscription.Record) error

	// List returns all records, for admin listings.
	List(ctx context.Context) ([]subscription.Record, error)

	// Delete removes a record.
	Delete(ctx context.Context, userID string) error
}

// UsageStore persists generation events and summaries.
type UsageStore interface {
	// RecordBatch stores multiple usage events.
	RecordBatch(ctx context.Context, events []usage.Event) error

	// GetSummary returns aggregated usage for a period.
	GetSummary(ctx context.Context, userID string, start, end time.Time) (usage.Summary, error)

	// GetRecent returns the most recent events for a user.
	GetRecent(ctx context.Context, userID string, limit int) ([]usage.Event, error)
}

// -----------------------------------------------------------------------------
// Service Ports
// -----------------------------------------------------------------------------

// ProviderCall is one generation request to an upstream AI provider.
type ProviderCall struct {
	Prompt string
	System string
	Model  string
	APIKey string // overrides the server key when set (BYOK)
}

// Provider calls one upstream AI generation service.
type Provider interface {
	// Name identifies the provider ("v0" or "gateway").
	Name() string

	// Generate runs one completion and returns the generated text.
	Generate(ctx context.Context, call ProviderCall) (string, error)
}

// UsageRecorder batches generation events for asynchronous persistence.
type UsageRecorder interface {
	// Record queues a usage event for processing.
	// This should be non-blocking.
	Record(event usage.Event)

	// Flush forces immediate processing of queued events.
	Flush(ctx context.Context) error

	// Close stops the recorder and flushes remaining events.
	Close() error
}

// MetricsCollector records operational metrics.
type MetricsCollector interface {
	// RecordRequest records an HTTP request outcome.
	RecordRequest(route string, status int, duration time.Duration)

	// RecordGeneration records a generation call outcome per provider.
	RecordGeneration(provider string, success bool, duration time.Duration)

	// RecordSpend records what a generation consumed.
	RecordSpend(credits float64, completions int)
}
