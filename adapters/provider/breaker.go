package provider

import (
	"context"
	"time"

	"github.com/artpar/duetgate/ports"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the per-provider circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32        // allowed through while half-open
	Interval         time.Duration // closed-state count reset period
	Timeout          time.Duration // open-state duration
	FailureThreshold uint32        // consecutive failures before tripping
}

// DefaultBreakerConfig returns the standard breaker tuning.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Breaker wraps a Provider with a circuit breaker so a dead upstream
// fails fast instead of tying up the fan-out.
type Breaker struct {
	inner ports.Provider
	cb    *gobreaker.CircuitBreaker[string]
}

// NewBreaker wraps a provider with circuit breaking.
func NewBreaker(inner ports.Provider, cfg BreakerConfig, log zerolog.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &Breaker{inner: inner, cb: gobreaker.NewCircuitBreaker[string](settings)}
}

// Name identifies the wrapped provider.
func (b *Breaker) Name() string { return b.inner.Name() }

// Generate runs the call through the breaker.
func (b *Breaker) Generate(ctx context.Context, call ports.ProviderCall) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.inner.Generate(ctx, call)
	})
}

var _ ports.Provider = (*Breaker)(nil)
