package app

import (
	"context"
	"errors"
	"sync"

	"github.com/artpar/duetgate/domain/entitlement"
	"github.com/artpar/duetgate/domain/subscription"
	"github.com/artpar/duetgate/domain/tier"
	"github.com/artpar/duetgate/ports"
	"github.com/rs/zerolog"
)

// AccountService is the stateful subscription manager. Every mutation
// runs under the user's lock: read the record, apply the pure domain
// mutation, write it back.
type AccountService struct {
	store ports.SubscriptionStore
	clock ports.Clock
	log   zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// AccountDeps contains dependencies for AccountService.
type AccountDeps struct {
	Store  ports.SubscriptionStore
	Clock  ports.Clock
	Logger zerolog.Logger
}

// NewAccountService creates an account service.
func NewAccountService(deps AccountDeps) *AccountService {
	return &AccountService{
		store: deps.Store,
		clock: deps.Clock,
		log:   deps.Logger,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *AccountService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Get returns the user's record, lazily creating a free-tier record
// with the free monthly grant on first sight. Idempotent.
func (s *AccountService) Get(ctx context.Context, userID string) (subscription.Record, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return s.getLocked(ctx, userID)
}

func (s *AccountService) getLocked(ctx context.Context, userID string) (subscription.Record, error) {
	r, err := s.store.Get(ctx, userID)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return subscription.Record{}, err
	}

	r = subscription.NewRecord(userID, s.clock.Now())
	if err := s.store.Put(ctx, r); err != nil {
		return subscription.Record{}, err
	}
	s.log.Info().Str("user_id", userID).Msg("created free subscription")
	return r, nil
}

// mutate runs fn on the user's record under their lock and persists
// the result.
func (s *AccountService) mutate(ctx context.Context, userID string, fn func(subscription.Record) (subscription.Record, error)) (subscription.Record, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	r, err := s.getLocked(ctx, userID)
	if err != nil {
		return subscription.Record{}, err
	}

	r, err = fn(r)
	if err != nil {
		return subscription.Record{}, err
	}

	if err := s.store.Put(ctx, r); err != nil {
		return subscription.Record{}, err
	}
	return r, nil
}

// Spend charges the account for an action: dual access is checked for
// dual generations, then completions-first payment applies.
func (s *AccountService) Spend(ctx context.Context, userID string, action entitlement.Action) (subscription.Record, error) {
	return s.mutate(ctx, userID, func(r subscription.Record) (subscription.Record, error) {
		now := s.clock.Now()
		switch action {
		case entitlement.ActionCreateProject:
			return subscription.AddProject(r, now)
		case entitlement.ActionDualAI:
			if !subscription.CanUseDualAI(r) {
				return r, ErrDualLocked
			}
		}
		out, _, err := subscription.Spend(r, entitlement.CreditsRequired(action), now)
		return out, err
	})
}

// ErrDualLocked means the account has not unlocked the dual builder.
var ErrDualLocked = errors.New("dual AI builder not unlocked")

// PurchaseCreditPackage applies a credit package to the account.
func (s *AccountService) PurchaseCreditPackage(ctx context.Context, userID, packageKey string) (subscription.Record, error) {
	r, err := s.mutate(ctx, userID, func(r subscription.Record) (subscription.Record, error) {
		return subscription.Purchase(r, packageKey, s.clock.Now())
	})
	if err == nil {
		s.log.Info().Str("user_id", userID).Str("package", packageKey).Msg("credit package purchased")
	}
	return r, err
}

// Upgrade moves the account to a new tier.
func (s *AccountService) Upgrade(ctx context.Context, userID string, newTier tier.Tier, v0Key, claudeKey string) (subscription.Record, error) {
	r, err := s.mutate(ctx, userID, func(r subscription.Record) (subscription.Record, error) {
		return subscription.Upgrade(r, newTier, v0Key, claudeKey, s.clock.Now())
	})
	if err == nil {
		s.log.Info().Str("user_id", userID).Str("tier", string(newTier)).Msg("subscription upgraded")
	}
	return r, err
}

// ResetMonthly starts a new usage month for the account.
func (s *AccountService) ResetMonthly(ctx context.Context, userID string) (subscription.Record, error) {
	return s.mutate(ctx, userID, func(r subscription.Record) (subscription.Record, error) {
		return subscription.ResetMonthly(r, s.clock.Now()), nil
	})
}

// Status returns the account's usage summary.
func (s *AccountService) Status(ctx context.Context, userID string) (subscription.Status, error) {
	r, err := s.Get(ctx, userID)
	if err != nil {
		return subscription.Status{}, err
	}
	return subscription.Summarize(r), nil
}

// List returns every account record.
func (s *AccountService) List(ctx context.Context) ([]subscription.Record, error) {
	return s.store.List(ctx)
}

// Delete removes an account record.
func (s *AccountService) Delete(ctx context.Context, userID string) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return s.store.Delete(ctx, userID)
}
