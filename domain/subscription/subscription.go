// Package subscription provides the stateful account record and its
// pure mutation functions. Every mutation takes a Record, returns the
// new Record or a typed error, and never writes anywhere; persistence
// is the store adapters' job.
package subscription

import (
	"errors"
	"time"

	"github.com/artpar/duetgate/domain/tier"
)

var (
	// ErrInsufficientCredits means a spend would overdraw the balance.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrNoCompletions means the tier's monthly completion cap is spent.
	ErrNoCompletions = errors.New("no completions remaining")
	// ErrProjectLimit means the tier's project cap is reached.
	ErrProjectLimit = errors.New("project limit reached")
	// ErrMissingKeys means a byok upgrade lacked one or both provider keys.
	ErrMissingKeys = errors.New("byok tier requires both provider API keys")
	// ErrUnknownPackage means the credit package key is not in the catalog.
	ErrUnknownPackage = errors.New("unknown credit package")
	// ErrUnknownTier means the target tier is not in the catalog.
	ErrUnknownTier = errors.New("unknown tier")
)

// Record is one account's subscription state (value type).
type Record struct {
	UserID            string
	Tier              tier.Tier
	CreditsRemaining  float64
	CompletionsUsed   int
	ProjectsCreated   int
	HasDualAI         bool
	V0APIKey          string
	ClaudeAPIKey      string
	SubscriptionStart time.Time // zero until first upgrade
	SubscriptionEnd   time.Time // zero until first upgrade
	LastActivity      time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewRecord builds a fresh free-tier record with the free monthly
// credit grant already applied.
// This is a PURE function.
func NewRecord(userID string, now time.Time) Record {
	free := tier.MustLookup(tier.Free)
	return Record{
		UserID:           userID,
		Tier:             tier.Free,
		CreditsRemaining: free.MonthlyCredits,
		HasDualAI:        free.HasDualAI,
		LastActivity:     now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// CompletionsRemaining returns how many monthly completions the record
// has left under its tier cap.
// This is a PURE function.
func CompletionsRemaining(r Record) int {
	return tier.CompletionsRemaining(tier.MustLookup(r.Tier), r.CompletionsUsed)
}

// CanUseDualAI reports whether the record may run dual generations:
// either the flag was unlocked by a purchase or the tier includes it.
// This is a PURE function.
func CanUseDualAI(r Record) bool {
	return r.HasDualAI || tier.MustLookup(r.Tier).HasDualAI
}

// SpendCredits deducts credits, refusing any overdraft.
// This is a PURE function.
func SpendCredits(r Record, amount float64, now time.Time) (Record, error) {
	if r.CreditsRemaining < amount {
		return r, ErrInsufficientCredits
	}
	r.CreditsRemaining -= amount
	return touched(r, now), nil
}

// SpendCompletion consumes one monthly completion under the tier cap.
// This is a PURE function.
func SpendCompletion(r Record, now time.Time) (Record, error) {
	cfg := tier.MustLookup(r.Tier)
	if cfg.MonthlyCompletions != tier.Unlimited && r.CompletionsUsed >= cfg.MonthlyCompletions {
		return r, ErrNoCompletions
	}
	r.CompletionsUsed++
	return touched(r, now), nil
}

// Spend charges the record for a generation: one completion when any
// remain, otherwise the given credit amount. The returned booleans
// report which currency was used.
// This is a PURE function.
func Spend(r Record, credits float64, now time.Time) (out Record, usedCompletion bool, err error) {
	if out, err = SpendCompletion(r, now); err == nil {
		return out, true, nil
	}
	out, err = SpendCredits(r, credits, now)
	return out, false, err
}

// AddProject bumps the project counter under the tier cap.
// This is a PURE function.
func AddProject(r Record, now time.Time) (Record, error) {
	cfg := tier.MustLookup(r.Tier)
	if cfg.ProjectLimit != tier.Unlimited && r.ProjectsCreated >= cfg.ProjectLimit {
		return r, ErrProjectLimit
	}
	r.ProjectsCreated++
	return touched(r, now), nil
}

// Purchase applies a credit package: credits are added and, whatever
// the package size, the Dual AI flag is set permanently.
// This is a PURE function.
func Purchase(r Record, packageKey string, now time.Time) (Record, error) {
	pkg, ok := tier.FindPackage(packageKey)
	if !ok {
		return r, ErrUnknownPackage
	}
	r.CreditsRemaining += pkg.Credits
	r.HasDualAI = true
	return touched(r, now), nil
}

// Upgrade moves the record to a new tier. Credits are additive (the
// new tier's monthly grant stacks on the current balance), the dual
// flag follows the tier, and the subscription window restarts for 30
// days. A byok upgrade must carry both provider keys.
// This is a PURE function.
func Upgrade(r Record, newTier tier.Tier, v0Key, claudeKey string, now time.Time) (Record, error) {
	cfg, ok := tier.Lookup(newTier)
	if !ok {
		return r, ErrUnknownTier
	}
	if cfg.RequiresOwnKeys && (v0Key == "" || claudeKey == "") {
		return r, ErrMissingKeys
	}

	r.Tier = newTier
	r.CreditsRemaining += cfg.MonthlyCredits
	r.HasDualAI = cfg.HasDualAI
	r.SubscriptionStart = now
	r.SubscriptionEnd = now.Add(30 * 24 * time.Hour)
	if v0Key != "" {
		r.V0APIKey = v0Key
	}
	if claudeKey != "" {
		r.ClaudeAPIKey = claudeKey
	}
	return touched(r, now), nil
}

// ResetMonthly starts a new usage month: completions go back to zero
// and the tier's monthly credits are added to whatever balance is left.
// This is a PURE function.
func ResetMonthly(r Record, now time.Time) Record {
	cfg := tier.MustLookup(r.Tier)
	r.CompletionsUsed = 0
	r.CreditsRemaining += cfg.MonthlyCredits
	return touched(r, now)
}

func touched(r Record, now time.Time) Record {
	r.LastActivity = now
	r.UpdatedAt = now
	return r
}

// Status is a read-only usage summary of a record (value type).
type Status struct {
	UserID               string
	Tier                 tier.Tier
	CreditsRemaining     float64
	MonthlyCredits       float64
	CompletionsUsed      int
	CompletionsLimit     int
	CompletionsRemaining int
	ProjectsCreated      int
	ProjectLimit         int
	HasDualAI            bool
	RequiresOwnKeys      bool
	SubscriptionEnd      time.Time
}

// Summarize builds the usage status surfaced by the status endpoints.
// This is a PURE function.
func Summarize(r Record) Status {
	cfg := tier.MustLookup(r.Tier)
	return Status{
		UserID:               r.UserID,
		Tier:                 r.Tier,
		CreditsRemaining:     r.CreditsRemaining,
		MonthlyCredits:       cfg.MonthlyCredits,
		CompletionsUsed:      r.CompletionsUsed,
		CompletionsLimit:     cfg.MonthlyCompletions,
		CompletionsRemaining: CompletionsRemaining(r),
		ProjectsCreated:      r.ProjectsCreated,
		ProjectLimit:         cfg.ProjectLimit,
		HasDualAI:            CanUseDualAI(r),
		RequiresOwnKeys:      cfg.RequiresOwnKeys,
		SubscriptionEnd:      r.SubscriptionEnd,
	}
}
