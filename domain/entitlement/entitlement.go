// Package entitlement provides the stateless validation path: user
// context parsed from trust headers, action checks, and usage math.
// All functions are deterministic with no side effects.
package entitlement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/artpar/duetgate/domain/tier"
)

// Action is a billable operation a caller may attempt.
type Action string

const (
	ActionSingleAI      Action = "single-ai"
	ActionDualAI        Action = "dual-ai"
	ActionCreateProject Action = "create-project"
)

// CreditsRequired returns the credit price of an action when no
// completions are available.
// This is a PURE function.
func CreditsRequired(a Action) float64 {
	switch a {
	case ActionDualAI:
		return 2
	case ActionSingleAI:
		return 1
	}
	return 0
}

// Trust header names. An authenticating gateway in front of this
// service sets them; this service never verifies identity itself.
const (
	HeaderUserID          = "x-user-id"
	HeaderUserTier        = "x-user-tier"
	HeaderCredits         = "x-user-credits"
	HeaderCompletions     = "x-user-completions"
	HeaderCompletionsUsed = "x-user-completions-used"
	HeaderProjects        = "x-user-projects"
	HeaderDualAccess      = "x-has-dual-access"
	HeaderV0Key           = "x-v0-api-key"
	HeaderClaudeKey       = "x-claude-api-key"
)

// UserContext is the caller's account state as asserted by the trust
// headers (immutable value type).
type UserContext struct {
	UserID               string
	Tier                 tier.Tier
	CreditsRemaining     float64
	CompletionsRemaining int // derived from tier cap and used count; tier.Unlimited = no cap
	CompletionsUsed      int
	ProjectsCreated      int
	HasDualAccess        bool
	V0APIKey             string
	ClaudeAPIKey         string
}

// FieldError reports one invalid or missing trust header.
type FieldError struct {
	Header string
	Reason string
}

func (e FieldError) Error() string {
	return e.Header + ": " + e.Reason
}

// ParseError aggregates every header that failed to parse, so a caller
// gets the full list in one round trip.
type ParseError struct {
	Fields []FieldError
}

func (e *ParseError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid user context headers: " + strings.Join(msgs, ", ")
}

// ParseUserContext builds a UserContext from a header map. Header names
// are expected lowercased. All failures are collected into a single
// ParseError rather than stopping at the first.
// This is a PURE function.
func ParseUserContext(headers map[string]string) (UserContext, error) {
	var perr ParseError
	fail := func(header, reason string) {
		perr.Fields = append(perr.Fields, FieldError{Header: header, Reason: reason})
	}

	uc := UserContext{
		UserID:       headers[HeaderUserID],
		V0APIKey:     headers[HeaderV0Key],
		ClaudeAPIKey: headers[HeaderClaudeKey],
	}
	if uc.UserID == "" {
		fail(HeaderUserID, "user ID is required")
	}

	uc.Tier = tier.Tier(headers[HeaderUserTier])
	if !uc.Tier.Valid() {
		fail(HeaderUserTier, "must be one of free, pro, byok")
	}

	if v, err := strconv.ParseFloat(headers[HeaderCredits], 64); err != nil {
		fail(HeaderCredits, "must be a number")
	} else {
		uc.CreditsRemaining = v
	}

	// The completions header is asserted by the gateway but the
	// remaining count is always recomputed from the tier cap, so a
	// stale or inflated value cannot widen access.
	if _, err := strconv.Atoi(headers[HeaderCompletions]); err != nil {
		fail(HeaderCompletions, "must be an integer")
	}

	if v, err := strconv.Atoi(headers[HeaderCompletionsUsed]); err != nil {
		fail(HeaderCompletionsUsed, "must be an integer")
	} else {
		uc.CompletionsUsed = v
	}

	if v, err := strconv.Atoi(headers[HeaderProjects]); err != nil {
		fail(HeaderProjects, "must be an integer")
	} else {
		uc.ProjectsCreated = v
	}

	// Absence is an error; any present value other than "true" is false.
	if v, ok := headers[HeaderDualAccess]; !ok {
		fail(HeaderDualAccess, "dual access flag is required")
	} else {
		uc.HasDualAccess = v == "true"
	}

	if len(perr.Fields) > 0 {
		return UserContext{}, &perr
	}

	cfg := tier.MustLookup(uc.Tier)
	uc.CompletionsRemaining = tier.CompletionsRemaining(cfg, uc.CompletionsUsed)
	return uc, nil
}

// DenyReason classifies why an action was refused.
type DenyReason string

const (
	DenyUsageLimit    DenyReason = "usage_limit"    // out of both completions and credits
	DenyFeatureLocked DenyReason = "feature_locked" // dual AI not unlocked
	DenyProjectLimit  DenyReason = "project_limit"  // tier project cap reached
)

// ValidationResult is the outcome of checking an action against a user
// context (value type).
type ValidationResult struct {
	CanProceed      bool
	Reason          DenyReason // empty when CanProceed
	CreditsRequired float64
	Message         string // human-readable denial, empty when CanProceed
}

// hasBudget reports whether the context can pay for an action, by
// completions or by credits.
func hasBudget(uc UserContext, required float64) bool {
	if uc.CompletionsRemaining == tier.Unlimited || uc.CompletionsRemaining > 0 {
		return true
	}
	return uc.CreditsRemaining >= required
}

// ValidateAction checks whether a user context permits an action.
// Checks run in a fixed order: usage budget, then the dual-AI feature
// gate, then the project cap.
// This is a PURE function.
func ValidateAction(uc UserContext, action Action) ValidationResult {
	required := CreditsRequired(action)
	if action == ActionCreateProject {
		// Projects are free; only the cap applies.
		required = 0
	} else if !hasBudget(uc, required) {
		return ValidationResult{
			Reason:          DenyUsageLimit,
			CreditsRequired: required,
			Message: fmt.Sprintf("Usage limit reached. Current tier: %s. "+
				"Upgrade to Pro ($20/month) for 300 completions + $20 credits, "+
				"or purchase credits: $3 (50 completions), $5 (150 completions), "+
				"$7 (300 completions), $10 (500 completions). "+
				"Any purchase unlocks the Dual AI Builder.", uc.Tier),
		}
	}

	if action == ActionDualAI && !uc.HasDualAccess {
		return ValidationResult{
			Reason:          DenyFeatureLocked,
			CreditsRequired: required,
			Message: "Dual AI Builder is a premium feature. Unlock it with any purchase: " +
				"Pro subscription ($20/month, 300 completions + $20 credits) or a credit " +
				"top-up ($3, $5, $7 or $10). Dual AI combines both providers for complete solutions.",
		}
	}

	if action == ActionCreateProject {
		cfg := tier.MustLookup(uc.Tier)
		if cfg.ProjectLimit != tier.Unlimited && uc.ProjectsCreated >= cfg.ProjectLimit {
			return ValidationResult{
				Reason: DenyProjectLimit,
				Message: fmt.Sprintf("Project limit reached (%d/%d). Upgrade to Pro for unlimited projects.",
					uc.ProjectsCreated, cfg.ProjectLimit),
			}
		}
	}

	return ValidationResult{CanProceed: true, CreditsRequired: required}
}

// Usage is the delta an action produces, plus the resulting counters
// (value type). The caller echoes these back so the gateway can update
// its records.
type Usage struct {
	CreditsUsed         float64
	CompletionsUsed     int
	NewCreditsRemaining float64
	NewCompletionsUsed  int
	NewProjectsCreated  int
}

// CalculateUsage computes the cost of an already-validated action.
// Completions are always consumed before credits: a generation with any
// completions left spends exactly one completion and no credits,
// whatever the action's credit price.
// This is a PURE function.
func CalculateUsage(uc UserContext, action Action) Usage {
	u := Usage{
		NewCreditsRemaining: uc.CreditsRemaining,
		NewCompletionsUsed:  uc.CompletionsUsed,
		NewProjectsCreated:  uc.ProjectsCreated,
	}

	if action == ActionCreateProject {
		u.NewProjectsCreated++
		return u
	}

	if uc.CompletionsRemaining == tier.Unlimited || uc.CompletionsRemaining > 0 {
		u.CompletionsUsed = 1
		u.NewCompletionsUsed++
		return u
	}

	u.CreditsUsed = CreditsRequired(action)
	u.NewCreditsRemaining -= u.CreditsUsed
	return u
}

// Keys is the provider key pair selected for a call.
type Keys struct {
	V0APIKey     string
	ClaudeAPIKey string
}

// SelectKeys returns the caller's own provider keys when their tier
// requires them, and empty keys otherwise so the service falls back to
// its server-side keys.
// This is a PURE function.
func SelectKeys(uc UserContext) Keys {
	cfg := tier.MustLookup(uc.Tier)
	if !cfg.RequiresOwnKeys {
		return Keys{}
	}
	return Keys{V0APIKey: uc.V0APIKey, ClaudeAPIKey: uc.ClaudeAPIKey}
}

// Summary renders a one-line usage recap for API responses.
// This is a PURE function.
func Summary(uc UserContext, u Usage) string {
	cfg := tier.MustLookup(uc.Tier)
	remaining := "unlimited"
	if cfg.MonthlyCompletions != tier.Unlimited {
		remaining = strconv.Itoa(cfg.MonthlyCompletions - u.NewCompletionsUsed)
	}
	return fmt.Sprintf("Usage: %d completions used, %s remaining, $%g credits remaining",
		u.NewCompletionsUsed, remaining, u.NewCreditsRemaining)
}
