package subscription_test

import (
	"errors"
	"testing"
	"time"

	"github.com/artpar/duetgate/domain/subscription"
	"github.com/artpar/duetgate/domain/tier"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestNewRecord(t *testing.T) {
	r := subscription.NewRecord("u1", now)
	if r.Tier != tier.Free {
		t.Errorf("Tier = %s, want free", r.Tier)
	}
	if r.CreditsRemaining != 5 {
		t.Errorf("CreditsRemaining = %v, want the free monthly grant", r.CreditsRemaining)
	}
	if r.HasDualAI {
		t.Error("fresh free record must not have dual access")
	}
	if !r.SubscriptionStart.IsZero() {
		t.Error("SubscriptionStart should stay zero until an upgrade")
	}
}

func TestSpendCredits(t *testing.T) {
	r := subscription.NewRecord("u1", now)

	r2, err := subscription.SpendCredits(r, 2, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.CreditsRemaining != 3 {
		t.Errorf("CreditsRemaining = %v, want 3", r2.CreditsRemaining)
	}

	// No overdraft, and a refused spend leaves the record untouched.
	r3, err := subscription.SpendCredits(r2, 4, now)
	if !errors.Is(err, subscription.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	if r3.CreditsRemaining != 3 {
		t.Errorf("failed spend mutated the record: %v", r3.CreditsRemaining)
	}
}

func TestSpendCompletion(t *testing.T) {
	r := subscription.NewRecord("u1", now)

	// Free tier has a zero completion cap.
	if _, err := subscription.SpendCompletion(r, now); !errors.Is(err, subscription.ErrNoCompletions) {
		t.Fatalf("err = %v, want ErrNoCompletions", err)
	}

	r.Tier = tier.Pro
	r.CompletionsUsed = 299
	r2, err := subscription.SpendCompletion(r, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.CompletionsUsed != 300 {
		t.Errorf("CompletionsUsed = %d, want 300", r2.CompletionsUsed)
	}

	if _, err := subscription.SpendCompletion(r2, now); !errors.Is(err, subscription.ErrNoCompletions) {
		t.Fatalf("err at cap = %v, want ErrNoCompletions", err)
	}
}

func TestSpend_CompletionsFirst(t *testing.T) {
	r := subscription.NewRecord("u1", now)
	r.Tier = tier.Pro
	r.CreditsRemaining = 20

	r2, usedCompletion, err := subscription.Spend(r, 2, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !usedCompletion {
		t.Error("should spend a completion while any remain")
	}
	if r2.CreditsRemaining != 20 || r2.CompletionsUsed != 1 {
		t.Errorf("record after spend: %+v", r2)
	}
}

func TestSpend_FallsBackToCredits(t *testing.T) {
	r := subscription.NewRecord("u1", now) // free: zero completions, 5 credits

	r2, usedCompletion, err := subscription.Spend(r, 2, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usedCompletion {
		t.Error("free tier has no completions to spend")
	}
	if r2.CreditsRemaining != 3 {
		t.Errorf("CreditsRemaining = %v, want 3", r2.CreditsRemaining)
	}

	r2.CreditsRemaining = 1
	if _, _, err := subscription.Spend(r2, 2, now); !errors.Is(err, subscription.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
}

func TestAddProject(t *testing.T) {
	r := subscription.NewRecord("u1", now)
	r.ProjectsCreated = 199

	r2, err := subscription.AddProject(r, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.ProjectsCreated != 200 {
		t.Errorf("ProjectsCreated = %d", r2.ProjectsCreated)
	}

	if _, err := subscription.AddProject(r2, now); !errors.Is(err, subscription.ErrProjectLimit) {
		t.Fatalf("err = %v, want ErrProjectLimit", err)
	}

	// Paid tiers have no cap.
	r2.Tier = tier.Pro
	if _, err := subscription.AddProject(r2, now); err != nil {
		t.Fatalf("pro project add: %v", err)
	}
}

func TestPurchase_UnlocksDualAI(t *testing.T) {
	r := subscription.NewRecord("u1", now)

	// Even the smallest package flips the dual flag for good.
	r2, err := subscription.Purchase(r, "small", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r2.HasDualAI {
		t.Error("any purchase must unlock dual AI")
	}
	if r2.CreditsRemaining != 8 {
		t.Errorf("CreditsRemaining = %v, want 5+3", r2.CreditsRemaining)
	}
	if r2.Tier != tier.Free {
		t.Error("purchase must not change the tier")
	}
}

func TestPurchase_UnknownPackage(t *testing.T) {
	r := subscription.NewRecord("u1", now)
	if _, err := subscription.Purchase(r, "mega", now); !errors.Is(err, subscription.ErrUnknownPackage) {
		t.Fatalf("err = %v, want ErrUnknownPackage", err)
	}
}

func TestUpgrade(t *testing.T) {
	r := subscription.NewRecord("u1", now)
	r.CreditsRemaining = 2.5

	r2, err := subscription.Upgrade(r, tier.Pro, "", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.Tier != tier.Pro {
		t.Errorf("Tier = %s", r2.Tier)
	}
	// Monthly grant stacks on the remaining balance.
	if r2.CreditsRemaining != 22.5 {
		t.Errorf("CreditsRemaining = %v, want 22.5", r2.CreditsRemaining)
	}
	if !r2.HasDualAI {
		t.Error("pro upgrade should grant dual AI")
	}
	if got := r2.SubscriptionEnd.Sub(r2.SubscriptionStart); got != 30*24*time.Hour {
		t.Errorf("subscription window = %v, want 30 days", got)
	}
}

func TestUpgrade_BYOKRequiresKeys(t *testing.T) {
	r := subscription.NewRecord("u1", now)

	if _, err := subscription.Upgrade(r, tier.BYOK, "v0-key", "", now); !errors.Is(err, subscription.ErrMissingKeys) {
		t.Fatalf("err = %v, want ErrMissingKeys", err)
	}
	if _, err := subscription.Upgrade(r, tier.BYOK, "", "claude-key", now); !errors.Is(err, subscription.ErrMissingKeys) {
		t.Fatalf("err = %v, want ErrMissingKeys", err)
	}

	r2, err := subscription.Upgrade(r, tier.BYOK, "v0-key", "claude-key", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.V0APIKey != "v0-key" || r2.ClaudeAPIKey != "claude-key" {
		t.Errorf("keys not stored: %+v", r2)
	}
}

func TestUpgrade_UnknownTier(t *testing.T) {
	r := subscription.NewRecord("u1", now)
	if _, err := subscription.Upgrade(r, "platinum", "", "", now); !errors.Is(err, subscription.ErrUnknownTier) {
		t.Fatalf("err = %v, want ErrUnknownTier", err)
	}
}

func TestResetMonthly(t *testing.T) {
	r := subscription.NewRecord("u1", now)
	r.Tier = tier.Pro
	r.CompletionsUsed = 250
	r.CreditsRemaining = 3.5

	r2 := subscription.ResetMonthly(r, now)
	if r2.CompletionsUsed != 0 {
		t.Errorf("CompletionsUsed = %d, want 0", r2.CompletionsUsed)
	}
	// Leftover credits accumulate.
	if r2.CreditsRemaining != 23.5 {
		t.Errorf("CreditsRemaining = %v, want 23.5", r2.CreditsRemaining)
	}
}

func TestCanUseDualAI(t *testing.T) {
	r := subscription.NewRecord("u1", now)
	if subscription.CanUseDualAI(r) {
		t.Error("fresh free record should not have dual access")
	}

	r.HasDualAI = true
	if !subscription.CanUseDualAI(r) {
		t.Error("purchased flag should grant dual access")
	}

	r.HasDualAI = false
	r.Tier = tier.Pro
	if !subscription.CanUseDualAI(r) {
		t.Error("pro tier should grant dual access even without the flag")
	}
}

func TestSummarize(t *testing.T) {
	r := subscription.NewRecord("u1", now)
	r.Tier = tier.Pro
	r.CompletionsUsed = 40
	r.CreditsRemaining = 12

	s := subscription.Summarize(r)
	if s.CompletionsRemaining != 260 {
		t.Errorf("CompletionsRemaining = %d, want 260", s.CompletionsRemaining)
	}
	if s.CompletionsLimit != 300 || s.MonthlyCredits != 20 {
		t.Errorf("tier caps: %+v", s)
	}
	if s.ProjectLimit != tier.Unlimited {
		t.Errorf("ProjectLimit = %d, want unlimited", s.ProjectLimit)
	}
	if !s.HasDualAI {
		t.Error("pro summary should report dual access")
	}
}
