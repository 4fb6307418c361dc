package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/duetgate/adapters/clock"
	"github.com/artpar/duetgate/adapters/memory"
	"github.com/artpar/duetgate/app"
	"github.com/artpar/duetgate/domain/subscription"
	"github.com/artpar/duetgate/ports"
	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name string
	text string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(context.Context, ports.ProviderCall) (string, error) {
	return f.text, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordRequest(string, int, time.Duration) {}
func (nopMetrics) RecordGeneration(string, bool, time.Duration) {}
func (nopMetrics) RecordSpend(float64, int) {}

func newDeps(t *testing.T) ToolDependencies {
	t.Helper()

	orch := app.NewOrchestratorService(app.OrchestratorDeps{
		V0:      &fakeProvider{name: "v0", text: "FRONT"},
		Gateway: &fakeProvider{name: "gateway", text: "BACK"},
		Metrics: nopMetrics{},
		Logger:  zerolog.Nop(),
	})
	accounts := app.NewAccountService(app.AccountDeps{
		Store:  memory.NewSubscriptionStore(),
		Clock:  clock.NewFake(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Logger: zerolog.Nop(),
	})
	return ToolDependencies{Accounts: accounts, Orchestrator: orch}
}

func TestRegisterTools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	require.NoError(t, RegisterTools(srv, newDeps(t)))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	want := map[string]bool{
		"packages.list":     false,
		"packages.purchase": false,
		"generate.v0":       false,
		"generate.gateway":  false,
		"generate.dual":     false,
		"account.status":    false,
	}
	for _, tool := range tools {
		if name, ok := tool["name"].(string); ok {
			if _, tracked := want[name]; tracked {
				want[name] = true
			}
		}
	}
	for name, found := range want {
		require.True(t, found, "tool %s should be registered", name)
	}
}

func TestRunGenerate_DualRequiresUnlock(t *testing.T) {
	deps := newDeps(t)
	ctx := context.Background()

	// A fresh free account has no dual access.
	_, err := runGenerate(ctx, deps, generateInput{UserID: "u1", Prompt: "a landing page"}, "", true)
	require.ErrorIs(t, err, app.ErrDualLocked)

	// Any package purchase unlocks it.
	_, err = deps.Accounts.PurchaseCreditPackage(ctx, "u1", "small")
	require.NoError(t, err)

	out, err := runGenerate(ctx, deps, generateInput{UserID: "u1", Prompt: "a landing page"}, "", true)
	require.NoError(t, err)
	require.Contains(t, out.Result, "FRONT")
	require.Contains(t, out.Result, "BACK")
	require.Equal(t, "dual", out.Provider)

	// Free tier has no completions, so dual costs 2 credits: 5+3-2.
	require.Equal(t, float64(6), out.CreditsRemaining)
}

func TestRunGenerate_SingleChargesOneCredit(t *testing.T) {
	deps := newDeps(t)
	ctx := context.Background()

	out, err := runGenerate(ctx, deps, generateInput{UserID: "u2", Prompt: "a button"}, "v0", false)
	require.NoError(t, err)
	require.Equal(t, "FRONT", out.Result)
	require.Equal(t, float64(4), out.CreditsRemaining)
}

func TestRunGenerate_Validation(t *testing.T) {
	deps := newDeps(t)
	ctx := context.Background()

	_, err := runGenerate(ctx, deps, generateInput{Prompt: "x"}, "v0", false)
	require.Error(t, err)

	_, err = runGenerate(ctx, deps, generateInput{UserID: "u3", Prompt: "  "}, "v0", false)
	require.Error(t, err)
}

func TestPurchaseAndStatusTools(t *testing.T) {
	deps := newDeps(t)
	ctx := context.Background()

	st, err := deps.Accounts.Status(ctx, "u4")
	require.NoError(t, err)
	require.Equal(t, float64(5), st.CreditsRemaining)
	require.False(t, st.HasDualAI)

	rec, err := deps.Accounts.PurchaseCreditPackage(ctx, "u4", "xlarge")
	require.NoError(t, err)

	st = subscription.Summarize(rec)
	require.Equal(t, float64(15), st.CreditsRemaining)
	require.True(t, st.HasDualAI)
}
