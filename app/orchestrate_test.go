package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/artpar/duetgate/app"
	"github.com/artpar/duetgate/domain/tier"
	"github.com/artpar/duetgate/ports"
	"github.com/rs/zerolog"
)

// fakeProvider returns a canned result after an optional delay.
type fakeProvider struct {
	name  string
	text  string
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls []ports.ProviderCall
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, call ports.ProviderCall) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

type fakeMetrics struct {
	mu          sync.Mutex
	generations []string
	credits     float64
	completions int
}

func (f *fakeMetrics) RecordRequest(string, int, time.Duration) {}

func (f *fakeMetrics) RecordGeneration(provider string, success bool, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outcome := "ok"
	if !success {
		outcome = "err"
	}
	f.generations = append(f.generations, provider+":"+outcome)
}

func (f *fakeMetrics) RecordSpend(credits float64, completions int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits += credits
	f.completions += completions
}

func newOrchestrator(v0, gw *fakeProvider, m ports.MetricsCollector) *app.OrchestratorService {
	return app.NewOrchestratorService(app.OrchestratorDeps{
		V0:      v0,
		Gateway: gw,
		Metrics: m,
		Logger:  zerolog.Nop(),
	})
}

func TestDual_MergesInProviderOrder(t *testing.T) {
	// The gateway answers first but v0 output must still lead.
	v0 := &fakeProvider{name: "v0", text: "FRONTEND", delay: 20 * time.Millisecond}
	gw := &fakeProvider{name: "gateway", text: "BACKEND"}
	s := newOrchestrator(v0, gw, &fakeMetrics{})

	out, err := s.Dual(context.Background(), "a modern landing page", tier.Premium, app.CallOptions{})
	if err != nil {
		t.Fatalf("Dual: %v", err)
	}

	want := "FRONTEND" + app.Separator + "BACKEND"
	if out.Result != want {
		t.Errorf("Result = %q, want %q", out.Result, want)
	}
	if out.Tier != tier.Premium || out.EstimatedCost != 0.10 {
		t.Errorf("tier info: %+v", out)
	}
}

func TestDual_RunsInParallel(t *testing.T) {
	v0 := &fakeProvider{name: "v0", text: "a", delay: 50 * time.Millisecond}
	gw := &fakeProvider{name: "gateway", text: "b", delay: 50 * time.Millisecond}
	s := newOrchestrator(v0, gw, &fakeMetrics{})

	start := time.Now()
	if _, err := s.Dual(context.Background(), "x", tier.Basic, app.CallOptions{}); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 90*time.Millisecond {
		t.Errorf("calls appear sequential: %v", elapsed)
	}
}

func TestDual_FirstFailureFailsTheCall(t *testing.T) {
	boom := errors.New("boom")
	v0 := &fakeProvider{name: "v0", err: boom}
	gw := &fakeProvider{name: "gateway", text: "fine", delay: 10 * time.Millisecond}
	m := &fakeMetrics{}
	s := newOrchestrator(v0, gw, m)

	_, err := s.Dual(context.Background(), "x", tier.Basic, app.CallOptions{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), "v0") {
		t.Errorf("error should name the failing provider: %v", err)
	}

	// Both outcomes still reach the metrics, no goroutine is left
	// blocked on the channel.
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.generations) != 2 {
		t.Errorf("generations recorded = %v", m.generations)
	}
}

func TestDual_SelectsModelsByRequestTier(t *testing.T) {
	v0 := &fakeProvider{name: "v0", text: "a"}
	gw := &fakeProvider{name: "gateway", text: "b"}
	s := newOrchestrator(v0, gw, &fakeMetrics{})

	if _, err := s.Dual(context.Background(), "x", tier.Enterprise, app.CallOptions{Keys: app.ProviderKeys{V0: "k1", Gateway: "k2"}}); err != nil {
		t.Fatal(err)
	}

	if v0.calls[0].Model != "v0-1.5-lg" {
		t.Errorf("v0 model = %q", v0.calls[0].Model)
	}
	if !strings.Contains(gw.calls[0].Model, "opus") {
		t.Errorf("gateway model = %q", gw.calls[0].Model)
	}
	if v0.calls[0].APIKey != "k1" || gw.calls[0].APIKey != "k2" {
		t.Error("BYOK keys not passed through")
	}
}

func TestDual_BothProvidersGetTheSameTask(t *testing.T) {
	v0 := &fakeProvider{name: "v0", text: "a"}
	gw := &fakeProvider{name: "gateway", text: "b"}
	s := newOrchestrator(v0, gw, &fakeMetrics{})

	if _, err := s.Dual(context.Background(), "a simple pricing table", tier.Basic, app.CallOptions{}); err != nil {
		t.Fatal(err)
	}

	if v0.calls[0].Prompt != gw.calls[0].Prompt {
		t.Errorf("tasks differ:\n%q\n%q", v0.calls[0].Prompt, gw.calls[0].Prompt)
	}
	if !strings.Contains(v0.calls[0].Prompt, "chakra") {
		t.Errorf("task should target the classified library: %q", v0.calls[0].Prompt)
	}
}

func TestSingle(t *testing.T) {
	v0 := &fakeProvider{name: "v0", text: "component"}
	gw := &fakeProvider{name: "gateway", text: "backend"}
	s := newOrchestrator(v0, gw, &fakeMetrics{})

	out, err := s.Single(context.Background(), "a button", "gateway", tier.Basic, app.CallOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Result != "backend" {
		t.Errorf("Result = %q", out.Result)
	}
	if len(v0.calls) != 0 {
		t.Error("v0 should not be called in gateway single mode")
	}

	// Single mode sends the raw prompt, no task template.
	if gw.calls[0].Prompt != "a button" {
		t.Errorf("prompt = %q, want the raw prompt", gw.calls[0].Prompt)
	}
	if !strings.HasPrefix(out.TierDescription, "gateway only - ") {
		t.Errorf("description = %q", out.TierDescription)
	}

	// Unknown provider names fall back to v0.
	out, err = s.Single(context.Background(), "a button", "", tier.Basic, app.CallOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Result != "component" {
		t.Errorf("Result = %q", out.Result)
	}
}
