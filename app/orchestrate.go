// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/duetgate/domain/classify"
	"github.com/artpar/duetgate/domain/genprompt"
	"github.com/artpar/duetgate/domain/tier"
	"github.com/artpar/duetgate/ports"
	"github.com/rs/zerolog"
)

// Separator joins the two provider outputs in a dual result.
const Separator = "\n\n// === AI SEPARATOR ===\n\n"

// OrchestratorService runs the dual-provider generation pipeline:
// analyze the prompt, build per-provider tasks, fan out to both
// providers in parallel and merge.
type OrchestratorService struct {
	v0      ports.Provider
	gateway ports.Provider
	metrics ports.MetricsCollector
	log     zerolog.Logger
}

// OrchestratorDeps contains dependencies for OrchestratorService.
type OrchestratorDeps struct {
	V0      ports.Provider
	Gateway ports.Provider
	Metrics ports.MetricsCollector
	Logger  zerolog.Logger
}

// NewOrchestratorService creates an orchestrator service.
func NewOrchestratorService(deps OrchestratorDeps) *OrchestratorService {
	return &OrchestratorService{
		v0:      deps.V0,
		gateway: deps.Gateway,
		metrics: deps.Metrics,
		log:     deps.Logger,
	}
}

// ProviderKeys carries per-call key overrides (BYOK).
type ProviderKeys struct {
	V0      string
	Gateway string
}

// CallOptions tunes one generation: BYOK keys plus optional system
// prompt and model overrides from the request body.
type CallOptions struct {
	Keys   ProviderKeys
	System string
	Model  string // single mode only; dual always uses the tier models
}

// DualResult is the merged outcome of a dual generation.
type DualResult struct {
	Result          string
	Analysis        classify.Analysis
	Tier            tier.RequestTier
	EstimatedCost   float64
	TierDescription string
}

type callOutcome struct {
	provider string
	text     string
	err      error
	elapsed  time.Duration
}

// Dual runs both providers in parallel on the same task and merges
// their outputs, v0 first. The first failure fails the whole call;
// there is no partial merge.
func (s *OrchestratorService) Dual(ctx context.Context, prompt string, rt tier.RequestTier, opts CallOptions) (DualResult, error) {
	analysis := classify.Analyze(prompt)
	task := genprompt.Task(analysis.Kind, analysis.Library, prompt)
	rc := tier.LookupRequest(rt)

	s.log.Debug().
		Str("kind", string(analysis.Kind)).
		Str("library", string(analysis.Library)).
		Float64("confidence", analysis.Confidence).
		Str("request_tier", string(rc.Tier)).
		Msg("dual generation planned")

	results := make(chan callOutcome, 2)
	run := func(p ports.Provider, call ports.ProviderCall) {
		start := time.Now()
		text, err := p.Generate(ctx, call)
		results <- callOutcome{provider: p.Name(), text: text, err: err, elapsed: time.Since(start)}
	}

	go run(s.v0, ports.ProviderCall{Prompt: task, System: opts.System, Model: rc.V0Model, APIKey: opts.Keys.V0})
	go run(s.gateway, ports.ProviderCall{Prompt: task, System: opts.System, Model: rc.GatewayModel, APIKey: opts.Keys.Gateway})

	outputs := make(map[string]string, 2)
	for i := 0; i < 2; i++ {
		out := <-results
		s.metrics.RecordGeneration(out.provider, out.err == nil, out.elapsed)
		if out.err != nil {
			s.log.Error().Err(out.err).Str("provider", out.provider).Msg("generation failed")
			// Drain the second result so the goroutine can exit, then
			// report the first failure.
			for j := i + 1; j < 2; j++ {
				late := <-results
				s.metrics.RecordGeneration(late.provider, late.err == nil, late.elapsed)
			}
			return DualResult{}, fmt.Errorf("%s: %w", out.provider, out.err)
		}
		outputs[out.provider] = out.text
	}

	return DualResult{
		Result:          outputs[s.v0.Name()] + Separator + outputs[s.gateway.Name()],
		Analysis:        analysis,
		Tier:            rc.Tier,
		EstimatedCost:   rc.EstimatedCost,
		TierDescription: rc.Description,
	}, nil
}

// Single runs one provider on the raw prompt. The classifier task
// template is a dual-mode concern; single callers say exactly what they
// want. An empty or unknown provider name selects v0.
func (s *OrchestratorService) Single(ctx context.Context, prompt, providerName string, rt tier.RequestTier, opts CallOptions) (DualResult, error) {
	analysis := classify.Analyze(prompt)
	rc := tier.LookupRequest(rt)

	p := s.v0
	call := ports.ProviderCall{Prompt: prompt, System: opts.System, Model: rc.V0Model, APIKey: opts.Keys.V0}
	if providerName == s.gateway.Name() {
		p = s.gateway
		call = ports.ProviderCall{Prompt: prompt, System: opts.System, Model: rc.GatewayModel, APIKey: opts.Keys.Gateway}
	}
	if opts.Model != "" {
		call.Model = opts.Model
	}

	start := time.Now()
	text, err := p.Generate(ctx, call)
	s.metrics.RecordGeneration(p.Name(), err == nil, time.Since(start))
	if err != nil {
		s.log.Error().Err(err).Str("provider", p.Name()).Msg("generation failed")
		return DualResult{}, fmt.Errorf("%s: %w", p.Name(), err)
	}

	return DualResult{
		Result:          text,
		Analysis:        analysis,
		Tier:            rc.Tier,
		EstimatedCost:   rc.EstimatedCost,
		TierDescription: p.Name() + " only - " + rc.Description,
	}, nil
}
