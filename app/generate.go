package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/duetgate/domain/classify"
	"github.com/artpar/duetgate/domain/entitlement"
	"github.com/artpar/duetgate/domain/tier"
	"github.com/artpar/duetgate/domain/usage"
	"github.com/artpar/duetgate/ports"
	"github.com/rs/zerolog"
)

// DeniedError carries an entitlement denial so transports can map it
// to the right status code via the embedded result.
type DeniedError struct {
	Result entitlement.ValidationResult
}

func (e *DeniedError) Error() string { return e.Result.Message }

// ErrDenied is the sentinel all denial errors match with errors.Is.
var ErrDenied = errors.New("action denied")

func (e *DeniedError) Unwrap() error { return ErrDenied }

// GenerateService is the stateless request path: entitlements come
// entirely from trust headers, nothing is persisted except usage
// events for accounting.
type GenerateService struct {
	orch    *OrchestratorService
	usage   ports.UsageRecorder
	clock   ports.Clock
	idGen   ports.IDGenerator
	metrics ports.MetricsCollector
	log     zerolog.Logger
}

// GenerateDeps contains dependencies for GenerateService.
type GenerateDeps struct {
	Orchestrator *OrchestratorService
	Usage        ports.UsageRecorder
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Metrics      ports.MetricsCollector
	Logger       zerolog.Logger
}

// NewGenerateService creates a generate service.
func NewGenerateService(deps GenerateDeps) *GenerateService {
	return &GenerateService{
		orch:    deps.Orchestrator,
		usage:   deps.Usage,
		clock:   deps.Clock,
		idGen:   deps.IDGen,
		metrics: deps.Metrics,
		log:     deps.Logger,
	}
}

// GenerateRequest is one validated generation call.
type GenerateRequest struct {
	Context      entitlement.UserContext
	Prompt       string
	Dual         bool
	Provider     string // single mode only: "v0" or "gateway"
	Tier         string // requested quality tier
	SystemPrompt string // optional override
	Model        string // optional override, single mode only
}

// GenerateResponse is what the transports serialize back.
type GenerateResponse struct {
	Result          string
	Provider        string
	Tier            string
	EstimatedCost   float64
	TierDescription string
	Usage           entitlement.Usage
	UsageSummary    string
}

// Generate validates the action against the user context, runs the
// generation and computes the usage delta. Validation failures return
// a *DeniedError; provider failures pass through untouched.
func (s *GenerateService) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	action := entitlement.ActionSingleAI
	mode := usage.ModeSingle
	if req.Dual {
		action = entitlement.ActionDualAI
		mode = usage.ModeDual
	}

	if res := entitlement.ValidateAction(req.Context, action); !res.CanProceed {
		s.log.Info().
			Str("user_id", req.Context.UserID).
			Str("action", string(action)).
			Str("reason", string(res.Reason)).
			Msg("generation denied")
		return GenerateResponse{}, &DeniedError{Result: res}
	}

	rt := tier.RequestTier(req.Tier)
	if req.Tier == "" {
		rt = tier.Basic
	}
	if !tier.CanUseRequestTier(req.Context.Tier, rt) {
		return GenerateResponse{}, &DeniedError{Result: entitlement.ValidationResult{
			Reason: entitlement.DenyFeatureLocked,
			Message: fmt.Sprintf("The %s request tier is not available on the %s subscription. Upgrade to unlock stronger models.",
				rt, req.Context.Tier),
		}}
	}

	opts := s.callOptions(req)
	start := s.clock.Now()

	var (
		out      DualResult
		provider string
		err      error
	)
	if req.Dual {
		provider = "dual"
		out, err = s.orch.Dual(ctx, req.Prompt, rt, opts)
	} else {
		provider = req.Provider
		if provider == "" {
			provider = "v0"
		}
		out, err = s.orch.Single(ctx, req.Prompt, provider, rt, opts)
	}

	elapsed := s.clock.Now().Sub(start)
	if err != nil {
		s.record(req, mode, provider, 500, elapsed, entitlement.Usage{}, "")
		return GenerateResponse{}, err
	}

	delta := entitlement.CalculateUsage(req.Context, action)
	s.metrics.RecordSpend(delta.CreditsUsed, delta.CompletionsUsed)
	s.record(req, mode, provider, 200, elapsed, delta, out.Result)

	cost := out.EstimatedCost
	if !req.Dual {
		// One provider instead of two.
		cost /= 2
	}

	return GenerateResponse{
		Result:          out.Result,
		Provider:        provider,
		Tier:            string(out.Tier),
		EstimatedCost:   cost,
		TierDescription: out.TierDescription,
		Usage:           delta,
		UsageSummary:    entitlement.Summary(req.Context, delta),
	}, nil
}

func (s *GenerateService) callOptions(req GenerateRequest) CallOptions {
	keys := entitlement.SelectKeys(req.Context)
	return CallOptions{
		Keys:   ProviderKeys{V0: keys.V0APIKey, Gateway: keys.ClaudeAPIKey},
		System: req.SystemPrompt,
		Model:  req.Model,
	}
}

func (s *GenerateService) record(req GenerateRequest, mode usage.Mode, provider string, status int, elapsed time.Duration, delta entitlement.Usage, result string) {
	a := classify.Analyze(req.Prompt)
	s.usage.Record(usage.Event{
		ID:          s.idGen.New(),
		UserID:      req.Context.UserID,
		Mode:        mode,
		RequestTier: req.Tier,
		Kind:        string(a.Kind),
		Library:     string(a.Library),
		Provider:    provider,
		StatusCode:  status,
		LatencyMs:   elapsed.Milliseconds(),
		CreditsUsed: delta.CreditsUsed,
		Completions: delta.CompletionsUsed,
		PromptChars: len(req.Prompt),
		ResultChars: len(result),
		Timestamp:   s.clock.Now(),
	})
}
