// Package mcp exposes the generation and account operations as MCP
// tools so agent clients can drive the service directly.
package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/artpar/duetgate/app"
	"github.com/artpar/duetgate/domain/entitlement"
	"github.com/artpar/duetgate/domain/subscription"
	"github.com/artpar/duetgate/domain/tier"
	"github.com/felixgeelhaar/mcp-go"
)

// ToolDependencies provides services and context for MCP tools.
type ToolDependencies struct {
	Accounts     *app.AccountService
	Orchestrator *app.OrchestratorService
}

// RegisterTools registers the generation and account tools.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.Accounts == nil || deps.Orchestrator == nil {
		return errors.New("accounts and orchestrator are required")
	}

	if err := registerPackageTools(srv, deps); err != nil {
		return err
	}
	if err := registerGenerateTools(srv, deps); err != nil {
		return err
	}
	return registerAccountTools(srv, deps)
}

type purchaseInput struct {
	UserID  string `json:"user_id" jsonschema:"required"`
	Package string `json:"package" jsonschema:"required"`
}

func registerPackageTools(srv *mcp.Server, deps ToolDependencies) error {
	srv.Tool("packages.list").
		Description("List purchasable credit packages and subscription tiers").
		Handler(func(ctx context.Context, input struct{}) (map[string]any, error) {
			return map[string]any{
				"packages": tier.Packages(),
				"tiers":    tier.All(),
			}, nil
		})

	srv.Tool("packages.purchase").
		Description("Purchase a credit package; any purchase unlocks the Dual AI Builder").
		Handler(func(ctx context.Context, input purchaseInput) (subscription.Status, error) {
			if input.UserID == "" {
				return subscription.Status{}, errors.New("user_id is required")
			}
			rec, err := deps.Accounts.PurchaseCreditPackage(ctx, input.UserID, input.Package)
			if err != nil {
				return subscription.Status{}, err
			}
			return subscription.Summarize(rec), nil
		})

	return nil
}

type generateInput struct {
	UserID string `json:"user_id" jsonschema:"required"`
	Prompt string `json:"prompt" jsonschema:"required"`
	Tier   string `json:"tier,omitempty"`
}

type generateOutput struct {
	Result               string  `json:"result"`
	Provider             string  `json:"provider"`
	Tier                 string  `json:"tier"`
	EstimatedCost        float64 `json:"estimated_cost"`
	CreditsRemaining     float64 `json:"credits_remaining"`
	CompletionsRemaining int     `json:"completions_remaining"`
}

func registerGenerateTools(srv *mcp.Server, deps ToolDependencies) error {
	single := func(provider string) func(context.Context, generateInput) (generateOutput, error) {
		return func(ctx context.Context, input generateInput) (generateOutput, error) {
			return runGenerate(ctx, deps, input, provider, false)
		}
	}

	srv.Tool("generate.v0").
		Description("Generate UI code with the v0 design provider (1 completion or 1 credit)").
		Handler(single("v0"))

	srv.Tool("generate.gateway").
		Description("Generate backend code with the AI gateway provider (1 completion or 1 credit)").
		Handler(single("gateway"))

	srv.Tool("generate.dual").
		Description("Run both providers in parallel and merge the results (1 completion or 2 credits; requires the Dual AI Builder)").
		Handler(func(ctx context.Context, input generateInput) (generateOutput, error) {
			return runGenerate(ctx, deps, input, "", true)
		})

	return nil
}

func runGenerate(ctx context.Context, deps ToolDependencies, input generateInput, provider string, dual bool) (generateOutput, error) {
	if input.UserID == "" {
		return generateOutput{}, errors.New("user_id is required")
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return generateOutput{}, errors.New("prompt is required")
	}

	rt := tier.RequestTier(input.Tier)
	if input.Tier == "" {
		rt = tier.Basic
	}

	action := entitlement.ActionSingleAI
	if dual {
		action = entitlement.ActionDualAI
	}

	// Charge the account up front; the dual access check and the
	// completions-first spend both live in the account service.
	rec, err := deps.Accounts.Spend(ctx, input.UserID, action)
	if err != nil {
		return generateOutput{}, err
	}

	opts := app.CallOptions{}
	if tier.MustLookup(rec.Tier).RequiresOwnKeys {
		opts.Keys = app.ProviderKeys{V0: rec.V0APIKey, Gateway: rec.ClaudeAPIKey}
	}

	var out app.DualResult
	if dual {
		provider = "dual"
		out, err = deps.Orchestrator.Dual(ctx, input.Prompt, rt, opts)
	} else {
		out, err = deps.Orchestrator.Single(ctx, input.Prompt, provider, rt, opts)
	}
	if err != nil {
		return generateOutput{}, err
	}

	cost := out.EstimatedCost
	if !dual {
		cost /= 2
	}

	return generateOutput{
		Result:               out.Result,
		Provider:             provider,
		Tier:                 string(out.Tier),
		EstimatedCost:        cost,
		CreditsRemaining:     rec.CreditsRemaining,
		CompletionsRemaining: subscription.CompletionsRemaining(rec),
	}, nil
}

type statusInput struct {
	UserID string `json:"user_id" jsonschema:"required"`
}

func registerAccountTools(srv *mcp.Server, deps ToolDependencies) error {
	srv.Tool("account.status").
		Description("Get an account's tier, credits, completions and project usage").
		Handler(func(ctx context.Context, input statusInput) (subscription.Status, error) {
			if input.UserID == "" {
				return subscription.Status{}, errors.New("user_id is required")
			}
			return deps.Accounts.Status(ctx, input.UserID)
		})

	return nil
}
