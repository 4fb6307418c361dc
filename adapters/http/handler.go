// Package http provides the HTTP surface for the generation service.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/duetgate/app"
	"github.com/artpar/duetgate/domain/entitlement"
	"github.com/artpar/duetgate/domain/subscription"
	"github.com/artpar/duetgate/domain/tier"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler serves the generation and account endpoints.
type Handler struct {
	gen         *app.GenerateService
	orch        *app.OrchestratorService
	accounts    *app.AccountService
	baseURL     string
	authServers []string
	logger      zerolog.Logger
}

// HandlerDeps contains dependencies for Handler.
type HandlerDeps struct {
	Generate     *app.GenerateService
	Orchestrator *app.OrchestratorService
	Accounts     *app.AccountService
	BaseURL      string
	AuthServers  []string
	Logger       zerolog.Logger
}

// NewHandler creates an HTTP handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		gen:         deps.Generate,
		orch:        deps.Orchestrator,
		accounts:    deps.Accounts,
		baseURL:     deps.BaseURL,
		authServers: deps.AuthServers,
		logger:      deps.Logger,
	}
}

// response is the envelope every API endpoint writes.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response{Success: false, Error: msg})
}

// decodeBody reads a JSON request body into dst with a size cap.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(dst)
}

// trustHeaders collects the request headers as a lowercase-keyed map,
// the form the entitlement parser expects.
func trustHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}
	return headers
}

type completionsRequest struct {
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"systemPrompt"`
	Model        string `json:"model"`
	Provider     string `json:"provider"` // v0, gateway or dual
	Tier         string `json:"tier"`     // basic, premium or enterprise
}

type usageData struct {
	CreditsUsed          float64 `json:"creditsUsed"`
	CompletionsUsed      int     `json:"completionsUsed"`
	CreditsRemaining     float64 `json:"creditsRemaining"`
	CompletionsRemaining int     `json:"completionsRemaining"`
}

type completionsData struct {
	Result          string    `json:"result"`
	Provider        string    `json:"provider"`
	Tier            string    `json:"tier"`
	EstimatedCost   float64   `json:"estimatedCost"`
	TierDescription string    `json:"tierDescription"`
	Usage           usageData `json:"usage"`
	UsageSummary    string    `json:"usageSummary,omitempty"`
}

func validRequestTier(s string) bool {
	switch tier.RequestTier(s) {
	case "", tier.Basic, tier.Premium, tier.Enterprise:
		return true
	}
	return false
}

// Completions handles POST /v1/completions: the metered generation
// path. Entitlements come from the trust headers an authenticating
// gateway sets in front of this service.
func (h *Handler) Completions(w http.ResponseWriter, r *http.Request) {
	uc, err := entitlement.ParseUserContext(trustHeaders(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body completionsRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	provider := body.Provider
	if provider == "" {
		provider = "dual"
	}
	switch provider {
	case "dual", "v0", "gateway":
	default:
		writeError(w, http.StatusBadRequest, "provider must be v0, gateway or dual")
		return
	}
	if !validRequestTier(body.Tier) {
		writeError(w, http.StatusBadRequest, "tier must be basic, premium or enterprise")
		return
	}

	out, err := h.gen.Generate(r.Context(), app.GenerateRequest{
		Context:      uc,
		Prompt:       body.Prompt,
		Dual:         provider == "dual",
		Provider:     provider,
		Tier:         body.Tier,
		SystemPrompt: body.SystemPrompt,
		Model:        body.Model,
	})
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completionsData{
		Result:          out.Result,
		Provider:        out.Provider,
		Tier:            out.Tier,
		EstimatedCost:   out.EstimatedCost,
		TierDescription: out.TierDescription,
		Usage: usageData{
			CreditsUsed:          out.Usage.CreditsUsed,
			CompletionsUsed:      out.Usage.CompletionsUsed,
			CreditsRemaining:     out.Usage.NewCreditsRemaining,
			CompletionsRemaining: tier.CompletionsRemaining(tier.MustLookup(uc.Tier), out.Usage.NewCompletionsUsed),
		},
		UsageSummary: out.UsageSummary,
	})
}

func (h *Handler) writeGenerateError(w http.ResponseWriter, err error) {
	var denied *app.DeniedError
	if errors.As(err, &denied) {
		status := http.StatusForbidden
		if denied.Result.Reason == entitlement.DenyUsageLimit {
			status = http.StatusPaymentRequired
		}
		writeError(w, status, denied.Result.Message)
		return
	}

	h.logger.Error().Err(err).Msg("generation failed")
	writeError(w, http.StatusInternalServerError, "generation failed")
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Tier   string `json:"tier"`
}

type generateData struct {
	Result          string  `json:"result"`
	Provider        string  `json:"provider"`
	Tier            string  `json:"tier"`
	EstimatedCost   float64 `json:"estimatedCost"`
	TierDescription string  `json:"tierDescription"`
}

// Generate handles POST /v1/generate: the unmetered dual generation
// path with no entitlement checks and no usage accounting.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if !validRequestTier(body.Tier) {
		writeError(w, http.StatusBadRequest, "tier must be basic, premium or enterprise")
		return
	}

	out, err := h.orch.Dual(r.Context(), body.Prompt, tier.RequestTier(body.Tier), app.CallOptions{})
	if err != nil {
		h.logger.Error().Err(err).Msg("generation failed")
		writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	writeJSON(w, http.StatusOK, generateData{
		Result:          out.Result,
		Provider:        "dual",
		Tier:            string(out.Tier),
		EstimatedCost:   out.EstimatedCost,
		TierDescription: out.TierDescription,
	})
}

type accountData struct {
	UserID               string    `json:"userId"`
	Tier                 string    `json:"tier"`
	CreditsRemaining     float64   `json:"creditsRemaining"`
	MonthlyCredits       float64   `json:"monthlyCredits"`
	CompletionsUsed      int       `json:"completionsUsed"`
	CompletionsLimit     int       `json:"completionsLimit"`
	CompletionsRemaining int       `json:"completionsRemaining"`
	ProjectsCreated      int       `json:"projectsCreated"`
	ProjectLimit         int       `json:"projectLimit"`
	HasDualAI            bool      `json:"hasDualAI"`
	RequiresOwnKeys      bool      `json:"requiresOwnKeys"`
	SubscriptionEnd      time.Time `json:"subscriptionEnd,omitzero"`
}

func toAccountData(st subscription.Status) accountData {
	return accountData{
		UserID:               st.UserID,
		Tier:                 string(st.Tier),
		CreditsRemaining:     st.CreditsRemaining,
		MonthlyCredits:       st.MonthlyCredits,
		CompletionsUsed:      st.CompletionsUsed,
		CompletionsLimit:     st.CompletionsLimit,
		CompletionsRemaining: st.CompletionsRemaining,
		ProjectsCreated:      st.ProjectsCreated,
		ProjectLimit:         st.ProjectLimit,
		HasDualAI:            st.HasDualAI,
		RequiresOwnKeys:      st.RequiresOwnKeys,
		SubscriptionEnd:      st.SubscriptionEnd,
	}
}

// AccountStatus handles GET /v1/accounts/{id}.
func (h *Handler) AccountStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.accounts.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error().Err(err).Msg("account status failed")
		writeError(w, http.StatusInternalServerError, "account lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, toAccountData(st))
}

type purchaseRequest struct {
	Package string `json:"package"`
}

// Purchase handles POST /v1/accounts/{id}/purchase.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var body purchaseRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := h.accounts.PurchaseCreditPackage(r.Context(), chi.URLParam(r, "id"), body.Package)
	if err != nil {
		h.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountData(subscription.Summarize(rec)))
}

type upgradeRequest struct {
	Tier         string `json:"tier"`
	V0APIKey     string `json:"v0ApiKey"`
	ClaudeAPIKey string `json:"claudeApiKey"`
}

// UpgradeAccount handles POST /v1/accounts/{id}/upgrade.
func (h *Handler) UpgradeAccount(w http.ResponseWriter, r *http.Request) {
	var body upgradeRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := h.accounts.Upgrade(r.Context(), chi.URLParam(r, "id"), tier.Tier(body.Tier), body.V0APIKey, body.ClaudeAPIKey)
	if err != nil {
		h.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountData(subscription.Summarize(rec)))
}

// ResetAccount handles POST /v1/accounts/{id}/reset.
func (h *Handler) ResetAccount(w http.ResponseWriter, r *http.Request) {
	rec, err := h.accounts.ResetMonthly(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountData(subscription.Summarize(rec)))
}

func (h *Handler) writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, subscription.ErrUnknownPackage),
		errors.Is(err, subscription.ErrUnknownTier),
		errors.Is(err, subscription.ErrMissingKeys):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, subscription.ErrInsufficientCredits),
		errors.Is(err, subscription.ErrNoCompletions):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, subscription.ErrProjectLimit),
		errors.Is(err, app.ErrDualLocked):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error().Err(err).Msg("account operation failed")
		writeError(w, http.StatusInternalServerError, "account operation failed")
	}
}

// OAuthProtectedResource handles GET /.well-known/oauth-protected-resource.
// The body follows RFC 9728 resource metadata, so it is not wrapped in
// the API envelope.
func (h *Handler) OAuthProtectedResource(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"resource":                 h.baseURL,
		"authorization_servers":    h.authServers,
		"bearer_methods_supported": []string{"header"},
	})
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
