package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/artpar/duetgate/ports"
)

// V0 calls the v0 design generation API.
type V0 struct {
	cfg    Config
	client *http.Client
}

// NewV0 creates a v0 provider client.
func NewV0(cfg Config) *V0 {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.v0.dev"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "v0-1.5-md"
	}
	return &V0{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

// Name identifies the provider.
func (*V0) Name() string { return "v0" }

type v0Request struct {
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Model  string `json:"model"`
}

type v0Response struct {
	Result string `json:"result"`
}

// Generate runs one completion against the v0 API.
func (p *V0) Generate(ctx context.Context, call ports.ProviderCall) (string, error) {
	model := call.Model
	if model == "" {
		model = p.cfg.DefaultModel
	}
	system := call.System
	if system == "" {
		system = p.cfg.SystemPrompt
	}
	apiKey := call.APIKey
	if apiKey == "" {
		apiKey = p.cfg.APIKey
	}

	body, err := json.Marshal(v0Request{Prompt: call.Prompt, System: system, Model: model})
	if err != nil {
		return "", fmt.Errorf("encode v0 request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build v0 request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read v0 response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Provider: p.Name(), Status: resp.StatusCode, Body: truncate(string(raw), 256)}
	}

	var out v0Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode v0 response: %w", err)
	}
	return out.Result, nil
}

var _ ports.Provider = (*V0)(nil)
