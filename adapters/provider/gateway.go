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

// Gateway calls an OpenAI-compatible AI gateway.
type Gateway struct {
	cfg    Config
	client *http.Client
}

// NewGateway creates an AI gateway provider client.
func NewGateway(cfg Config) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://ai-gateway.vercel.sh/v1"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic/claude-3-5-sonnet-20241022"
	}
	return &Gateway{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

// Name identifies the provider.
func (*Gateway) Name() string { return "gateway" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate runs one chat completion against the gateway.
func (p *Gateway) Generate(ctx context.Context, call ports.ProviderCall) (string, error) {
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

	msgs := []chatMessage{}
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: call.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: 0.7,
		MaxTokens:   4000,
	})
	if err != nil {
		return "", fmt.Errorf("encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gateway request: %w", err)
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
		return "", fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Provider: p.Name(), Status: resp.StatusCode, Body: truncate(string(raw), 256)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", &StatusError{Provider: p.Name(), Status: resp.StatusCode, Body: "empty choices"}
	}
	return out.Choices[0].Message.Content, nil
}

var _ ports.Provider = (*Gateway)(nil)
