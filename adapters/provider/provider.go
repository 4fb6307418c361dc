// Package provider implements the upstream AI generation clients.
// Two providers exist: the v0 design service and the OpenAI-compatible
// AI gateway. Both speak JSON over HTTPS with bearer auth.
package provider

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUpstream wraps any provider-side failure. Handlers map it to 500.
var ErrUpstream = errors.New("provider call failed")

// StatusError is an upstream non-2xx response.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// Config configures one provider client.
type Config struct {
	BaseURL      string
	APIKey       string // server-side key, overridden per call for BYOK
	DefaultModel string
	SystemPrompt string
	Timeout      time.Duration
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: timeout,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
