// Package llm abstracts the inference collaborator: assembled prompt text
// in, raw model output text out.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the raw model output
	Complete(ctx context.Context, req CompleteRequest) (*CompleteResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompleteRequest contains the input for one completion call
type CompleteRequest struct {
	// System is the instruction preamble (provider-specific placement)
	System string

	// Prompt is the assembled user prompt text
	Prompt string

	// Model overrides the configured model for this call
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompleteResponse contains the raw model output
type CompleteResponse struct {
	// Text is the raw output text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   30,
		MaxTokens: 1000,
	}
}

const completeMaxRetries = 3

// completeSleepFunc is the delay between retries (injectable for tests)
var completeSleepFunc = time.Sleep

// CompleteWithRetry wraps Provider.Complete with bounded exponential
// backoff on transient failures. Non-transient errors surface immediately.
func CompleteWithRetry(ctx context.Context, p Provider, req CompleteRequest) (*CompleteResponse, error) {
	var lastErr error
	for attempt := 0; attempt < completeMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			completeSleepFunc(backoff)
		}

		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("inference failed after %d attempts: %w", completeMaxRetries, lastErr)
}

// isTransient reports whether an error is worth retrying: timeouts,
// connection failures, rate limits, and server errors.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "status 429") ||
		strings.Contains(s, "status 500") ||
		strings.Contains(s, "status 502") ||
		strings.Contains(s, "status 503") ||
		strings.Contains(s, "status code: 429") ||
		strings.Contains(s, "status code: 500") ||
		strings.Contains(s, "status code: 502") ||
		strings.Contains(s, "status code: 503")
}
