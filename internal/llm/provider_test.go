package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flakyProvider fails a fixed number of times before succeeding.
type flakyProvider struct {
	failures int
	calls    int
	err      error
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Complete(ctx context.Context, req CompleteRequest) (*CompleteResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &CompleteResponse{Text: "ok", Model: "flaky"}, nil
}

func (f *flakyProvider) IsAvailable(ctx context.Context) bool { return true }

func withFakeSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := completeSleepFunc
	completeSleepFunc = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { completeSleepFunc = orig })
	return &slept
}

func TestCompleteWithRetry_TransientRecovers(t *testing.T) {
	slept := withFakeSleep(t)
	p := &flakyProvider{failures: 2, err: errors.New("API error: status 503")}

	resp, err := CompleteWithRetry(context.Background(), p, CompleteRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("unexpected response %q", resp.Text)
	}
	if p.calls != 3 {
		t.Errorf("expected 3 calls, got %d", p.calls)
	}

	// Exponential backoff: 1s then 2s
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(*slept))
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("sleep %d = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestCompleteWithRetry_BudgetExhausted(t *testing.T) {
	withFakeSleep(t)
	p := &flakyProvider{failures: 10, err: errors.New("timeout awaiting response")}

	_, err := CompleteWithRetry(context.Background(), p, CompleteRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected failure after retry budget")
	}
	if p.calls != completeMaxRetries {
		t.Errorf("expected %d calls, got %d", completeMaxRetries, p.calls)
	}
}

func TestCompleteWithRetry_NonTransientFailsFast(t *testing.T) {
	withFakeSleep(t)
	p := &flakyProvider{failures: 10, err: errors.New("invalid api key")}

	_, err := CompleteWithRetry(context.Background(), p, CompleteRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Errorf("non-transient error retried: %d calls", p.calls)
	}
}

func TestCompleteWithRetry_ContextCancelled(t *testing.T) {
	withFakeSleep(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &flakyProvider{failures: 10, err: errors.New("status 500")}

	_, err := CompleteWithRetry(ctx, p, CompleteRequest{Prompt: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"API error: status 429", true},
		{"API error: status 500", true},
		{"request failed with status code: 503", true},
		{"dial tcp: connection refused", true},
		{"read: connection reset by peer", true},
		{"context deadline exceeded (Client.Timeout exceeded)", true},
		{"invalid api key", false},
		{"API error: status 400", false},
	}

	for _, tt := range tests {
		if got := isTransient(errors.New(tt.err)); got != tt.want {
			t.Errorf("isTransient(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{"openai", "openai", false},
		{"OpenAI", "openai", false},
		{"anthropic", "anthropic", false},
		{"claude", "anthropic", false},
		{"ollama", "ollama", false},
		{"unknown", "", true},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Provider = tt.provider
		cfg.APIKey = "test-key"

		p, err := NewProvider(cfg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewProvider(%q) expected error", tt.provider)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewProvider(%q) failed: %v", tt.provider, err)
			continue
		}
		if p.Name() != tt.wantName {
			t.Errorf("NewProvider(%q).Name() = %q, want %q", tt.provider, p.Name(), tt.wantName)
		}
	}
}
