package worker

import (
	"context"
	"testing"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	url := "http://example.com/foo"
	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different host should also work
	if err := limiter.Wait(ctx, "http://google.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitKey(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	// Logical backend keys get their own buckets
	if err := limiter.WaitKey(ctx, "knowledgebase"); err != nil {
		t.Fatalf("WaitKey failed: %v", err)
	}
	if err := limiter.WaitKey(ctx, "inference"); err != nil {
		t.Fatalf("WaitKey failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	url := "http://example.com"

	// First request ok
	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Burst 1 is consumed, so Allow fails without waiting
	if limiter.Allow(url) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Different host should be allowed
	if !limiter.Allow("http://other.com") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default
	key := "slow.com"

	// Set strict limit for a specific host
	limiter.SetRate(key, 0.1, 1) // very slow

	// First request passes (burst 1)
	if !limiter.Allow("http://" + key) {
		t.Errorf("first request should pass")
	}

	// Second request fails
	if limiter.Allow("http://" + key) {
		t.Errorf("second request should fail")
	}

	// Other host still fast
	if !limiter.Allow("http://fast.com") {
		t.Errorf("other host should pass")
	}
}

func TestHostKey(t *testing.T) {
	if got := hostKey("http://example.com/foo"); got != "example.com" {
		t.Errorf("expected example.com, got %s", got)
	}

	// Unparseable URLs all share one bucket
	if got := hostKey("::invalid"); got != "default" {
		t.Errorf("expected default bucket, got %s", got)
	}
}
