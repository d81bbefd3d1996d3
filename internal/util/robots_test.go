package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_Disallow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\nCrawl-delay: 2\n")
	}))
	defer srv.Close()

	checker := NewRobotsChecker("modtriage-test", time.Second)

	allowed, _, err := checker.CanFetch(context.Background(), srv.URL+"/private/page")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if allowed {
		t.Error("disallowed path reported as allowed")
	}

	allowed, delay, err := checker.CanFetch(context.Background(), srv.URL+"/public/page")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("allowed path reported as disallowed")
	}
	if delay != 2*time.Second {
		t.Errorf("crawl delay = %v, want 2s", delay)
	}
}

func TestRobotsChecker_MissingAllowsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	checker := NewRobotsChecker("modtriage-test", time.Second)

	allowed, _, err := checker.CanFetch(context.Background(), srv.URL+"/anything")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("missing robots.txt must allow fetching")
	}
}

func TestRobotsChecker_UnreachableAllowsByDefault(t *testing.T) {
	checker := NewRobotsChecker("modtriage-test", 100*time.Millisecond)

	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/page")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("unreachable robots.txt must allow by default")
	}
}

func TestRobotsChecker_CachesPerHost(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	}))
	defer srv.Close()

	checker := NewRobotsChecker("modtriage-test", time.Second)

	for i := 0; i < 3; i++ {
		if _, _, err := checker.CanFetch(context.Background(), srv.URL+"/page"); err != nil {
			t.Fatalf("CanFetch failed: %v", err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}
}
