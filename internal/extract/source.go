// Package extract fetches a mod's external page and reduces it to plain
// text plus image references.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"modtriage/internal/cache"
	"modtriage/internal/model"
	"modtriage/internal/util"
)

// Source is the content-extraction contract consumed by the pipeline.
type Source interface {
	Extract(ctx context.Context, url string) (*model.ExtractedContent, error)
}

// HTTPSource fetches pages over HTTP, honoring robots.txt, and caches
// extracted content by normalized URL.
type HTTPSource struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewHTTPSource creates an extractor. cache may be nil to disable caching.
func NewHTTPSource(cfg model.HTTPConfig, contentCache cache.Cache, cacheTTL time.Duration) *HTTPSource {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes == 0 {
		maxBytes = 2_000_000
	}

	return &HTTPSource{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		robots:    util.NewRobotsChecker(cfg.UserAgent, timeout),
		cache:     contentCache,
		cacheTTL:  cacheTTL,
	}
}

// Extract fetches the URL and returns its plain text and image references.
// Fails if the page is unreachable, disallowed by robots.txt, or yields no
// text at all.
func (s *HTTPSource) Extract(ctx context.Context, rawURL string) (*model.ExtractedContent, error) {
	key := cache.Key(model.NormalizeURL(rawURL))
	if s.cache != nil {
		if data, found := s.cache.Get(key); found {
			var content model.ExtractedContent
			if err := json.Unmarshal(data, &content); err == nil {
				return &content, nil
			}
		}
	}

	allowed, crawlDelay, err := s.robots.CanFetch(ctx, rawURL)
	if err == nil && !allowed {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}
	if crawlDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(crawlDelay):
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	content, err := ParseContent(string(body), resp.Request.URL.String())
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if content.Text == "" {
		return nil, fmt.Errorf("no text content found at %s", rawURL)
	}

	if s.cache != nil {
		if data, err := json.Marshal(content); err == nil {
			_ = s.cache.Set(key, data, s.cacheTTL)
		}
	}

	return content, nil
}
