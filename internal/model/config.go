package model

import "time"

// Config is the complete runtime configuration.
type Config struct {
	Notion      NotionConfig      `yaml:"notion" mapstructure:"notion"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Resolve     ResolveConfig     `yaml:"resolve" mapstructure:"resolve"`
	Classify    ClassifyConfig    `yaml:"classify" mapstructure:"classify"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// NotionConfig configures the knowledge-base client.
type NotionConfig struct {
	APIKey     string        `yaml:"api_key" mapstructure:"api_key"`
	DatabaseID string        `yaml:"database_id" mapstructure:"database_id"`
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"` // Override for tests
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// HTTPConfig configures outbound page fetching.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// LLMConfig configures the inference provider.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"-"` // From environment only, never persisted
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // Seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig configures the extracted-content cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds batch processing.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig paces outbound requests, shared across workers.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ResolveConfig tunes last-resort fuzzy name matching.
type ResolveConfig struct {
	// FuzzyThreshold is the minimum normalized edit-similarity for a fuzzy
	// name candidate.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	MaxCandidates  int     `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// ClassifyConfig tunes prompt assembly.
type ClassifyConfig struct {
	// MaxPromptChars caps page text in the prompt. Text is truncated from
	// the end so the opening description survives.
	MaxPromptChars int `yaml:"max_prompt_chars" mapstructure:"max_prompt_chars"`
}

// OutputConfig controls CLI reporting.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults for all sections.
func DefaultConfig() *Config {
	return &Config{
		Notion: NotionConfig{
			BaseURL: "https://api.notion.com",
			Timeout: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "modtriage/0.1 (+mod knowledge-base triage)",
			MaxBodyBytes: 2_000_000,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // Resolved to ~/.modtriage/cache at load time
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 3,
			BurstSize:         5,
		},
		Resolve: ResolveConfig{
			FuzzyThreshold: 0.85,
			MaxCandidates:  5,
		},
		Classify: ClassifyConfig{
			MaxPromptChars: 6000,
		},
		Output: OutputConfig{},
	}
}
