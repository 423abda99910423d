package model

import "time"

// Config holds the complete Verify configuration
type Config struct {
	HTTP         HTTPConfig         `mapstructure:"http" yaml:"http"`
	Search       SearchConfig       `mapstructure:"search" yaml:"search"`
	Extractor    ExtractorConfig    `mapstructure:"extractor" yaml:"extractor"`
	Embedding    EmbeddingConfig    `mapstructure:"embedding" yaml:"embedding"`
	Stance       StanceConfig       `mapstructure:"stance" yaml:"stance"`
	Selection    SelectionConfig    `mapstructure:"selection" yaml:"selection"`
	Evidence     EvidenceConfig     `mapstructure:"evidence" yaml:"evidence"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

// HTTPConfig configures evidence page fetching
type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"` // <= 0 reads the whole body
	MaxRetries    int           `mapstructure:"max_retries" yaml:"max_retries"`
	RespectRobots bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
	HTTPProxy     string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy    string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy       string        `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
}

// SearchConfig configures the web search provider
type SearchConfig struct {
	Provider string        `mapstructure:"provider" yaml:"provider"` // google
	APIKey   string        `mapstructure:"api_key" yaml:"-"`
	EngineID string        `mapstructure:"engine_id" yaml:"engine_id"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ExtractorConfig configures the claim-extraction model
type ExtractorConfig struct {
	Provider  string        `mapstructure:"provider" yaml:"provider"` // gemini, openai, anthropic, ollama
	Model     string        `mapstructure:"model" yaml:"model"`
	APIKey    string        `mapstructure:"api_key" yaml:"-"`
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// EmbeddingConfig configures the sentence embedding model
type EmbeddingConfig struct {
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	APIKey    string `mapstructure:"api_key" yaml:"-"`
	Model     string `mapstructure:"model" yaml:"model"`
	CacheSize int    `mapstructure:"cache_size" yaml:"cache_size"` // 0 disables the embedding cache
}

// StanceConfig configures the NLI classifier
type StanceConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Labels  []string      `mapstructure:"labels" yaml:"labels,omitempty"` // Overrides the server's label set
}

// SelectionConfig holds the context selector operating parameters
type SelectionConfig struct {
	TopK          int `mapstructure:"top_k" yaml:"top_k"`
	ContextWindow int `mapstructure:"context_window" yaml:"context_window"`
}

// Evidence link modes
const (
	LinkModeLastWriter = "last_writer" // One document per URL, later claims overwrite the link
	LinkModePerClaim   = "per_claim"   // One document per (URL, claim) pair
)

// EvidenceConfig controls evidence aggregation
type EvidenceConfig struct {
	ResultsPerQuery      int    `mapstructure:"results_per_query" yaml:"results_per_query"`
	KeywordResults       int    `mapstructure:"keyword_results" yaml:"keyword_results"`
	LinkMode             string `mapstructure:"link_mode" yaml:"link_mode"`
	IsolatePassageErrors bool   `mapstructure:"isolate_passage_errors" yaml:"isolate_passage_errors"`
}

// ConcurrencyConfig bounds fan-out
type ConcurrencyConfig struct {
	FetchWorkers int `mapstructure:"fetch_workers" yaml:"fetch_workers"` // 0 = one worker per URL
	QueryWorkers int `mapstructure:"query_workers" yaml:"query_workers"` // 1 = sequential queries
	BatchWorkers int `mapstructure:"batch_workers" yaml:"batch_workers"`
}

// RateLimitingConfig configures per-domain fetch rate limits
type RateLimitingConfig struct {
	RequestsPerSecond float64            `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int                `mapstructure:"burst_size" yaml:"burst_size"`
	Domains           map[string]float64 `mapstructure:"domains" yaml:"domains,omitempty"`
}

// CacheConfig configures the extracted-text cache
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// ServerConfig configures the HTTP front end
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/85.0.4183.121 Safari/537.36",
			MaxBodyBytes: 5_000_000,
			MaxRetries:   3,
		},
		Search: SearchConfig{
			Provider: "google",
			Timeout:  10 * time.Second,
		},
		Extractor: ExtractorConfig{
			Provider:  "gemini",
			Model:     "gemini-2.5-flash-lite",
			Timeout:   60 * time.Second,
			MaxTokens: 8192,
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "http://localhost:8081/v1",
			Model:     "sentence-transformers/all-MiniLM-L6-v2",
			CacheSize: 4096,
		},
		Stance: StanceConfig{
			BaseURL: "http://localhost:8082",
			Timeout: 30 * time.Second,
		},
		Selection: SelectionConfig{
			TopK:          2,
			ContextWindow: 1,
		},
		Evidence: EvidenceConfig{
			ResultsPerQuery:      3,
			KeywordResults:       5,
			LinkMode:             LinkModeLastWriter,
			IsolatePassageErrors: true,
		},
		Concurrency: ConcurrencyConfig{
			FetchWorkers: 0,
			QueryWorkers: 1,
			BatchWorkers: 2,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     time.Hour,
		},
		Server: ServerConfig{
			Addr:           ":5000",
			AllowedOrigins: []string{"*"},
			RequestTimeout: 2 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
