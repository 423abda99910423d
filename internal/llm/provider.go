package llm

import (
	"context"
	"errors"
	"time"

	"github.com/EunoiaC/Verify/internal/model"
)

var (
	// ErrMalformedClaims marks extractor output that is not a valid claim list.
	// It is fatal for the request: partial claim lists are never used.
	ErrMalformedClaims = errors.New("malformed claim extraction output")

	// ErrNoProvider is returned when no extraction provider is configured
	ErrNoProvider = errors.New("no claim extraction provider configured")
)

// Extractor turns free text into structured claims
type Extractor interface {
	// Name returns the provider name
	Name() string

	// ExtractClaims returns the claims found in text. An empty list is valid.
	ExtractClaims(ctx context.Context, text string) ([]model.Claim, error)
}

// Config holds extraction provider configuration
type Config struct {
	// Provider name: "gemini", "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for Gemini/OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible servers)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel builds an extractor Config from the application config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.Extractor.Provider,
		Model:      cfg.Extractor.Model,
		APIKey:     cfg.Extractor.APIKey,
		BaseURL:    cfg.Extractor.BaseURL,
		Timeout:    cfg.Extractor.Timeout,
		MaxTokens:  cfg.Extractor.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 8192
}
