package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EunoiaC/Verify/internal/cache"
	"github.com/EunoiaC/Verify/internal/embed"
	"github.com/EunoiaC/Verify/internal/llm"
	"github.com/EunoiaC/Verify/internal/model"
	"github.com/EunoiaC/Verify/internal/pipeline"
	"github.com/EunoiaC/Verify/internal/retrieve"
	"github.com/EunoiaC/Verify/internal/search"
	"github.com/EunoiaC/Verify/internal/stance"
	"github.com/EunoiaC/Verify/internal/worker"
)

// buildPipeline constructs every collaborator once and wires them into a Pipeline
func buildPipeline(ctx context.Context, cfg *model.Config) (*pipeline.Pipeline, error) {
	extractor, err := llm.NewExtractor(ctx, llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("claim extractor: %w", err)
	}

	searcher, err := newSearchProvider(ctx, cfg.Search)
	if err != nil {
		return nil, err
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	limiter.SetDomainRates(cfg.RateLimiting.Domains)

	fetcher := pipeline.NewFetcher(
		cfg.HTTP.Timeout,
		cfg.HTTP.UserAgent,
		cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.RespectRobots,
		cfg.HTTP.HTTPProxy,
		cfg.HTTP.HTTPSProxy,
		cfg.HTTP.NoProxy,
	).WithLimiter(limiter).WithMaxAttempts(cfg.HTTP.MaxRetries)

	var textCache cache.TextCache
	if cfg.Cache.Enabled {
		textCache = cache.NewMemoryCache(cfg.Cache.TTL)
	}

	evidence := pipeline.NewEvidenceFetcher(
		searcher,
		pipeline.NewTextExtractor(fetcher, textCache),
		cfg.Concurrency.FetchWorkers,
		cfg.Evidence.KeywordResults,
	)
	aggregator := pipeline.NewAggregator(
		evidence,
		cfg.Evidence.ResultsPerQuery,
		cfg.Evidence.LinkMode,
		cfg.Concurrency.QueryWorkers,
	)

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	classifier, err := stance.NewHTTPClassifier(cfg.Stance.BaseURL, cfg.Stance.Timeout, cfg.Stance.Labels)
	if err != nil {
		return nil, fmt.Errorf("stance classifier: %w", err)
	}

	verdicts := pipeline.NewVerdictBuilder(
		retrieve.NewSelector(embedder),
		classifier,
		cfg.Selection.TopK,
		cfg.Selection.ContextWindow,
		cfg.Evidence.IsolatePassageErrors,
	)

	slog.Debug("pipeline ready",
		"extractor", extractor.Name(),
		"embedding_model", cfg.Embedding.Model,
		"stance_url", cfg.Stance.BaseURL,
		"link_mode", cfg.Evidence.LinkMode)

	return pipeline.New(extractor, aggregator, verdicts), nil
}

func newSearchProvider(ctx context.Context, cfg model.SearchConfig) (search.Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "google", "":
		provider, err := search.NewGoogleProvider(ctx, cfg.APIKey, cfg.EngineID, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("search provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: google)", cfg.Provider)
	}
}

func newEmbedder(cfg model.EmbeddingConfig) (embed.Embedder, error) {
	inner, err := embed.NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if cfg.CacheSize <= 0 {
		return inner, nil
	}
	cached, err := embed.NewCached(inner, cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return cached, nil
}
