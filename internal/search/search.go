// Package search finds candidate evidence URLs for a query.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Provider returns result URLs for a query, ordered by provider relevance
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Google Custom Search accepts between 1 and 10 results per request
const (
	minGoogleResults = 1
	maxGoogleResults = 10
)

// GoogleProvider queries the Google Custom Search JSON API
type GoogleProvider struct {
	svc      *customsearch.Service
	engineID string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewGoogleProvider creates a provider for the given API key and search engine id.
// Extra client options are appended after the API key.
func NewGoogleProvider(ctx context.Context, apiKey, engineID string, timeout time.Duration, opts ...option.ClientOption) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google search API key is required")
	}
	if engineID == "" {
		return nil, fmt.Errorf("google search engine id is required")
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}

	return &GoogleProvider{
		svc:      svc,
		engineID: engineID,
		timeout:  timeout,
		logger:   slog.Default().With("component", "google-search"),
	}, nil
}

// Search returns up to limit result links in rank order
func (g *GoogleProvider) Search(ctx context.Context, query string, limit int) ([]string, error) {
	limit = clampResults(limit)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	res, err := g.svc.Cse.List().
		Cx(g.engineID).
		Q(query).
		Num(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}

	urls := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}

	g.logger.Debug("search complete", "query", query, "results", len(urls))
	return urls, nil
}

func clampResults(n int) int {
	return min(max(n, minGoogleResults), maxGoogleResults)
}
