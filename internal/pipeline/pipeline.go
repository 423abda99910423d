package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EunoiaC/Verify/internal/llm"
	"github.com/EunoiaC/Verify/internal/model"
)

// Pipeline runs claim extraction, evidence aggregation and stance classification for a post
type Pipeline struct {
	extractor  llm.Extractor
	aggregator *Aggregator
	verdicts   *VerdictBuilder
	logger     *slog.Logger
}

// New creates a pipeline from already initialized collaborators
func New(extractor llm.Extractor, aggregator *Aggregator, verdicts *VerdictBuilder) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		aggregator: aggregator,
		verdicts:   verdicts,
		logger:     slog.Default().With("component", "pipeline"),
	}
}

// Analyze checks the text of a post and wraps the verdicts in an Analysis
func (p *Pipeline) Analyze(ctx context.Context, post model.Post) (*model.Analysis, error) {
	verdicts, err := p.Check(ctx, post.Text())
	if err != nil {
		return nil, err
	}
	return &model.Analysis{PostID: post.ID, Analysis: verdicts}, nil
}

// Check extracts claims from text and returns the evidence-backed verdicts.
// An empty result is not an error.
func (p *Pipeline) Check(ctx context.Context, text string) ([]model.ClaimVerdict, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	claims, err := p.extractor.ExtractClaims(ctx, text)
	if err != nil {
		return nil, &UpstreamError{Stage: "extract claims", Err: err}
	}
	p.logger.Info("extracted claims", "count", len(claims), "provider", p.extractor.Name())

	if len(claims) == 0 {
		return []model.ClaimVerdict{}, nil
	}

	docs, err := p.aggregator.Aggregate(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("aggregate evidence: %w", err)
	}
	p.logger.Info("aggregated evidence", "documents", len(docs))

	verdicts, err := p.verdicts.Build(ctx, claims, docs)
	if err != nil {
		return nil, fmt.Errorf("build verdicts: %w", err)
	}
	p.logger.Info("built verdicts", "count", len(verdicts))

	return verdicts, nil
}
