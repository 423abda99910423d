package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EunoiaC/Verify/internal/model"
	"github.com/EunoiaC/Verify/internal/stance"
)

// ContextSelector picks the passages of a document most relevant to a claim
type ContextSelector interface {
	Select(ctx context.Context, document, claim string, topK, window int) ([]model.Passage, error)
}

// VerdictBuilder classifies the selected passages of each document and keeps non-neutral findings.
// Calls into the selector and classifier are serialized across all requests sharing the builder;
// waiting for a turn respects the request context.
type VerdictBuilder struct {
	selector      ContextSelector
	classifier    stance.Classifier
	topK          int
	window        int
	isolateErrors bool
	logger        *slog.Logger

	// turn holds one token per in-flight model call
	turn chan struct{}
}

// NewVerdictBuilder creates a verdict builder.
// With isolateErrors set, a selector or classifier failure skips the document or passage instead of failing the request.
func NewVerdictBuilder(selector ContextSelector, classifier stance.Classifier, topK, window int, isolateErrors bool) *VerdictBuilder {
	return &VerdictBuilder{
		selector:      selector,
		classifier:    classifier,
		topK:          topK,
		window:        window,
		isolateErrors: isolateErrors,
		logger:        slog.Default().With("component", "verdict-builder"),
		turn:          make(chan struct{}, 1),
	}
}

// serialized runs fn once no other model call is in flight, or returns ctx's error first
func (b *VerdictBuilder) serialized(ctx context.Context, fn func() error) error {
	select {
	case b.turn <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-b.turn }()
	return fn()
}

// Build returns one verdict per (claim, document) pair with at least one non-neutral passage,
// in document order. Documents whose claim is not in claims are skipped.
func (b *VerdictBuilder) Build(ctx context.Context, claims []model.Claim, docs []model.Document) ([]model.ClaimVerdict, error) {
	verdicts := make([]model.ClaimVerdict, 0)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		claim, ok := model.FindClaim(claims, doc.Claim)
		if !ok {
			b.logger.Debug("document has no matching claim", "url", doc.URL, "claim", doc.Claim)
			continue
		}

		results, err := b.judgeDocument(ctx, claim, doc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !b.isolateErrors {
				return nil, err
			}
			b.logger.Warn("skipping document", "url", doc.URL, "err", err)
			continue
		}

		if len(results) == 0 {
			continue
		}

		verdicts = append(verdicts, model.ClaimVerdict{
			Claim:     claim.Claim,
			Span:      claim.Span,
			Results:   results,
			SourceURL: doc.URL,
		})
	}

	return verdicts, nil
}

func (b *VerdictBuilder) judgeDocument(ctx context.Context, claim model.Claim, doc model.Document) ([]model.StanceResult, error) {
	var passages []model.Passage
	err := b.serialized(ctx, func() error {
		var err error
		passages, err = b.selector.Select(ctx, doc.Text, claim.Claim, b.topK, b.window)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("select context: %w", err)
	}

	var results []model.StanceResult
	for _, p := range passages {
		var label string
		err := b.serialized(ctx, func() error {
			var err error
			label, err = stance.DominantLabel(ctx, b.classifier, p.Text, claim.Claim)
			return err
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !b.isolateErrors {
				return nil, fmt.Errorf("classify stance: %w", err)
			}
			b.logger.Warn("skipping passage", "url", doc.URL, "start", p.Start, "err", err)
			continue
		}

		if stance.IsNeutral(label) {
			continue
		}

		results = append(results, model.StanceResult{
			Context: p.Text,
			Label:   label,
		})
	}

	return results, nil
}
