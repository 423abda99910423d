// Package retrieve selects the passages of a document most relevant to a claim.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/EunoiaC/Verify/internal/embed"
	"github.com/EunoiaC/Verify/internal/extract"
	"github.com/EunoiaC/Verify/internal/model"
)

// Selector ranks document sentences by semantic similarity to a claim and
// returns non-overlapping, context-padded passages in document order.
type Selector struct {
	embedder embed.Embedder
	logger   *slog.Logger
}

// NewSelector creates a selector backed by the given embedder
func NewSelector(embedder embed.Embedder) *Selector {
	return &Selector{
		embedder: embedder,
		logger:   slog.Default().With("component", "context-selector"),
	}
}

// Select returns at most topK passages from document for claim.
// Each passage covers the sentences [center-window, center+window] clipped to
// the document, passages never overlap, and the result is ordered by start.
// A document without usable sentences yields an empty result.
func (s *Selector) Select(ctx context.Context, document, claim string, topK, window int) ([]model.Passage, error) {
	return s.SelectSentences(ctx, extract.SplitSentences(document), claim, topK, window)
}

// SelectSentences runs selection over already segmented sentences
func (s *Selector) SelectSentences(ctx context.Context, sentences []string, claim string, topK, window int) ([]model.Passage, error) {
	if len(sentences) == 0 || topK <= 0 {
		return []model.Passage{}, nil
	}
	if window < 0 {
		window = 0
	}

	claimVec, err := s.embedder.EmbedText(ctx, claim)
	if err != nil {
		return nil, fmt.Errorf("embed claim: %w", err)
	}

	sentenceVecs, err := s.embedder.EmbedTexts(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", err)
	}
	if len(sentenceVecs) != len(sentences) {
		return nil, fmt.Errorf("embed sentences: got %d vectors for %d sentences", len(sentenceVecs), len(sentences))
	}

	scores := make([]float64, len(sentences))
	for i, v := range sentenceVecs {
		scores[i] = CosineSimilarity(claimVec, v)
	}

	passages := pickPassages(sentences, scores, topK, window)

	s.logger.Debug("selected passages",
		"sentences", len(sentences),
		"passages", len(passages))

	return passages, nil
}

// pickPassages oversamples 2*topK seeds by descending score, accepts seeds
// whose window does not intersect an accepted one, and orders the result by start.
func pickPassages(sentences []string, scores []float64, topK, window int) []model.Passage {
	n := len(sentences)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// Equal scores keep ascending sentence index
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	seeds := order
	if limit := 2 * topK; limit < n {
		seeds = order[:limit]
	}

	accepted := make([]model.Passage, 0, topK)
	for _, center := range seeds {
		if len(accepted) >= topK {
			break
		}

		start := max(0, center-window)
		end := min(n, center+window+1)

		if overlapsAny(accepted, start, end) {
			continue
		}

		accepted = append(accepted, model.Passage{
			Text:   strings.Join(sentences[start:end], " "),
			Start:  start,
			End:    end,
			Center: center,
			Score:  scores[center],
		})
	}

	sort.SliceStable(accepted, func(a, b int) bool {
		return accepted[a].Start < accepted[b].Start
	})

	return accepted
}

func overlapsAny(passages []model.Passage, start, end int) bool {
	for _, p := range passages {
		if p.Overlaps(start, end) {
			return true
		}
	}
	return false
}
