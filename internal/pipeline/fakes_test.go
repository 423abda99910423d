package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/EunoiaC/Verify/internal/model"
	"github.com/EunoiaC/Verify/internal/stance"
)

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]string
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	urls := f.results[query]
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	return urls, nil
}

type fakeTexts struct {
	texts map[string]string
}

func (f *fakeTexts) ExtractText(_ context.Context, rawURL string) (string, error) {
	text, ok := f.texts[rawURL]
	if !ok {
		return "", errors.New("connection refused")
	}
	return text, nil
}

type fakeSource struct {
	mu      sync.Mutex
	docs    map[string][]model.Document
	errs    map[string]error
	queries []string
}

func (f *fakeSource) Fetch(_ context.Context, query string, _ int) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return append([]model.Document(nil), f.docs[query]...), nil
}

type fakeExtractor struct {
	claims []model.Claim
	err    error
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) ExtractClaims(context.Context, string) ([]model.Claim, error) {
	return f.claims, f.err
}

// fixedSelector returns one passage per document, the whole text
type fixedSelector struct {
	err error
}

func (s *fixedSelector) Select(_ context.Context, document, _ string, _, _ int) ([]model.Passage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if document == "" {
		return []model.Passage{}, nil
	}
	return []model.Passage{{Text: document, Start: 0, End: 1}}, nil
}

// funcClassifier labels a premise with a caller-supplied function
type funcClassifier struct {
	label    func(premise string) (stance.Distribution, error)
	premises []string
}

func (c *funcClassifier) Classify(_ context.Context, premise, _ string) (stance.Distribution, error) {
	c.premises = append(c.premises, premise)
	return c.label(premise)
}

func (c *funcClassifier) Labels(context.Context) ([]string, error) {
	return model.DefaultLabels, nil
}

func distribution(entailment, neutral, contradiction float64) stance.Distribution {
	return stance.Distribution{
		{Label: model.LabelEntailment, Score: entailment},
		{Label: model.LabelNeutral, Score: neutral},
		{Label: model.LabelContradiction, Score: contradiction},
	}
}

func alwaysNeutral() *funcClassifier {
	return &funcClassifier{label: func(string) (stance.Distribution, error) {
		return distribution(0.1, 0.8, 0.1), nil
	}}
}

func alwaysEntails() *funcClassifier {
	return &funcClassifier{label: func(string) (stance.Distribution, error) {
		return distribution(0.9, 0.05, 0.05), nil
	}}
}
