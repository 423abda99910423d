package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EunoiaC/Verify/internal/llm"
	"github.com/EunoiaC/Verify/internal/model"
	"github.com/EunoiaC/Verify/internal/retrieve"
	"github.com/EunoiaC/Verify/internal/stance"
)

// wordEmbedder embeds text as a bag of lowercase words over a fixed vocabulary
type wordEmbedder struct{}

var vocabulary = []string{"eiffel", "tower", "330", "meters", "tall", "paris", "opened", "1889"}

func (wordEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, len(vocabulary))
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:")
		for i, vocab := range vocabulary {
			if w == vocab {
				v[i]++
			}
		}
	}
	return v, nil
}

func (e wordEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.EmbedText(ctx, t)
	}
	return out, nil
}

const eiffelEvidence = "The Eiffel Tower stands 330 meters tall, as confirmed by official measurements."

func eiffelClassifier() *funcClassifier {
	return &funcClassifier{label: func(premise string) (stance.Distribution, error) {
		if strings.Contains(premise, "330 meters") {
			return distribution(0.92, 0.05, 0.03), nil
		}
		return distribution(0.1, 0.8, 0.1), nil
	}}
}

func newEiffelPipeline(extractor llm.Extractor, searcher *fakeSearcher, texts *fakeTexts) *Pipeline {
	fetcher := NewEvidenceFetcher(searcher, texts, 0, 5)
	aggregator := NewAggregator(fetcher, 3, model.LinkModeLastWriter, 1)
	verdicts := NewVerdictBuilder(retrieve.NewSelector(wordEmbedder{}), eiffelClassifier(), 2, 1, true)
	return New(extractor, aggregator, verdicts)
}

func eiffelClaim() model.Claim {
	return model.Claim{
		Claim:       "The Eiffel Tower is 330 meters tall.",
		Span:        "The Eiffel Tower is 330 meters tall.",
		Subject:     "Eiffel Tower",
		Predicate:   "height",
		Object:      "330 meters",
		SearchQuery: "Eiffel Tower height",
	}
}

func TestCheck_EndToEnd(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]string{
		"Eiffel Tower height": {"https://example.com/eiffel"},
	}}
	texts := &fakeTexts{texts: map[string]string{"https://example.com/eiffel": eiffelEvidence}}

	p := newEiffelPipeline(&fakeExtractor{claims: []model.Claim{eiffelClaim()}}, searcher, texts)

	verdicts, err := p.Check(context.Background(), "The Eiffel Tower is 330 meters tall.")
	require.NoError(t, err)

	require.Len(t, verdicts, 1)
	v := verdicts[0]
	assert.Equal(t, "The Eiffel Tower is 330 meters tall.", v.Claim)
	assert.Equal(t, "The Eiffel Tower is 330 meters tall.", v.Span)
	assert.Equal(t, "https://example.com/eiffel", v.SourceURL)
	require.Len(t, v.Results, 1)
	assert.Equal(t, eiffelEvidence, v.Results[0].Context)
	assert.Equal(t, model.LabelEntailment, v.Results[0].Label)
}

func TestCheck_SkipsUnfetchableURLs(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]string{
		"Eiffel Tower height": {"https://down.example/1", "https://example.com/eiffel", "https://down.example/2"},
	}}
	texts := &fakeTexts{texts: map[string]string{"https://example.com/eiffel": eiffelEvidence}}

	p := newEiffelPipeline(&fakeExtractor{claims: []model.Claim{eiffelClaim()}}, searcher, texts)

	verdicts, err := p.Check(context.Background(), "The Eiffel Tower is 330 meters tall.")
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, "https://example.com/eiffel", verdicts[0].SourceURL)
}

func TestCheck_EmptyInput(t *testing.T) {
	p := newEiffelPipeline(&fakeExtractor{}, &fakeSearcher{}, &fakeTexts{})

	_, err := p.Check(context.Background(), "  \n ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestCheck_ExtractorErrorIsUpstream(t *testing.T) {
	extractor := &fakeExtractor{err: llm.ErrMalformedClaims}
	p := newEiffelPipeline(extractor, &fakeSearcher{}, &fakeTexts{})

	_, err := p.Check(context.Background(), "Some text.")
	require.Error(t, err)
	assert.True(t, IsUpstreamError(err))
	assert.True(t, errors.Is(err, llm.ErrMalformedClaims))
}

func TestCheck_NoClaims(t *testing.T) {
	searcher := &fakeSearcher{}
	p := newEiffelPipeline(&fakeExtractor{claims: []model.Claim{}}, searcher, &fakeTexts{})

	verdicts, err := p.Check(context.Background(), "Nothing checkable here.")
	require.NoError(t, err)
	assert.NotNil(t, verdicts)
	assert.Empty(t, verdicts)
	assert.Empty(t, searcher.queries)
}

func TestCheck_SearchErrorIsUpstream(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("quota exceeded")}
	p := newEiffelPipeline(&fakeExtractor{claims: []model.Claim{eiffelClaim()}}, searcher, &fakeTexts{})

	_, err := p.Check(context.Background(), "The Eiffel Tower is 330 meters tall.")
	require.Error(t, err)
	assert.True(t, IsUpstreamError(err))
}

func TestAnalyze_WrapsPostID(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]string{
		"Eiffel Tower height": {"https://example.com/eiffel"},
	}}
	texts := &fakeTexts{texts: map[string]string{"https://example.com/eiffel": eiffelEvidence}}

	p := newEiffelPipeline(&fakeExtractor{claims: []model.Claim{eiffelClaim()}}, searcher, texts)

	analysis, err := p.Analyze(context.Background(), model.Post{ID: "post-1", Title: "The Eiffel Tower is 330 meters tall."})
	require.NoError(t, err)
	assert.Equal(t, "post-1", analysis.PostID)
	assert.Len(t, analysis.Analysis, 1)
}

func TestCheck_ThroughHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><article><p>` + eiffelEvidence + `</p><p>The tower is located in Paris.</p></article></body></html>`))
	}))
	defer server.Close()

	searcher := &fakeSearcher{results: map[string][]string{"Eiffel Tower height": {server.URL}}}
	fetcher := NewEvidenceFetcher(searcher, NewTextExtractor(newTestFetcher(), nil), 0, 5)
	p := New(
		&fakeExtractor{claims: []model.Claim{eiffelClaim()}},
		NewAggregator(fetcher, 3, "", 1),
		NewVerdictBuilder(retrieve.NewSelector(wordEmbedder{}), eiffelClassifier(), 1, 0, true),
	)

	verdicts, err := p.Check(context.Background(), "The Eiffel Tower is 330 meters tall.")
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	require.Len(t, verdicts[0].Results, 1)
	assert.Equal(t, eiffelEvidence, verdicts[0].Results[0].Context)
	assert.Equal(t, server.URL, verdicts[0].SourceURL)
}
