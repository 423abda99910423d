package retrieve

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EunoiaC/Verify/internal/extract"
)

const testClaim = "The claim under test."

// tableEmbedder maps each sentence to a vector whose cosine with the claim equals its table score
type tableEmbedder struct {
	scores map[string]float64
	calls  int
	err    error
}

func (e *tableEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *tableEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *tableEmbedder) vector(text string) []float32 {
	if text == testClaim {
		return []float32{1, 0}
	}
	s := e.scores[text]
	return []float32{float32(s), float32(math.Sqrt(1 - s*s))}
}

// hashEmbedder produces deterministic pseudo-random vectors from text
type hashEmbedder struct{}

func (hashEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return hashVector(text), nil
}

func (hashEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashVector(text)
	}
	return out, nil
}

func hashVector(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()

	v := make([]float32, 16)
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%1000)/500.0 - 1
	}
	return v
}

func sentences(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Sentence number %d is long enough.", i)
	}
	return out
}

func embedderFor(sents []string, scores ...float64) *tableEmbedder {
	table := make(map[string]float64, len(sents))
	for i, s := range sents {
		table[s] = scores[i]
	}
	return &tableEmbedder{scores: table}
}

func TestSelect_OverlapSuppression(t *testing.T) {
	sents := sentences(6)
	embedder := embedderFor(sents, 0.1, 0.9, 0.8, 0.2, 0.7, 0.3)
	selector := NewSelector(embedder)

	passages, err := selector.Select(context.Background(), strings.Join(sents, " "), testClaim, 2, 1)
	require.NoError(t, err)
	require.Len(t, passages, 2)

	assert.Equal(t, 0, passages[0].Start)
	assert.Equal(t, 3, passages[0].End)
	assert.Equal(t, 1, passages[0].Center)
	assert.Equal(t, strings.Join(sents[0:3], " "), passages[0].Text)
	assert.InDelta(t, 0.9, passages[0].Score, 1e-6)

	assert.Equal(t, 3, passages[1].Start)
	assert.Equal(t, 6, passages[1].End)
	assert.Equal(t, 4, passages[1].Center)
}

func TestSelect_OrderedByPositionNotScore(t *testing.T) {
	sents := sentences(8)
	embedder := embedderFor(sents, 0.5, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.95)
	selector := NewSelector(embedder)

	passages, err := selector.Select(context.Background(), strings.Join(sents, " "), testClaim, 2, 1)
	require.NoError(t, err)
	require.Len(t, passages, 2)

	assert.Equal(t, 0, passages[0].Center)
	assert.Equal(t, 7, passages[1].Center)
	assert.Greater(t, passages[1].Score, passages[0].Score)
}

func TestSelect_SeedsExhaustedByOverlap(t *testing.T) {
	sents := sentences(4)
	embedder := embedderFor(sents, 0.9, 0.8, 0.7, 0.6)
	selector := NewSelector(embedder)

	passages, err := selector.Select(context.Background(), strings.Join(sents, " "), testClaim, 2, 2)
	require.NoError(t, err)
	require.Len(t, passages, 1)

	assert.Equal(t, 0, passages[0].Start)
	assert.Equal(t, 3, passages[0].End)
}

func TestSelect_TopKOne(t *testing.T) {
	sents := sentences(5)
	embedder := embedderFor(sents, 0.1, 0.9, 0.8, 0.1, 0.7)
	selector := NewSelector(embedder)

	passages, err := selector.Select(context.Background(), strings.Join(sents, " "), testClaim, 1, 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, 1, passages[0].Center)
}

func TestSelect_TiesPreferLowerIndex(t *testing.T) {
	sents := sentences(5)
	embedder := embedderFor(sents, 0.5, 0.5, 0.5, 0.5, 0.5)
	selector := NewSelector(embedder)

	passages, err := selector.Select(context.Background(), strings.Join(sents, " "), testClaim, 2, 0)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, 0, passages[0].Center)
	assert.Equal(t, 1, passages[1].Center)
	assert.Equal(t, sents[0], passages[0].Text)
}

func TestSelect_WindowClippedAtBoundaries(t *testing.T) {
	sents := sentences(3)
	embedder := embedderFor(sents, 0.9, 0.1, 0.1)
	selector := NewSelector(embedder)

	passages, err := selector.Select(context.Background(), strings.Join(sents, " "), testClaim, 1, 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, 0, passages[0].Start)
	assert.Equal(t, 2, passages[0].End)
}

func TestSelect_ShortSentencesOnly(t *testing.T) {
	embedder := &tableEmbedder{}
	selector := NewSelector(embedder)

	passages, err := selector.Select(context.Background(), "Short. Tiny. Nope. Ok now.", testClaim, 2, 1)
	require.NoError(t, err)
	assert.NotNil(t, passages)
	assert.Empty(t, passages)
	assert.Equal(t, 0, embedder.calls)
}

func TestSelect_EmptyDocument(t *testing.T) {
	selector := NewSelector(&tableEmbedder{})

	passages, err := selector.Select(context.Background(), "", testClaim, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestSelect_NonPositiveTopK(t *testing.T) {
	sents := sentences(3)
	selector := NewSelector(embedderFor(sents, 0.1, 0.2, 0.3))

	passages, err := selector.Select(context.Background(), strings.Join(sents, " "), testClaim, 0, 1)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestSelect_EmbedderError(t *testing.T) {
	selector := NewSelector(&tableEmbedder{err: errors.New("model unavailable")})

	_, err := selector.Select(context.Background(), strings.Join(sentences(3), " "), testClaim, 2, 1)
	assert.Error(t, err)
}

var vocabulary = []string{
	"tower", "meters", "Paris", "iron", "tall", "built", "visitors", "year",
	"engineer", "structure", "height", "official", "measurement", "city", "river",
}

func randomDocument(rng *rand.Rand) string {
	n := rng.Intn(20)
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		words := 1 + rng.Intn(8)
		w := make([]string, words)
		for j := range w {
			w[j] = vocabulary[rng.Intn(len(vocabulary))]
		}
		parts = append(parts, "The "+strings.Join(w, " ")+".")
	}
	return strings.Join(parts, " ")
}

func TestSelect_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	selector := NewSelector(hashEmbedder{})

	for iter := 0; iter < 300; iter++ {
		doc := randomDocument(rng)
		topK := 1 + rng.Intn(4)
		window := rng.Intn(3)
		valid := len(extract.SplitSentences(doc))

		passages, err := selector.Select(context.Background(), doc, "The tower is 330 meters tall.", topK, window)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(passages), topK)
		assert.LessOrEqual(t, len(passages), valid)

		for i := range passages {
			assert.Less(t, passages[i].Start, passages[i].End)
			assert.LessOrEqual(t, passages[i].Start, passages[i].Center)
			assert.Less(t, passages[i].Center, passages[i].End)
			assert.LessOrEqual(t, passages[i].End, valid)

			if i > 0 {
				assert.LessOrEqual(t, passages[i-1].Start, passages[i].Start)
			}
			for j := i + 1; j < len(passages); j++ {
				assert.False(t, passages[i].Overlaps(passages[j].Start, passages[j].End),
					"passages %v and %v overlap", passages[i], passages[j])
			}
		}
	}
}

func TestSelect_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	selector := NewSelector(hashEmbedder{})

	for iter := 0; iter < 50; iter++ {
		doc := randomDocument(rng)

		first, err := selector.Select(context.Background(), doc, "The tower is tall.", 2, 1)
		require.NoError(t, err)
		second, err := selector.Select(context.Background(), doc, "The tower is tall.", 2, 1)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}
