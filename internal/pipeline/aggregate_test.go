package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EunoiaC/Verify/internal/model"
)

func TestDocumentSet_LastWriter(t *testing.T) {
	set := NewDocumentSet(model.LinkModeLastWriter)
	set.Put(model.Document{URL: "u1", Text: "one", Claim: "A"})
	set.Put(model.Document{URL: "u2", Text: "two", Claim: "A"})
	set.Put(model.Document{URL: "u1", Text: "one again", Claim: "B"})

	docs := set.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, model.Document{URL: "u1", Text: "one again", Claim: "B"}, docs[0])
	assert.Equal(t, "u2", docs[1].URL)
}

func TestDocumentSet_PerClaim(t *testing.T) {
	set := NewDocumentSet(model.LinkModePerClaim)
	set.Put(model.Document{URL: "u1", Text: "one", Claim: "A"})
	set.Put(model.Document{URL: "u1", Text: "one", Claim: "B"})
	set.Put(model.Document{URL: "u1", Text: "one", Claim: "A"})

	assert.Equal(t, 2, set.Len())
}

func TestAggregate_SharedURLLastWriter(t *testing.T) {
	source := &fakeSource{docs: map[string][]model.Document{
		"q1": {{URL: "shared", Text: "shared text"}, {URL: "only1", Text: "first only"}},
		"q2": {{URL: "shared", Text: "shared text"}},
	}}
	claims := []model.Claim{
		{Claim: "A", SearchQuery: "q1"},
		{Claim: "B", SearchQuery: "q2"},
	}

	docs, err := NewAggregator(source, 3, model.LinkModeLastWriter, 1).Aggregate(context.Background(), claims)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "shared", docs[0].URL)
	assert.Equal(t, "B", docs[0].Claim)
	assert.Equal(t, "only1", docs[1].URL)
	assert.Equal(t, "A", docs[1].Claim)
}

func TestAggregate_SharedURLPerClaim(t *testing.T) {
	source := &fakeSource{docs: map[string][]model.Document{
		"q1": {{URL: "shared", Text: "shared text"}},
		"q2": {{URL: "shared", Text: "shared text"}},
	}}
	claims := []model.Claim{
		{Claim: "A", SearchQuery: "q1"},
		{Claim: "B", SearchQuery: "q2"},
	}

	docs, err := NewAggregator(source, 3, model.LinkModePerClaim, 1).Aggregate(context.Background(), claims)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "A", docs[0].Claim)
	assert.Equal(t, "B", docs[1].Claim)
}

func TestAggregate_DuplicateQueryFetchedOnce(t *testing.T) {
	source := &fakeSource{docs: map[string][]model.Document{
		"same": {{URL: "u", Text: "text"}},
	}}
	claims := []model.Claim{
		{Claim: "A", SearchQuery: "same"},
		{Claim: "B", SearchQuery: " same "},
	}

	docs, err := NewAggregator(source, 3, model.LinkModePerClaim, 1).Aggregate(context.Background(), claims)
	require.NoError(t, err)

	assert.Equal(t, []string{"same"}, source.queries)
	assert.Len(t, docs, 2)
}

func TestAggregate_SkipsEmptyQuery(t *testing.T) {
	source := &fakeSource{docs: map[string][]model.Document{
		"q": {{URL: "u", Text: "text"}},
	}}
	claims := []model.Claim{
		{Claim: "A", SearchQuery: "   "},
		{Claim: "B", SearchQuery: "q"},
	}

	docs, err := NewAggregator(source, 3, "", 1).Aggregate(context.Background(), claims)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "B", docs[0].Claim)
	assert.Equal(t, []string{"q"}, source.queries)
}

func TestAggregate_NoClaims(t *testing.T) {
	docs, err := NewAggregator(&fakeSource{}, 3, "", 1).Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestAggregate_ConcurrentMatchesSequential(t *testing.T) {
	docsFor := map[string][]model.Document{
		"q1": {{URL: "a", Text: "a"}, {URL: "b", Text: "b"}},
		"q2": {{URL: "b", Text: "b"}, {URL: "c", Text: "c"}},
		"q3": {{URL: "d", Text: "d"}, {URL: "a", Text: "a"}},
	}
	claims := []model.Claim{
		{Claim: "A", SearchQuery: "q1"},
		{Claim: "B", SearchQuery: "q2"},
		{Claim: "C", SearchQuery: "q3"},
	}

	sequential, err := NewAggregator(&fakeSource{docs: docsFor}, 3, "", 1).Aggregate(context.Background(), claims)
	require.NoError(t, err)

	concurrent, err := NewAggregator(&fakeSource{docs: docsFor}, 3, "", 3).Aggregate(context.Background(), claims)
	require.NoError(t, err)

	assert.Equal(t, sequential, concurrent)
}

func TestAggregate_SourceErrorFails(t *testing.T) {
	boom := &UpstreamError{Stage: "search", Err: errors.New("quota exceeded")}
	source := &fakeSource{
		docs: map[string][]model.Document{"q1": {{URL: "u", Text: "t"}}},
		errs: map[string]error{"q2": boom},
	}
	claims := []model.Claim{
		{Claim: "A", SearchQuery: "q1"},
		{Claim: "B", SearchQuery: "q2"},
	}

	for _, workers := range []int{1, 2} {
		_, err := NewAggregator(source, 3, "", workers).Aggregate(context.Background(), claims)
		require.Error(t, err)
		assert.True(t, IsUpstreamError(err))
	}
}
