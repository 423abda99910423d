package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/EunoiaC/Verify/internal/model"
)

// DocumentSource returns the documents for one search query in rank order
type DocumentSource interface {
	Fetch(ctx context.Context, query string, maxURLs int) ([]model.Document, error)
}

// DocumentSet is an insertion-ordered set of documents.
// In last-writer mode a URL maps to one document and a later claim replaces the
// earlier link in place; in per-claim mode each (URL, claim) pair is kept.
type DocumentSet struct {
	perClaim bool
	order    []string
	docs     map[string]*model.Document
}

// NewDocumentSet creates an empty set for the given link mode
func NewDocumentSet(linkMode string) *DocumentSet {
	return &DocumentSet{
		perClaim: linkMode == model.LinkModePerClaim,
		docs:     make(map[string]*model.Document),
	}
}

func (s *DocumentSet) key(doc model.Document) string {
	if s.perClaim {
		return doc.URL + "\x00" + doc.Claim
	}
	return doc.URL
}

// Put adds doc, replacing the text and claim of an existing entry with the same key
func (s *DocumentSet) Put(doc model.Document) {
	k := s.key(doc)
	if existing, ok := s.docs[k]; ok {
		*existing = doc
		return
	}
	d := doc
	s.docs[k] = &d
	s.order = append(s.order, k)
}

// Documents returns the documents in first-insertion order
func (s *DocumentSet) Documents() []model.Document {
	out := make([]model.Document, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, *s.docs[k])
	}
	return out
}

// Len returns the number of documents
func (s *DocumentSet) Len() int {
	return len(s.order)
}

// Aggregator gathers evidence documents for every claim
type Aggregator struct {
	source          DocumentSource
	resultsPerQuery int
	linkMode        string
	queryWorkers    int
	logger          *slog.Logger
}

// NewAggregator creates an aggregator.
// queryWorkers <= 1 fetches queries one after another.
func NewAggregator(source DocumentSource, resultsPerQuery int, linkMode string, queryWorkers int) *Aggregator {
	if resultsPerQuery <= 0 {
		resultsPerQuery = 3
	}
	if linkMode == "" {
		linkMode = model.LinkModeLastWriter
	}
	return &Aggregator{
		source:          source,
		resultsPerQuery: resultsPerQuery,
		linkMode:        linkMode,
		queryWorkers:    queryWorkers,
		logger:          slog.Default().With("component", "aggregator"),
	}
}

// Aggregate fetches evidence for each claim's search query and merges it in claim order.
// A search provider error fails the whole aggregation.
func (a *Aggregator) Aggregate(ctx context.Context, claims []model.Claim) ([]model.Document, error) {
	queries := distinctQueries(claims)

	fetched, err := a.fetchQueries(ctx, queries)
	if err != nil {
		return nil, err
	}

	set := NewDocumentSet(a.linkMode)
	for _, c := range claims {
		q := strings.TrimSpace(c.SearchQuery)
		if q == "" {
			a.logger.Debug("claim has no search query", "claim", c.Claim)
			continue
		}
		for _, doc := range fetched[q] {
			doc.Claim = c.Claim
			set.Put(doc)
		}
	}

	a.logger.Debug("aggregated evidence", "claims", len(claims), "queries", len(queries), "documents", set.Len())
	return set.Documents(), nil
}

func (a *Aggregator) fetchQueries(ctx context.Context, queries []string) (map[string][]model.Document, error) {
	results := make([][]model.Document, len(queries))
	errs := make([]error, len(queries))

	if a.queryWorkers <= 1 || len(queries) <= 1 {
		for i, q := range queries {
			results[i], errs[i] = a.source.Fetch(ctx, q, a.resultsPerQuery)
			if errs[i] != nil {
				break
			}
		}
	} else {
		pool, err := ants.NewPool(min(a.queryWorkers, len(queries)))
		if err != nil {
			return nil, fmt.Errorf("create query pool: %w", err)
		}
		defer pool.Release()

		var wg sync.WaitGroup
		for i, q := range queries {
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				results[i], errs[i] = a.source.Fetch(ctx, q, a.resultsPerQuery)
			}); err != nil {
				wg.Done()
				errs[i] = fmt.Errorf("submit query: %w", err)
			}
		}
		wg.Wait()
	}

	fetched := make(map[string][]model.Document, len(queries))
	for i, q := range queries {
		if errs[i] != nil {
			return nil, errs[i]
		}
		fetched[q] = results[i]
	}
	return fetched, nil
}

// distinctQueries returns the non-empty search queries of claims in first-seen order
func distinctQueries(claims []model.Claim) []string {
	seen := make(map[string]bool, len(claims))
	var queries []string
	for _, c := range claims {
		q := strings.TrimSpace(c.SearchQuery)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	return queries
}
