package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/EunoiaC/Verify/internal/model"
	"github.com/EunoiaC/Verify/internal/search"
	"github.com/EunoiaC/Verify/internal/worker"
)

// TextSource extracts readable text from a URL
type TextSource interface {
	ExtractText(ctx context.Context, rawURL string) (string, error)
}

// EvidenceFetcher searches for a query and extracts text from each result concurrently
type EvidenceFetcher struct {
	searcher       search.Provider
	texts          TextSource
	workers        int
	keywordResults int
	logger         *slog.Logger
}

// NewEvidenceFetcher creates an evidence fetcher.
// workers <= 0 runs one worker per result URL.
func NewEvidenceFetcher(searcher search.Provider, texts TextSource, workers, keywordResults int) *EvidenceFetcher {
	if keywordResults <= 0 {
		keywordResults = 5
	}
	return &EvidenceFetcher{
		searcher:       searcher,
		texts:          texts,
		workers:        workers,
		keywordResults: keywordResults,
		logger:         slog.Default().With("component", "evidence-fetcher"),
	}
}

// FetchForQuery returns the text of every result URL that could be extracted, keyed by URL.
// Per-URL failures are logged and skipped; only search provider errors are returned.
func (f *EvidenceFetcher) FetchForQuery(ctx context.Context, query string, maxURLs int) (map[string]string, error) {
	docs, err := f.Fetch(ctx, query, maxURLs)
	if err != nil {
		return nil, err
	}

	texts := make(map[string]string, len(docs))
	for _, d := range docs {
		texts[d.URL] = d.Text
	}
	return texts, nil
}

// FetchForKeywords runs FetchForQuery on the space-joined keywords.
// maxURLs <= 0 uses the configured keyword result count.
func (f *EvidenceFetcher) FetchForKeywords(ctx context.Context, keywords []string, maxURLs int) (map[string]string, error) {
	if maxURLs <= 0 {
		maxURLs = f.keywordResults
	}
	return f.FetchForQuery(ctx, strings.Join(keywords, " "), maxURLs)
}

// Fetch is FetchForQuery returning documents in search rank order
func (f *EvidenceFetcher) Fetch(ctx context.Context, query string, maxURLs int) ([]model.Document, error) {
	urls, err := f.searcher.Search(ctx, query, maxURLs)
	if err != nil {
		return nil, &UpstreamError{Stage: "search", Err: err}
	}

	urls = dedupeURLs(urls)
	if maxURLs > 0 && len(urls) > maxURLs {
		urls = urls[:maxURLs]
	}
	if len(urls) == 0 {
		f.logger.Debug("no search results", "query", query)
		return []model.Document{}, nil
	}

	workers := f.workers
	if workers <= 0 || workers > len(urls) {
		workers = len(urls)
	}

	jobs := make([]worker.Job, len(urls))
	for i, u := range urls {
		jobs[i] = &extractJob{index: i, url: u, texts: f.texts}
	}

	results := worker.NewPool(ctx, workers).Run(jobs)

	extracted := make([]*extractResult, 0, len(results))
	for _, r := range results {
		res := r.(*extractResult)
		if res.err != nil {
			f.logger.Warn("evidence fetch failed", "url", res.url, "err", res.err)
			continue
		}
		extracted = append(extracted, res)
	}
	sort.Slice(extracted, func(i, j int) bool { return extracted[i].index < extracted[j].index })

	docs := make([]model.Document, len(extracted))
	for i, res := range extracted {
		docs[i] = model.Document{URL: res.url, Text: res.text}
	}

	f.logger.Debug("fetched evidence", "query", query, "urls", len(urls), "documents", len(docs))
	return docs, nil
}

type extractJob struct {
	index int
	url   string
	texts TextSource
}

func (j *extractJob) Execute(ctx context.Context) worker.Result {
	text, err := j.texts.ExtractText(ctx, j.url)
	return &extractResult{index: j.index, url: j.url, text: text, err: err}
}

type extractResult struct {
	index int
	url   string
	text  string
	err   error
}

func (r *extractResult) GetError() error {
	return r.err
}

func dedupeURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
