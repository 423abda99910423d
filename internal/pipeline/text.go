package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/EunoiaC/Verify/internal/cache"
	"github.com/EunoiaC/Verify/internal/extract"
)

// ErrEmptyDocument is returned when a page yields no readable text
var ErrEmptyDocument = errors.New("no readable text")

// TextExtractor fetches a URL and extracts its main body text
type TextExtractor struct {
	fetcher *Fetcher
	cache   cache.TextCache
}

// NewTextExtractor creates a text extractor. textCache may be nil.
func NewTextExtractor(fetcher *Fetcher, textCache cache.TextCache) *TextExtractor {
	return &TextExtractor{fetcher: fetcher, cache: textCache}
}

// ExtractText returns the readable text of rawURL
func (e *TextExtractor) ExtractText(ctx context.Context, rawURL string) (string, error) {
	if e.cache != nil {
		if text, ok := e.cache.Get(rawURL); ok {
			return text, nil
		}
	}

	result, err := e.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text, err := pageText(result)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyDocument
	}

	if e.cache != nil {
		e.cache.Set(rawURL, text)
	}
	return text, nil
}

func pageText(result *FetchResult) (string, error) {
	contentType := strings.ToLower(result.ContentType)

	if strings.HasPrefix(contentType, "text/plain") {
		return strings.TrimSpace(result.HTML), nil
	}
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "xml") {
		return "", fmt.Errorf("unsupported content type: %s", result.ContentType)
	}

	text, err := extract.MainText(result.HTML)
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}
	return text, nil
}
