package pipeline

import "errors"

// ErrEmptyInput is returned for a post with no title or body text
var ErrEmptyInput = errors.New("empty input text")

// UpstreamError wraps a failure of an upstream collaborator (claim extractor, search provider)
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstreamError reports whether err was caused by an upstream collaborator
func IsUpstreamError(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}
