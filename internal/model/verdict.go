package model

// StanceResult is one non-neutral passage and its dominant label
type StanceResult struct {
	Context string `json:"context"`
	Label   string `json:"label"`
}

// ClaimVerdict is the aggregated non-neutral evidence for one claim against one source document
type ClaimVerdict struct {
	Claim     string         `json:"claim"`
	Span      string         `json:"span"`
	Results   []StanceResult `json:"results"`
	SourceURL string         `json:"source_url"`
}

// Analysis is the outbound response for one post
type Analysis struct {
	PostID   string         `json:"post_id"`
	Analysis []ClaimVerdict `json:"analysis"`
}
