package model

// Document is fetched evidence: plain text of one URL linked to the claim whose query produced it
type Document struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Claim string `json:"claim"` // Claim text recorded at fetch time
}

// Passage is a half-open sentence range [Start, End) selected from a document
type Passage struct {
	Text   string  `json:"text"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Center int     `json:"center"` // Top-scoring sentence the window was built around
	Score  float64 `json:"score"`  // Cosine similarity of the center sentence to the claim
}

// Overlaps reports whether two half-open ranges intersect
func (p Passage) Overlaps(start, end int) bool {
	return !(p.End <= start || p.Start >= end)
}

// Stance labels produced by the NLI classifier
const (
	LabelEntailment    = "entailment"
	LabelNeutral       = "neutral"
	LabelContradiction = "contradiction"
)

// DefaultLabels is the label order used when the classifier does not publish its own
var DefaultLabels = []string{LabelEntailment, LabelNeutral, LabelContradiction}
