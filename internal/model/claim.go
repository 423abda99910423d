package model

// Claim represents a factual assertion extracted from a post
type Claim struct {
	Claim       string `json:"claim"`        // Concise claim text, used as the NLI hypothesis
	Span        string `json:"span"`         // Verbatim span of the source text expressing the claim
	Subject     string `json:"subject"`      // Subject of the (subject, predicate, object) triple
	Predicate   string `json:"predicate"`    // Relationship connecting subject and object
	Object      string `json:"object"`       // Object of the triple
	SearchQuery string `json:"search_query"` // Opaque search query produced by the extractor
}

// FindClaim returns the first claim whose text equals claimText
func FindClaim(claims []Claim, claimText string) (Claim, bool) {
	for _, c := range claims {
		if c.Claim == claimText {
			return c, true
		}
	}
	return Claim{}, false
}

// Post is the inbound request body
type Post struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Text returns the pipeline input: title and body joined by a newline when body is non-empty
func (p Post) Text() string {
	if p.Body == "" {
		return p.Title
	}
	return p.Title + "\n" + p.Body
}
