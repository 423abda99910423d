package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/EunoiaC/Verify/internal/model"
)

var codeFence = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ParseClaims decodes extractor output into claims.
// Accepts a bare JSON array or an object with a "claims" array, optionally in a
// markdown code fence. Any claim missing its claim text or search query makes
// the whole output invalid.
func ParseClaims(raw string) ([]model.Claim, error) {
	payload := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(payload); m != nil {
		payload = m[1]
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedClaims)
	}

	var claims []model.Claim
	switch payload[0] {
	case '[':
		if err := json.Unmarshal([]byte(payload), &claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedClaims, err)
		}
	case '{':
		var wrapper struct {
			Claims *[]model.Claim `json:"claims"`
		}
		if err := json.Unmarshal([]byte(payload), &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedClaims, err)
		}
		if wrapper.Claims == nil {
			return nil, fmt.Errorf("%w: object has no claims field", ErrMalformedClaims)
		}
		claims = *wrapper.Claims
	default:
		return nil, fmt.Errorf("%w: not a JSON array or object", ErrMalformedClaims)
	}

	for i := range claims {
		c := &claims[i]
		c.Claim = strings.TrimSpace(c.Claim)
		c.SearchQuery = strings.TrimSpace(c.SearchQuery)
		if c.Claim == "" {
			return nil, fmt.Errorf("%w: claim %d has no claim text", ErrMalformedClaims, i)
		}
		if c.SearchQuery == "" {
			return nil, fmt.Errorf("%w: claim %d has no search query", ErrMalformedClaims, i)
		}
	}

	if claims == nil {
		claims = []model.Claim{}
	}
	return claims, nil
}
