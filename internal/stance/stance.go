// Package stance wraps a natural-language-inference classifier: it reads the
// classifier's label set and reduces its output to a dominant label.
package stance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/EunoiaC/Verify/internal/model"
)

// ErrNoLabels is returned when a label set is empty after validation
var ErrNoLabels = errors.New("classifier published no usable labels")

// LabelScore is the probability assigned to one label
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Distribution is a probability distribution over labels in the classifier's label order
type Distribution []LabelScore

// Dominant returns the highest-scoring label. Ties go to the label that comes first.
func (d Distribution) Dominant() (LabelScore, bool) {
	if len(d) == 0 {
		return LabelScore{}, false
	}
	best := d[0]
	for _, ls := range d[1:] {
		if ls.Score > best.Score {
			best = ls
		}
	}
	return best, true
}

// Map returns the distribution as a label to probability mapping
func (d Distribution) Map() map[string]float64 {
	m := make(map[string]float64, len(d))
	for _, ls := range d {
		m[ls.Label] = ls.Score
	}
	return m
}

// Classifier scores how a premise relates to a hypothesis
type Classifier interface {
	// Classify returns the label distribution for (premise, hypothesis).
	Classify(ctx context.Context, premise, hypothesis string) (Distribution, error)

	// Labels returns the classifier's validated label set in id order.
	Labels(ctx context.Context) ([]string, error)
}

// DominantLabel classifies premise against hypothesis and returns the winning label.
// The premise is whitespace-normalized before classification.
func DominantLabel(ctx context.Context, c Classifier, premise, hypothesis string) (string, error) {
	dist, err := c.Classify(ctx, NormalizeWhitespace(premise), hypothesis)
	if err != nil {
		return "", err
	}
	best, ok := dist.Dominant()
	if !ok {
		return "", fmt.Errorf("classifier returned an empty distribution")
	}
	return best.Label, nil
}

// IsNeutral reports whether label is the neutral stance
func IsNeutral(label string) bool {
	return strings.EqualFold(label, model.LabelNeutral)
}

// ValidateLabels trims and lowercases labels and rejects empty or duplicate entries
func ValidateLabels(labels []string) ([]string, error) {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))

	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			return nil, fmt.Errorf("empty label in %q", labels)
		}
		if seen[l] {
			return nil, fmt.Errorf("duplicate label %q", l)
		}
		seen[l] = true
		out = append(out, l)
	}

	if len(out) == 0 {
		return nil, ErrNoLabels
	}
	return out, nil
}

// NormalizeWhitespace collapses all whitespace runs to single spaces
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
