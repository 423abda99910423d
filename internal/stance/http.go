package stance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/EunoiaC/Verify/internal/model"
)

// HTTPClassifier calls a sequence-classification inference server
// (text-embeddings-inference style: POST /predict, GET /info).
type HTTPClassifier struct {
	baseURL    string
	httpClient *http.Client
	override   []string
	logger     *slog.Logger

	mu      sync.Mutex
	labels  []string
	retryAt time.Time
}

// labelRetryInterval spaces out /info attempts while the server is unreachable
const labelRetryInterval = 30 * time.Second

// NewHTTPClassifier creates a classifier client.
// A non-empty labels list overrides the label set published by the server.
func NewHTTPClassifier(baseURL string, timeout time.Duration, labels []string) (*HTTPClassifier, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("stance classifier base URL is required")
	}

	c := &HTTPClassifier{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "stance-classifier"),
	}

	if len(labels) > 0 {
		validated, err := ValidateLabels(labels)
		if err != nil {
			return nil, fmt.Errorf("stance labels: %w", err)
		}
		c.override = validated
	}

	return c, nil
}

type infoResponse struct {
	ModelType struct {
		Classifier struct {
			ID2Label map[string]string `json:"id2label"`
		} `json:"classifier"`
	} `json:"model_type"`
}

// Labels returns the configured override, else the server's id2label ordered
// by id, else the default three-way label set.
func (c *HTTPClassifier) Labels(ctx context.Context) ([]string, error) {
	if c.override != nil {
		return c.override, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.labels != nil {
		return c.labels, nil
	}
	if time.Now().Before(c.retryAt) {
		return model.DefaultLabels, nil
	}

	labels, answered, err := c.fetchLabels(ctx)
	if err != nil {
		c.logger.Debug("label set unavailable, using defaults", "err", err)
		if answered {
			// Server answered without a usable label set
			c.labels = model.DefaultLabels
		} else {
			c.retryAt = time.Now().Add(labelRetryInterval)
		}
		return model.DefaultLabels, nil
	}

	c.labels = labels
	return labels, nil
}

// fetchLabels reads id2label from /info. answered reports whether the server sent a response.
func (c *HTTPClassifier) fetchLabels(ctx context.Context) (labels []string, answered bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/info", nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, true, fmt.Errorf("info returned status %d", resp.StatusCode)
	}

	var info infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, true, fmt.Errorf("decode info: %w", err)
	}

	labels, err = orderedLabels(info.ModelType.Classifier.ID2Label)
	return labels, true, err
}

// orderedLabels sorts an id2label mapping by numeric id and validates the result
func orderedLabels(id2label map[string]string) ([]string, error) {
	if len(id2label) == 0 {
		return nil, ErrNoLabels
	}

	type entry struct {
		id    int
		label string
	}
	entries := make([]entry, 0, len(id2label))
	for k, v := range id2label {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("non-numeric label id %q", k)
		}
		entries = append(entries, entry{id: id, label: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.label
	}
	return ValidateLabels(labels)
}

type predictRequest struct {
	Inputs [][2]string `json:"inputs"`
}

// Classify scores one (premise, hypothesis) pair.
func (c *HTTPClassifier) Classify(ctx context.Context, premise, hypothesis string) (Distribution, error) {
	labels, err := c.Labels(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(predictRequest{Inputs: [][2]string{{premise, hypothesis}}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier error (status %d): %s", resp.StatusCode, string(respBody))
	}

	scores, err := decodePrediction(respBody)
	if err != nil {
		return nil, err
	}

	return arrange(scores, labels), nil
}

// decodePrediction accepts either a flat [{label,score}] list or a batch [[{label,score}]]
func decodePrediction(body []byte) ([]LabelScore, error) {
	var batch [][]LabelScore
	if err := json.Unmarshal(body, &batch); err == nil {
		if len(batch) == 0 {
			return nil, fmt.Errorf("empty prediction")
		}
		return batch[0], nil
	}

	var flat []LabelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("empty prediction")
	}
	return flat, nil
}

// arrange orders scores by the label set; labels unknown to the set follow in response order
func arrange(scores []LabelScore, labels []string) Distribution {
	byLabel := make(map[string]float64, len(scores))
	var extra []LabelScore
	known := make(map[string]bool, len(labels))
	for _, l := range labels {
		known[l] = true
	}

	for _, s := range scores {
		label := strings.ToLower(strings.TrimSpace(s.Label))
		if known[label] {
			byLabel[label] = s.Score
		} else {
			extra = append(extra, LabelScore{Label: label, Score: s.Score})
		}
	}

	dist := make(Distribution, 0, len(labels)+len(extra))
	for _, l := range labels {
		if score, ok := byLabel[l]; ok {
			dist = append(dist, LabelScore{Label: l, Score: score})
		}
	}
	return append(dist, extra...)
}
