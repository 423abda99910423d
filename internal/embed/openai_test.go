package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newEmbeddingServer(t *testing.T, reverse bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		data := make([]map[string]any, 0, len(req.Input))
		for i, text := range req.Input {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(text)), float32(i)},
			})
		}
		if reverse {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}))
}

func TestOpenAIEmbedder_EmbedTexts(t *testing.T) {
	server := newEmbeddingServer(t, false)
	defer server.Close()

	embedder, err := NewOpenAIEmbedder(server.URL+"/v1", "", "test-model")
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{3, 1}, vectors[1])
}

func TestOpenAIEmbedder_OutOfOrderResponse(t *testing.T) {
	server := newEmbeddingServer(t, true)
	defer server.Close()

	embedder, err := NewOpenAIEmbedder(server.URL+"/v1/", "key", "test-model")
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"one", "three", "xx"})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 0}, vectors[0])
	assert.Equal(t, []float32{5, 1}, vectors[1])
	assert.Equal(t, []float32{2, 2}, vectors[2])
}

func TestOpenAIEmbedder_EmbedText(t *testing.T) {
	server := newEmbeddingServer(t, false)
	defer server.Close()

	embedder, err := NewOpenAIEmbedder(server.URL+"/v1", "", "test-model")
	require.NoError(t, err)

	vector, err := embedder.EmbedText(context.Background(), "four")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 0}, vector)
}

func TestOpenAIEmbedder_Empty(t *testing.T) {
	embedder, err := NewOpenAIEmbedder("http://127.0.0.1:1/v1", "", "test-model")
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	embedder, err := NewOpenAIEmbedder(server.URL+"/v1", "", "test-model")
	require.NoError(t, err)

	_, err = embedder.EmbedTexts(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestNewOpenAIEmbedder_RequiresModel(t *testing.T) {
	_, err := NewOpenAIEmbedder("http://localhost", "", "")
	assert.Error(t, err)
}
