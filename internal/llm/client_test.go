package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:        srv.URL + "/v1",
		APIKey:         "ollama",
		Model:          "deepseek-r1:1.5b",
		EmbeddingModel: "nomic-embed-text",
		EmbeddingDim:   3,
		Temperature:    0.3,
		Timeout:        5 * time.Second,
	})
}

func TestClient_Generate(t *testing.T) {
	var got map[string]any
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"<think>hmm</think>{\"drug\":\"imatinib\"}"}}],"usage":{"prompt_tokens":3,"completion_tokens":5,"total_tokens":8}}`))
	})

	out, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `<think>hmm</think>{"drug":"imatinib"}`, out)

	assert.Equal(t, "deepseek-r1:1.5b", got["model"])
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1, "single-turn prompt has no system message")
	assert.InDelta(t, 0.3, got["temperature"], 1e-6)
}

func TestClient_GenerateIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model not loaded"}}`))
	})

	_, err := c.Generate(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Embed(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]},{"object":"embedding","index":1,"embedding":[0.4,0.5,0.6]}]}`))
	})

	vecs, err := c.Embed(context.Background(), []string{"Imatinib", "Aspirin"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, vecs[1])
	assert.Equal(t, 3, c.Dimension())

	none, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}
