package redis

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespace(t *testing.T) {
	assert.Equal(t, "ot:search", namespace("ot:search:3f2a"))
	assert.Equal(t, "embedding", namespace("embedding:abc"))
	assert.Equal(t, "default", namespace("plain"))
}

// Runs against a live server when BIOINSIGHT_TEST_REDIS is host:port.
func TestClient_RoundTrip(t *testing.T) {
	addr := os.Getenv("BIOINSIGHT_TEST_REDIS")
	if addr == "" {
		t.Skip("BIOINSIGHT_TEST_REDIS not set")
	}
	host, portStr, ok := strings.Cut(addr, ":")
	require.True(t, ok)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	ctx := context.Background()
	c, err := NewClient(ctx, host, port, "", 15, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	type hit struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, c.Set(ctx, "test:imatinib", hit{ID: "CHEMBL941", Name: "IMATINIB"}))

	var got hit
	found, err := c.Get(ctx, "test:imatinib", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "CHEMBL941", got.ID)

	require.NoError(t, c.SetEmbedding(ctx, "h1", []float32{0.5, 0.25}))
	emb, found, err := c.GetEmbedding(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []float32{0.5, 0.25}, emb)

	require.NoError(t, c.Invalidate(ctx, "test"))
	found, err = c.Get(ctx, "test:imatinib", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
