package vector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bioinsight/backend/pkg/logger"
	"github.com/bioinsight/backend/pkg/utils"
)

type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32) error
}

// CachedEmbedder serves repeated texts from a cache and embeds only the
// misses. Cache failures fall through to the wrapped embedder.
type CachedEmbedder struct {
	inner Embedder
	cache EmbeddingCache
	model string
}

// NewCachedEmbedder keys entries by model and exact text, so two embedding
// models never share entries.
func NewCachedEmbedder(inner Embedder, cache EmbeddingCache, model string) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache, model: model}
}

func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missing []int

	for i, text := range texts {
		keys[i] = utils.HashString(c.model + "\x1f" + text)
		emb, ok, err := c.cache.GetEmbedding(ctx, keys[i])
		if err != nil {
			logger.Debug("Embedding cache lookup failed", zap.Error(err))
		}
		if ok && len(emb) == c.inner.Dimension() {
			out[i] = emb
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	embedded, err := c.inner.Embed(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(batch) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(batch))
	}

	for j, i := range missing {
		out[i] = embedded[j]
		if err := c.cache.SetEmbedding(ctx, keys[i], embedded[j]); err != nil {
			logger.Debug("Failed to cache embedding", zap.Error(err))
		}
	}
	return out, nil
}
