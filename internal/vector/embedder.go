package vector

import (
	"context"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"
)

const DefaultHashDimension = 512

// HashEmbedder is a local embedder that buckets character trigrams of the
// case-folded text. Vectors are unit length, so identical texts sit at
// distance 0 and texts with no shared trigram at distance 2.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Dimension() int {
	return h.dim
}

func (h *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.embed(t)
	}
	return out, nil
}

func (h *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, h.dim)
	folded := strings.ToLower(strings.TrimSpace(norm.NFC.String(text)))
	if folded == "" {
		return vec
	}

	runes := []rune(" " + folded + " ")
	for i := 0; i+3 <= len(runes); i++ {
		bucket := xxhash.Sum64String(string(runes[i:i+3])) % uint64(h.dim)
		vec[bucket]++
	}

	var norm2 float64
	for _, v := range vec {
		norm2 += float64(v) * float64(v)
	}
	if norm2 == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm2))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
