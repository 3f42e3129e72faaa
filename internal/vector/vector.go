// Package vector defines the similarity search contract used to match entity
// names against reference corpora.
package vector

import "context"

// Document is an entry stored in a collection. Upserting a document whose ID
// already exists replaces it.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Match is a stored document returned by a query together with its squared
// L2 distance to the query embedding.
type Match struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Distance float32           `json:"distance"`
}

// Index stores documents per collection and answers nearest-neighbour queries.
// Query returns one result list per input text, each ordered by ascending
// distance and holding at most n matches.
type Index interface {
	Upsert(ctx context.Context, collection string, docs []Document) error
	Query(ctx context.Context, collection string, texts []string, n int) ([][]Match, error)
}

// Embedder turns texts into fixed-size vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// SquaredL2 returns the squared Euclidean distance between a and b. Vectors
// of unequal length are compared over their common prefix.
func SquaredL2(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
