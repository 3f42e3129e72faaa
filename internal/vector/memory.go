package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type entry struct {
	doc       Document
	embedding []float32
	seq       int
}

// MemoryIndex is an in-process Index with exhaustive search. It is safe for
// concurrent use.
type MemoryIndex struct {
	embedder Embedder

	mu          sync.RWMutex
	collections map[string]map[string]*entry
	seq         int
}

func NewMemoryIndex(embedder Embedder) *MemoryIndex {
	if embedder == nil {
		embedder = NewHashEmbedder(DefaultHashDimension)
	}
	return &MemoryIndex{
		embedder:    embedder,
		collections: make(map[string]map[string]*entry),
	}
}

func (m *MemoryIndex) Upsert(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document %d in %s has no id", i, collection)
		}
		texts[i] = d.Text
	}

	embeddings, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]*entry)
		m.collections[collection] = coll
	}
	for i, d := range docs {
		if existing, ok := coll[d.ID]; ok {
			existing.doc = d
			existing.embedding = embeddings[i]
			continue
		}
		m.seq++
		coll[d.ID] = &entry{doc: d, embedding: embeddings[i], seq: m.seq}
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, collection string, texts []string, n int) ([][]Match, error) {
	results := make([][]Match, len(texts))
	if len(texts) == 0 || n <= 0 {
		return results, nil
	}

	embeddings, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed queries: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	coll := m.collections[collection]
	for qi, q := range embeddings {
		scored := make([]*entry, 0, len(coll))
		dist := make(map[*entry]float32, len(coll))
		for _, e := range coll {
			scored = append(scored, e)
			dist[e] = SquaredL2(q, e.embedding)
		}
		sort.Slice(scored, func(i, j int) bool {
			di, dj := dist[scored[i]], dist[scored[j]]
			if di != dj {
				return di < dj
			}
			return scored[i].seq < scored[j].seq
		})
		if len(scored) > n {
			scored = scored[:n]
		}

		matches := make([]Match, len(scored))
		for i, e := range scored {
			matches[i] = Match{
				ID:       e.doc.ID,
				Text:     e.doc.Text,
				Metadata: e.doc.Metadata,
				Distance: dist[e],
			}
		}
		results[qi] = matches
	}
	return results, nil
}

// Count returns the number of documents stored in collection.
func (m *MemoryIndex) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}
