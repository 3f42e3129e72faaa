package zilliz

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/vector"
	"github.com/bioinsight/backend/pkg/logger"
)

const (
	fieldID        = "doc_id"
	fieldEmbedding = "embedding"
	fieldText      = "text"
	fieldMetadata  = "metadata"
)

// Client is a Milvus-backed vector.Index. Collections are created and loaded
// on first use.
type Client struct {
	client    client.Client
	embedder  vector.Embedder
	vectorDim int

	mu    sync.Mutex
	ready map[string]bool
}

var _ vector.Index = (*Client)(nil)

func NewClient(ctx context.Context, endpoint, apiKey string, embedder vector.Embedder) (*Client, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address: endpoint,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Zilliz/Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.Int("dim", embedder.Dimension()),
	)

	return &Client{
		client:    c,
		embedder:  embedder,
		vectorDim: embedder.Dimension(),
		ready:     make(map[string]bool),
	}, nil
}

func (z *Client) Close() error {
	return z.client.Close()
}

// EnsureCollection creates and loads the collection if it does not exist yet.
func (z *Client) EnsureCollection(ctx context.Context, name string) error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.ready[name] {
		return nil
	}

	has, err := z.client.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !has {
		if err := z.createCollection(ctx, name); err != nil {
			return err
		}
	}

	if err := z.client.LoadCollection(ctx, name, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	z.ready[name] = true
	return nil
}

func (z *Client) createCollection(ctx context.Context, name string) error {
	schema := &entity.Schema{
		CollectionName: name,
		Description:    "entity name embeddings",
		Fields: []*entity.Field{
			{
				Name:       fieldID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     fieldEmbedding,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", z.vectorDim),
				},
			},
			{
				Name:     fieldText,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
			{
				Name:     fieldMetadata,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "2048",
				},
			},
		},
	}

	if err := z.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexFlat(entity.L2)
	if err != nil {
		return fmt.Errorf("failed to build index params: %w", err)
	}
	if err := z.client.CreateIndex(ctx, name, fieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	logger.Info("Collection created", zap.String("collection", name))
	return nil
}

func (z *Client) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := z.EnsureCollection(ctx, collection); err != nil {
		return err
	}

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	metas := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		texts[i] = d.Text
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", d.ID, err)
		}
		metas[i] = string(meta)
	}

	embeddings, err := z.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	_, err = z.client.Upsert(
		ctx,
		collection,
		"",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnFloatVector(fieldEmbedding, z.vectorDim, embeddings),
		entity.NewColumnVarChar(fieldText, texts),
		entity.NewColumnVarChar(fieldMetadata, metas),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}

	if err := z.client.Flush(ctx, collection, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Documents upserted into vector DB",
		zap.String("collection", collection),
		zap.Int("count", len(docs)),
	)
	return nil
}

func (z *Client) Query(ctx context.Context, collection string, texts []string, n int) ([][]vector.Match, error) {
	results := make([][]vector.Match, len(texts))
	if len(texts) == 0 || n <= 0 {
		return results, nil
	}
	if err := z.EnsureCollection(ctx, collection); err != nil {
		return nil, err
	}

	embeddings, err := z.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed queries: %w", err)
	}
	vectors := make([]entity.Vector, len(embeddings))
	for i, e := range embeddings {
		vectors[i] = entity.FloatVector(e)
	}

	sp, _ := entity.NewIndexFlatSearchParam()

	searchResult, err := z.client.Search(
		ctx,
		collection,
		[]string{},
		"",
		[]string{fieldID, fieldText, fieldMetadata},
		vectors,
		fieldEmbedding,
		entity.L2,
		n,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	for qi, sr := range searchResult {
		if qi >= len(results) {
			break
		}
		idCol := sr.Fields.GetColumn(fieldID)
		textCol := sr.Fields.GetColumn(fieldText)
		metaCol := sr.Fields.GetColumn(fieldMetadata)

		matches := make([]vector.Match, 0, sr.ResultCount)
		for i := 0; i < sr.ResultCount; i++ {
			id, _ := idCol.GetAsString(i)
			text, _ := textCol.GetAsString(i)
			rawMeta, _ := metaCol.GetAsString(i)

			var meta map[string]string
			if rawMeta != "" && rawMeta != "null" {
				_ = json.Unmarshal([]byte(rawMeta), &meta)
			}

			matches = append(matches, vector.Match{
				ID:       id,
				Text:     text,
				Metadata: meta,
				Distance: sr.Scores[i],
			})
		}
		results[qi] = matches
	}

	logger.Debug("Vector search completed",
		zap.String("collection", collection),
		zap.Int("queries", len(texts)),
		zap.Int("topK", n),
	)

	return results, nil
}
