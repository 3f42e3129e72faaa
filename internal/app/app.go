// Package app wires the configured backends into the query engine. The HTTP
// server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/cache/redis"
	"github.com/bioinsight/backend/internal/ingestion"
	"github.com/bioinsight/backend/internal/kg/builder"
	"github.com/bioinsight/backend/internal/kg/neo4j"
	"github.com/bioinsight/backend/internal/llm"
	"github.com/bioinsight/backend/internal/matching"
	"github.com/bioinsight/backend/internal/opentargets"
	"github.com/bioinsight/backend/internal/query"
	"github.com/bioinsight/backend/internal/resolution"
	"github.com/bioinsight/backend/internal/storage/sqlite"
	"github.com/bioinsight/backend/internal/vector"
	"github.com/bioinsight/backend/internal/vector/zilliz"
	"github.com/bioinsight/backend/pkg/config"
	"github.com/bioinsight/backend/pkg/logger"
)

// App holds every constructed component. Neo4j, Redis and Zilliz are nil
// when disabled in config.
type App struct {
	Config      *config.Config
	SQLite      *sqlite.Client
	Neo4j       *neo4j.Client
	Redis       *redis.Client
	Zilliz      *zilliz.Client
	LLM         *llm.Client
	Matcher     *matching.Matcher
	OpenTargets *opentargets.Client
	Pipeline    *resolution.Pipeline
	Builder     *builder.Builder
	Engine      *query.Engine
	Processor   *ingestion.Processor

	closers []func()
}

func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if err := a.initStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.LLM = llm.NewClient(llm.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		EmbeddingDim:   cfg.LLM.EmbeddingDim,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		Timeout:        cfg.LLM.Timeout(),
	})

	index, err := a.initIndex(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Matcher = matching.NewMatcher(index,
		matching.WithCollections(cfg.Zilliz.DrugCollection, cfg.Zilliz.TargetCollection))

	if err := a.Matcher.EnsureBaseline(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Processor = ingestion.NewProcessor(a.SQLite, a.Matcher)
	if a.Zilliz == nil {
		a.warmMemoryIndex(ctx)
	}

	otOpts := []opentargets.Option{
		opentargets.WithBaseURL(cfg.OpenTargets.BaseURL),
		opentargets.WithTimeouts(cfg.OpenTargets.SearchTimeout(), cfg.OpenTargets.EvidenceTimeout()),
		opentargets.WithMaxRetries(cfg.OpenTargets.MaxRetries),
		opentargets.WithRateLimit(cfg.OpenTargets.RequestsPerSecond, cfg.OpenTargets.Burst),
	}
	if a.Redis != nil {
		otOpts = append(otOpts, opentargets.WithCache(a.Redis))
	}
	a.OpenTargets = opentargets.NewClient(otOpts...)

	a.Pipeline = resolution.NewPipeline(a.Matcher, a.OpenTargets, llm.NewEntityExtractor(a.LLM))

	var graph builder.GraphStore
	if a.Neo4j != nil {
		graph = a.Neo4j
	}
	a.Builder = builder.NewBuilder(a.SQLite, graph)

	a.Engine = query.NewEngine(a.Pipeline, a.OpenTargets, llm.NewNarrator(a.LLM),
		query.WithRecorder(a.Builder),
		query.WithMaxRetries(cfg.OpenTargets.MaxRetries),
	)

	return a, nil
}

func (a *App) initStorage(ctx context.Context) error {
	cfg := a.Config

	if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	a.SQLite = db
	a.closers = append(a.closers, func() { _ = db.Close() })

	if err := db.InitSchema(); err != nil {
		return err
	}

	if cfg.Neo4j.Enabled {
		kg, err := neo4j.NewClient(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database)
		if err != nil {
			return err
		}
		a.Neo4j = kg
		a.closers = append(a.closers, func() { _ = kg.Close(context.Background()) })

		if err := kg.EnsureConstraints(ctx); err != nil {
			logger.Warn("Failed to ensure graph constraints", zap.Error(err))
		}
	}

	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL())
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		} else {
			a.Redis = rc
			a.closers = append(a.closers, func() { _ = rc.Close() })
		}
	}
	return nil
}

// initIndex picks Milvus when enabled, otherwise the in-process index over
// hashed n-gram embeddings.
func (a *App) initIndex(ctx context.Context) (vector.Index, error) {
	cfg := a.Config
	if !cfg.Zilliz.Enabled {
		return vector.NewMemoryIndex(vector.NewHashEmbedder(vector.DefaultHashDimension)), nil
	}

	if cfg.Zilliz.VectorDim > 0 && cfg.Zilliz.VectorDim != a.LLM.Dimension() {
		return nil, fmt.Errorf("zilliz.vectorDim %d does not match llm.embeddingDim %d",
			cfg.Zilliz.VectorDim, a.LLM.Dimension())
	}

	var embedder vector.Embedder = a.LLM
	if a.Redis != nil {
		embedder = vector.NewCachedEmbedder(a.LLM, a.Redis, cfg.LLM.EmbeddingModel)
	}

	zc, err := zilliz.NewClient(ctx, cfg.Zilliz.Endpoint, cfg.Zilliz.APIKey, embedder)
	if err != nil {
		return nil, err
	}
	a.Zilliz = zc
	a.closers = append(a.closers, func() { _ = zc.Close() })
	return zc, nil
}

// warmMemoryIndex reloads any ingested TTD corpus, since the in-process
// index starts empty on every run.
func (a *App) warmMemoryIndex(ctx context.Context) {
	counts, err := a.SQLite.CorpusCounts(ctx)
	if err != nil {
		logger.Warn("Failed to read corpus counts", zap.Error(err))
		return
	}
	if counts.NamedDrugs == 0 && counts.Targets == 0 {
		return
	}
	stats, err := a.Processor.PopulateIndex(ctx)
	if err != nil {
		logger.Warn("Failed to load corpus into index", zap.Error(err))
		return
	}
	logger.Info("Corpus loaded into memory index",
		zap.Int("drugs", stats.Drugs),
		zap.Int("targets", stats.Targets),
	)
}

// Close releases backends in reverse order of construction.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
