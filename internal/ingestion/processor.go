// Package ingestion loads the TTD flat files into SQLite and copies the
// named drugs and targets into the similarity index used for resolution.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/metrics"
	"github.com/bioinsight/backend/internal/storage/models"
	"github.com/bioinsight/backend/internal/storage/sqlite"
	"github.com/bioinsight/backend/internal/vector"
	"github.com/bioinsight/backend/pkg/logger"
)

const DefaultBatchSize = 100

type CorpusSource interface {
	EachDrugBatch(ctx context.Context, size int, fn func([]models.Drug) error) error
	EachTargetBatch(ctx context.Context, size int, fn func([]models.Target) error) error
}

type CorpusIndexer interface {
	AddDrugs(ctx context.Context, docs []vector.Document) error
	AddTargets(ctx context.Context, docs []vector.Document) error
}

type Processor struct {
	db        *sqlite.Client
	indexer   CorpusIndexer
	batchSize int
}

func NewProcessor(db *sqlite.Client, indexer CorpusIndexer) *Processor {
	return &Processor{
		db:        db,
		indexer:   indexer,
		batchSize: DefaultBatchSize,
	}
}

// IngestFiles parses the TTD drug and target downloads into SQLite inside a
// single transaction. A path that does not exist is skipped with a warning.
func (p *Processor) IngestFiles(ctx context.Context, drugPath, targetPath string) (ParseStats, error) {
	var total ParseStats

	w, err := p.db.BeginCorpusLoad(ctx)
	if err != nil {
		return total, err
	}

	steps := []struct {
		path  string
		parse parseFunc
	}{
		{drugPath, ParseDrugs},
		{targetPath, ParseTargets},
	}

	for _, step := range steps {
		if step.path == "" {
			continue
		}
		stats, err := parseFile(ctx, step.path, w, step.parse)
		if err != nil {
			_ = w.Rollback()
			return total, err
		}
		total.Drugs += stats.Drugs
		total.Targets += stats.Targets
		total.Interactions += stats.Interactions
		total.Skipped += stats.Skipped
	}

	if err := w.Commit(); err != nil {
		return total, err
	}

	metrics.CorpusRecordsIngested.WithLabelValues("drug").Add(float64(total.Drugs))
	metrics.CorpusRecordsIngested.WithLabelValues("target").Add(float64(total.Targets))
	metrics.CorpusRecordsIngested.WithLabelValues("interaction").Add(float64(total.Interactions))

	logger.Info("TTD files ingested",
		zap.Int("drugs", total.Drugs),
		zap.Int("targets", total.Targets),
		zap.Int("interactions", total.Interactions),
		zap.Int("skipped_lines", total.Skipped),
	)
	return total, nil
}

type parseFunc func(ctx context.Context, r io.Reader, sink CorpusSink) (ParseStats, error)

func parseFile(ctx context.Context, path string, sink CorpusSink, parse parseFunc) (ParseStats, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("TTD file not found, skipping", zap.String("path", path))
		return ParseStats{}, nil
	}
	if err != nil {
		return ParseStats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	logger.Info("Parsing TTD file", zap.String("path", path))
	return parse(ctx, f, sink)
}

type IndexStats struct {
	Drugs   int `json:"drugs"`
	Targets int `json:"targets"`
}

// PopulateIndex copies the SQLite corpus into the similarity index.
func (p *Processor) PopulateIndex(ctx context.Context) (IndexStats, error) {
	return PopulateIndex(ctx, p.db, p.indexer, p.batchSize)
}

// PopulateIndex streams named drugs and targets from source into indexer in
// batches. Drug documents hold the name; target documents hold
// "<name> (<symbol>)" when a symbol exists. Ids are the TTD ids.
func PopulateIndex(ctx context.Context, source CorpusSource, indexer CorpusIndexer, batchSize int) (IndexStats, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	var stats IndexStats

	err := source.EachDrugBatch(ctx, batchSize, func(batch []models.Drug) error {
		docs := make([]vector.Document, 0, len(batch))
		for _, d := range batch {
			docs = append(docs, vector.Document{
				ID:       d.ID,
				Text:     d.Name,
				Metadata: map[string]string{"therapeutic_class": d.TherapeuticClass},
			})
		}
		if err := indexer.AddDrugs(ctx, docs); err != nil {
			return err
		}
		stats.Drugs += len(docs)
		logger.Debug("Drug batch indexed", zap.Int("total", stats.Drugs))
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to index drugs: %w", err)
	}

	err = source.EachTargetBatch(ctx, batchSize, func(batch []models.Target) error {
		docs := make([]vector.Document, 0, len(batch))
		for _, t := range batch {
			docs = append(docs, vector.Document{
				ID:       t.ID,
				Text:     t.DisplayName(),
				Metadata: map[string]string{"name": t.Name, "symbol": t.Symbol},
			})
		}
		if err := indexer.AddTargets(ctx, docs); err != nil {
			return err
		}
		stats.Targets += len(docs)
		logger.Debug("Target batch indexed", zap.Int("total", stats.Targets))
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to index targets: %w", err)
	}

	metrics.CorpusRecordsIngested.WithLabelValues("indexed_drug").Add(float64(stats.Drugs))
	metrics.CorpusRecordsIngested.WithLabelValues("indexed_target").Add(float64(stats.Targets))

	logger.Info("Corpus indexed",
		zap.Int("drugs", stats.Drugs),
		zap.Int("targets", stats.Targets),
	)
	return stats, nil
}
