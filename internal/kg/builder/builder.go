// Package builder records finished analyses into the history store and the
// interaction graph.
package builder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/kg/neo4j"
	"github.com/bioinsight/backend/internal/storage/models"
	"github.com/bioinsight/backend/pkg/logger"
)

type HistoryStore interface {
	InsertAnalysis(ctx context.Context, a *models.Analysis) error
}

type GraphStore interface {
	UpsertInteraction(ctx context.Context, in *neo4j.Interaction) error
}

// Builder writes to whichever stores are configured. Either may be nil.
type Builder struct {
	history HistoryStore
	graph   GraphStore
}

func NewBuilder(history HistoryStore, graph GraphStore) *Builder {
	return &Builder{
		history: history,
		graph:   graph,
	}
}

// RecordAnalysis persists the analysis to history and, when it carries
// evidence, merges the pair into the graph. A graph failure is logged and
// does not fail the call.
func (b *Builder) RecordAnalysis(ctx context.Context, a *models.Analysis) error {
	if b.history != nil {
		if err := b.history.InsertAnalysis(ctx, a); err != nil {
			return fmt.Errorf("failed to record analysis: %w", err)
		}
	}

	if b.graph == nil || a.RawEvidenceCount == 0 {
		return nil
	}

	err := b.graph.UpsertInteraction(ctx, &neo4j.Interaction{
		Drug:            a.Drug,
		DrugID:          a.DrugID,
		Target:          a.Target,
		TargetID:        a.TargetID,
		ConfidenceScore: a.ConfidenceScore,
		MaxPhase:        a.MaxPhase,
		Mechanism:       a.Mechanism,
		Sources:         a.Sources,
		AnalysisID:      a.ID,
		UpdatedAt:       a.CreatedAt,
	})
	if err != nil {
		logger.Warn("Failed to merge interaction into KG",
			zap.String("analysis_id", a.ID),
			zap.Error(err),
		)
		return nil
	}

	logger.Info("Analysis merged into KG",
		zap.String("analysis_id", a.ID),
		zap.String("drug", a.Drug),
		zap.String("target", a.Target),
	)
	return nil
}
