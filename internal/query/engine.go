package query

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/evidence"
	"github.com/bioinsight/backend/internal/metrics"
	"github.com/bioinsight/backend/internal/opentargets"
	"github.com/bioinsight/backend/internal/resolution"
	"github.com/bioinsight/backend/internal/scoring"
	"github.com/bioinsight/backend/internal/storage/models"
	"github.com/bioinsight/backend/pkg/logger"
)

const (
	EvidenceType = "Known Drug Interaction"

	notSpecified = "✗ Not specified"
	statusReply  = "### Entity Extraction Status"

	InsufficientExplanation = "I apologize, but I couldn't extract both a drug and a biological target from your query.\n\n" +
		"To proceed, please specify both:\n" +
		"- A **drug name** (e.g., Imatinib, Aspirin, Erlotinib)\n" +
		"- A **target protein** (e.g., BCR-ABL1, EGFR, COX-2)\n\n" +
		"**Example:** \"What is the interaction between Imatinib and BCR-ABL1?\""
)

type Resolver interface {
	Resolve(ctx context.Context, query string) resolution.Resolution
}

type EvidenceSource interface {
	ResolveTarget(ctx context.Context, name string) (opentargets.Hit, bool)
	FetchInteractions(ctx context.Context, drugName, targetID string, maxRetries int) []evidence.Record
}

type Narrator interface {
	Explain(ctx context.Context, digest evidence.Digest) (string, error)
}

type Recorder interface {
	RecordAnalysis(ctx context.Context, a *models.Analysis) error
}

type Engine struct {
	resolver   Resolver
	evidence   EvidenceSource
	narrator   Narrator
	recorder   Recorder
	maxRetries int
}

type Option func(*Engine)

// WithRecorder persists every completed analysis.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithMaxRetries(n int) Option {
	return func(e *Engine) { e.maxRetries = n }
}

func NewEngine(resolver Resolver, source EvidenceSource, narrator Narrator, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		evidence: source,
		narrator: narrator,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type QueryRequest struct {
	Query string
}

type Entities struct {
	Drug   string `json:"drug,omitempty"`
	Target string `json:"target,omitempty"`
}

type AnalysisResult struct {
	ID               string          `json:"id"`
	Drug             string          `json:"drug"`
	Target           string          `json:"target"`
	TargetID         string          `json:"target_id,omitempty"`
	EvidenceType     string          `json:"evidence_type"`
	Explanation      string          `json:"explanation"`
	ConfidenceScore  float64         `json:"confidence_score"`
	EvidenceSources  []string        `json:"evidence_sources"`
	RawEvidenceCount int             `json:"raw_evidence_count"`
	Score            *scoring.Result `json:"score,omitempty"`
	LatencyMS        int             `json:"latency_ms"`
}

type QueryResponse struct {
	ID           string                `json:"id"`
	Query        string                `json:"query"`
	Reply        string                `json:"reply"`
	Confidence   float64               `json:"confidence"`
	Entities     Entities              `json:"entities"`
	Resolution   resolution.Resolution `json:"resolution"`
	Data         *AnalysisResult       `json:"data"`
	Insufficient bool                  `json:"insufficient"`
	LatencyMS    int                   `json:"latency_ms"`
}

// ProcessQuery resolves the drug and target named in the query and analyses
// the pair. When either side is missing it returns the refusal response
// instead; that is not an error.
func (e *Engine) ProcessQuery(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	startTime := time.Now()
	queryID := uuid.New().String()

	logger.Info("Processing query",
		zap.String("query_id", queryID),
		zap.String("query", req.Query),
	)

	res := e.resolver.Resolve(ctx, req.Query)
	metrics.QueryDuration.WithLabelValues("resolution").Observe(time.Since(startTime).Seconds())
	observeResolution(res)

	resp := &QueryResponse{
		ID:         queryID,
		Query:      req.Query,
		Entities:   Entities{Drug: res.DrugName(), Target: res.TargetName()},
		Resolution: res,
	}

	if !res.Complete() {
		metrics.QueryTotal.WithLabelValues("insufficient").Inc()
		logger.Info("Query lacks a drug or target",
			zap.String("query_id", queryID),
			zap.String("drug", res.DrugName()),
			zap.String("target", res.TargetName()),
		)
		resp.Insufficient = true
		resp.Reply = statusReply
		resp.Data = &AnalysisResult{
			ID:              queryID,
			Drug:            orNotSpecified(res.DrugName()),
			Target:          orNotSpecified(res.TargetName()),
			EvidenceType:    EvidenceType,
			Explanation:     InsufficientExplanation,
			EvidenceSources: []string{},
		}
		resp.LatencyMS = int(time.Since(startTime).Milliseconds())
		return resp, nil
	}

	result, err := e.analyze(ctx, queryID, req.Query, res.DrugName(), res.TargetName())
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.QueryTotal.WithLabelValues("analyzed").Inc()
	resp.Reply = fmt.Sprintf("I've analyzed the interaction between **%s** and **%s**. Here's what the evidence shows:",
		res.DrugName(), res.TargetName())
	resp.Confidence = result.ConfidenceScore
	resp.Data = result
	resp.LatencyMS = int(time.Since(startTime).Milliseconds())
	return resp, nil
}

// Analyze scores the evidence for an already resolved pair.
func (e *Engine) Analyze(ctx context.Context, drug, target string) (*AnalysisResult, error) {
	return e.analyze(ctx, uuid.New().String(), "", drug, target)
}

func (e *Engine) analyze(ctx context.Context, id, query, drug, target string) (*AnalysisResult, error) {
	startTime := time.Now()

	logger.Info("Analysis started",
		zap.String("analysis_id", id),
		zap.String("drug", drug),
		zap.String("target", target),
	)

	targetName := target
	var targetID string
	records := []evidence.Record{}

	if hit, ok := e.evidence.ResolveTarget(ctx, target); ok {
		targetID = hit.ID
		targetName = hit.Name
		records = e.evidence.FetchInteractions(ctx, drug, hit.ID, e.maxRetries)
		logger.Info("Interaction evidence fetched",
			zap.String("target_id", targetID),
			zap.Int("records", len(records)),
		)
	} else {
		logger.Warn("Target not found in Open Targets", zap.String("target", target))
	}
	metrics.QueryDuration.WithLabelValues("evidence").Observe(time.Since(startTime).Seconds())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	result := scoring.Score(records)
	confidence := result.Confidence()
	metrics.ConfidenceScore.Observe(confidence)
	metrics.EvidenceRecords.Observe(float64(len(records)))

	digest := evidence.NewDigest(evidence.DigestMetadata{
		ConfidenceScore:           confidence,
		MaxPhase:                  result.MaxPhase,
		DeduplicatedEvidenceCount: result.EvidenceCount,
		UniqueSources:             result.SourceCount,
		EvidenceTypes:             result.EvidenceTypes,
		Reasoning:                 result.Reasoning,
	}, records, targetName)

	narrativeStart := time.Now()
	explanation, err := e.narrator.Explain(ctx, digest)
	if err != nil {
		logger.Warn("Narrative unavailable", zap.String("analysis_id", id), zap.Error(err))
	}
	metrics.QueryDuration.WithLabelValues("narrative").Observe(time.Since(narrativeStart).Seconds())

	out := &AnalysisResult{
		ID:               id,
		Drug:             drug,
		Target:           targetName,
		TargetID:         targetID,
		EvidenceType:     EvidenceType,
		Explanation:      explanation,
		ConfidenceScore:  confidence,
		EvidenceSources:  digest.Sources(),
		RawEvidenceCount: result.EvidenceCount,
		Score:            &result,
		LatencyMS:        int(time.Since(startTime).Milliseconds()),
	}

	e.record(ctx, query, out, records)

	logger.Info("Analysis finished",
		zap.String("analysis_id", id),
		zap.Float64("score", result.Score),
		zap.Int("latency_ms", out.LatencyMS),
	)
	return out, nil
}

func (e *Engine) record(ctx context.Context, query string, out *AnalysisResult, records []evidence.Record) {
	if e.recorder == nil {
		return
	}

	a := &models.Analysis{
		ID:               out.ID,
		Query:            query,
		Drug:             out.Drug,
		Target:           out.Target,
		TargetID:         out.TargetID,
		Explanation:      out.Explanation,
		ConfidenceScore:  out.ConfidenceScore,
		MaxPhase:         out.Score.MaxPhase,
		RawEvidenceCount: out.RawEvidenceCount,
		SourceCount:      out.Score.SourceCount,
		Mechanism:        out.Score.Mechanism,
		Reasoning:        out.Score.Reasoning,
		Sources:          out.EvidenceSources,
		LatencyMS:        out.LatencyMS,
		CreatedAt:        time.Now(),
	}
	if len(records) > 0 {
		a.DrugID = records[0].Drug.ID
	}

	if err := e.recorder.RecordAnalysis(ctx, a); err != nil {
		logger.Warn("Failed to persist analysis", zap.String("analysis_id", out.ID), zap.Error(err))
	}
}

func observeResolution(res resolution.Resolution) {
	if res.Drug != nil {
		metrics.ResolutionStage.WithLabelValues("drug", string(res.Drug.Stage)).Inc()
	}
	if res.Target != nil {
		metrics.ResolutionStage.WithLabelValues("target", string(res.Target.Stage)).Inc()
	}
}

func orNotSpecified(name string) string {
	if name == "" {
		return notSpecified
	}
	return name
}
