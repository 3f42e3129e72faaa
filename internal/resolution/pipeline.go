// Package resolution turns a free-text query into a canonical drug and
// target name. Stages run in order and stop as soon as both sides are known:
// the seeded dictionary, Open Targets lookups over generated candidates, and
// an LLM suggestion verified against Open Targets.
package resolution

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/extraction"
	"github.com/bioinsight/backend/internal/matching"
	"github.com/bioinsight/backend/internal/opentargets"
	"github.com/bioinsight/backend/pkg/logger"
)

type Stage string

const (
	StageDictionary Stage = "dictionary"
	StageAPI        Stage = "api"
	StageLLM        Stage = "llm"
)

// ResolvedEntity is one resolved side of a query. Score is the vector
// distance for dictionary hits and 1 for names confirmed by Open Targets.
type ResolvedEntity struct {
	RawQuery      string  `json:"raw_query"`
	CanonicalName string  `json:"canonical_name"`
	CanonicalID   string  `json:"canonical_id,omitempty"`
	Stage         Stage   `json:"resolution_stage"`
	Score         float64 `json:"distance_or_confidence"`
}

type Resolution struct {
	Query  string          `json:"query"`
	Drug   *ResolvedEntity `json:"drug"`
	Target *ResolvedEntity `json:"target"`
}

func (r Resolution) DrugName() string {
	if r.Drug == nil {
		return ""
	}
	return r.Drug.CanonicalName
}

func (r Resolution) TargetName() string {
	if r.Target == nil {
		return ""
	}
	return r.Target.CanonicalName
}

func (r Resolution) Complete() bool {
	return r.Drug != nil && r.Target != nil
}

type CandidateMatcher interface {
	SearchText(ctx context.Context, text string) (matching.CandidateMatch, error)
}

type EntityResolver interface {
	ResolveDrug(ctx context.Context, name string) (opentargets.Hit, bool)
	ResolveTarget(ctx context.Context, name string) (opentargets.Hit, bool)
}

type EntityExtractor interface {
	Extract(ctx context.Context, query string) extraction.Extraction
}

// Pipeline is safe for concurrent use when its collaborators are. A nil
// matcher or extractor skips the corresponding stage.
type Pipeline struct {
	matcher   CandidateMatcher
	resolver  EntityResolver
	extractor EntityExtractor
}

func NewPipeline(matcher CandidateMatcher, resolver EntityResolver, extractor EntityExtractor) *Pipeline {
	return &Pipeline{
		matcher:   matcher,
		resolver:  resolver,
		extractor: extractor,
	}
}

type stageFunc func(ctx context.Context, res *Resolution)

// Resolve runs the stages in order. Failures inside a stage leave the
// affected side unresolved; Resolve itself never fails.
func (p *Pipeline) Resolve(ctx context.Context, query string) Resolution {
	start := time.Now()
	res := Resolution{Query: query}

	stages := []struct {
		stage Stage
		run   stageFunc
	}{
		{StageDictionary, p.dictionary},
		{StageAPI, p.candidates},
		{StageLLM, p.fallback},
	}

	for _, s := range stages {
		if res.Complete() {
			break
		}
		s.run(ctx, &res)
		logger.Info("Resolution stage finished",
			zap.String("stage", string(s.stage)),
			zap.String("drug", res.DrugName()),
			zap.String("target", res.TargetName()),
			zap.Bool("complete", res.Complete()),
		)
	}

	logger.Info("Resolution finished",
		zap.String("query", query),
		zap.String("drug", res.DrugName()),
		zap.String("target", res.TargetName()),
		zap.Bool("complete", res.Complete()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

func (p *Pipeline) dictionary(ctx context.Context, res *Resolution) {
	if p.matcher == nil {
		logger.Debug("Dictionary stage skipped: no matcher")
		return
	}

	normalized := extraction.Normalize(res.Query)
	match, err := p.matcher.SearchText(ctx, normalized)
	if err != nil {
		logger.Warn("Dictionary search failed", zap.Error(err))
		return
	}

	if match.Drug != "" {
		res.Drug = &ResolvedEntity{
			RawQuery:      normalized,
			CanonicalName: match.Drug,
			Stage:         StageDictionary,
			Score:         float64(match.DrugDistance),
		}
	}
	if match.Target != "" {
		res.Target = &ResolvedEntity{
			RawQuery:      normalized,
			CanonicalName: match.Target,
			Stage:         StageDictionary,
			Score:         float64(match.TargetDistance),
		}
	}
}

// candidates tries generated candidates longest first against Open Targets,
// one lookup at a time.
func (p *Pipeline) candidates(ctx context.Context, res *Resolution) {
	if p.resolver == nil {
		return
	}

	cands := extraction.GenerateCandidates(res.Query)
	logger.Info("Generated candidates", zap.Int("count", len(cands)), zap.Strings("candidates", head(cands, 5)))

	if res.Drug == nil {
		for _, cand := range cands {
			if ctx.Err() != nil {
				return
			}
			if hit, ok := p.resolver.ResolveDrug(ctx, cand); ok && hit.Name != "" {
				res.Drug = fromHit(cand, hit, StageAPI)
				break
			}
		}
	}

	if res.Target == nil {
		for _, cand := range cands {
			if ctx.Err() != nil {
				return
			}
			if res.Drug != nil && strings.EqualFold(cand, res.Drug.CanonicalName) {
				continue
			}
			if hit, ok := p.resolver.ResolveTarget(ctx, cand); ok && hit.Name != "" {
				res.Target = fromHit(cand, hit, StageAPI)
				break
			}
		}
	}
}

// fallback asks the extractor once and keeps only suggestions that Open
// Targets confirms.
func (p *Pipeline) fallback(ctx context.Context, res *Resolution) {
	if p.extractor == nil {
		return
	}

	suggested := p.extractor.Extract(ctx, res.Query)
	if suggested.Empty() {
		logger.Info("LLM suggested no entities")
		return
	}
	logger.Info("LLM suggested entities",
		zap.String("drug", suggested.Drug),
		zap.String("target", suggested.Target),
	)
	if p.resolver == nil {
		return
	}

	if res.Drug == nil && suggested.Drug != "" {
		if hit, ok := p.resolver.ResolveDrug(ctx, suggested.Drug); ok && hit.Name != "" {
			res.Drug = fromHit(suggested.Drug, hit, StageLLM)
		} else {
			logger.Info("LLM drug not verified", zap.String("drug", suggested.Drug))
		}
	}
	if res.Target == nil && suggested.Target != "" {
		if hit, ok := p.resolver.ResolveTarget(ctx, suggested.Target); ok && hit.Name != "" {
			res.Target = fromHit(suggested.Target, hit, StageLLM)
		} else {
			logger.Info("LLM target not verified", zap.String("target", suggested.Target))
		}
	}
}

func fromHit(raw string, hit opentargets.Hit, stage Stage) *ResolvedEntity {
	return &ResolvedEntity{
		RawQuery:      raw,
		CanonicalName: hit.Name,
		CanonicalID:   hit.ID,
		Stage:         stage,
		Score:         1,
	}
}

func head(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
