package matching

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/extraction"
	"github.com/bioinsight/backend/internal/vector"
	"github.com/bioinsight/backend/pkg/logger"
)

const (
	// AcceptDistance accepts a nearest neighbour outright.
	AcceptDistance = 0.8
	// SubstringDistance accepts a nearest neighbour whose text contains the query.
	SubstringDistance = 1.2
	// CandidateDistance is the strict bound used when scanning generated candidates.
	CandidateDistance = 0.4
)

// Matcher resolves names against the drug and target reference corpora.
type Matcher struct {
	index            vector.Index
	drugCollection   string
	targetCollection string
}

type Option func(*Matcher)

func WithCollections(drugs, targets string) Option {
	return func(m *Matcher) {
		if drugs != "" {
			m.drugCollection = drugs
		}
		if targets != "" {
			m.targetCollection = targets
		}
	}
}

func NewMatcher(index vector.Index, opts ...Option) *Matcher {
	m := &Matcher{
		index:            index,
		drugCollection:   DefaultDrugCollection,
		targetCollection: DefaultTargetCollection,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureBaseline upserts the seeded corpora. Repeated calls are harmless.
func (m *Matcher) EnsureBaseline(ctx context.Context) error {
	if err := m.index.Upsert(ctx, m.drugCollection, baselineDrugs); err != nil {
		return fmt.Errorf("failed to seed drug corpus: %w", err)
	}
	if err := m.index.Upsert(ctx, m.targetCollection, baselineTargets); err != nil {
		return fmt.Errorf("failed to seed target corpus: %w", err)
	}
	logger.Info("Reference corpora seeded",
		zap.Int("drugs", len(baselineDrugs)),
		zap.Int("targets", len(baselineTargets)),
	)
	return nil
}

func (m *Matcher) AddDrugs(ctx context.Context, docs []vector.Document) error {
	return m.index.Upsert(ctx, m.drugCollection, docs)
}

func (m *Matcher) AddTargets(ctx context.Context, docs []vector.Document) error {
	return m.index.Upsert(ctx, m.targetCollection, docs)
}

// BestMatches is the outcome of FindBestMatches. Confidence is zero unless
// both sides resolved.
type BestMatches struct {
	Drug           string  `json:"drug,omitempty"`
	Target         string  `json:"target,omitempty"`
	DrugDistance   float32 `json:"drug_distance"`
	TargetDistance float32 `json:"target_distance"`
	Confidence     float64 `json:"overall_confidence"`
}

// FindBestMatches validates an extracted drug and target against the corpora.
// Either query may be empty, in which case that side is skipped.
func (m *Matcher) FindBestMatches(ctx context.Context, drugQuery, targetQuery string) (BestMatches, error) {
	var out BestMatches

	if drugQuery != "" {
		hit, ok, err := m.nearest(ctx, m.drugCollection, drugQuery)
		if err != nil {
			return BestMatches{}, err
		}
		if ok && accept(drugQuery, hit) {
			out.Drug = hit.Text
			out.DrugDistance = hit.Distance
		}
	}

	if targetQuery != "" {
		hit, ok, err := m.nearest(ctx, m.targetCollection, targetQuery)
		if err != nil {
			return BestMatches{}, err
		}
		if ok && accept(targetQuery, hit) {
			out.Target = StripAnnotation(hit.Text)
			out.TargetDistance = hit.Distance
		}
	}

	if out.Drug != "" && out.Target != "" {
		out.Confidence = (closeness(out.DrugDistance) + closeness(out.TargetDistance)) / 2
	}
	return out, nil
}

func (m *Matcher) nearest(ctx context.Context, collection, query string) (vector.Match, bool, error) {
	res, err := m.index.Query(ctx, collection, []string{query}, 1)
	if err != nil {
		return vector.Match{}, false, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	if len(res) == 0 || len(res[0]) == 0 {
		return vector.Match{}, false, nil
	}
	return res[0][0], true, nil
}

func accept(query string, hit vector.Match) bool {
	if hit.Distance < AcceptDistance {
		return true
	}
	contains := strings.Contains(strings.ToLower(hit.Text), strings.ToLower(query))
	return contains && hit.Distance < SubstringDistance
}

func closeness(distance float32) float64 {
	c := (SubstringDistance - float64(distance)) / SubstringDistance
	if c < 0 {
		return 0
	}
	return c
}

// CandidateMatch holds the closest drug and target found among a candidate
// list. Empty names mean nothing fell under CandidateDistance.
type CandidateMatch struct {
	Drug           string
	Target         string
	DrugDistance   float32
	TargetDistance float32
}

// SearchCandidates queries every candidate against both corpora in one batch
// per corpus and keeps the closest hit on each side.
func (m *Matcher) SearchCandidates(ctx context.Context, candidates []string) (CandidateMatch, error) {
	var out CandidateMatch
	if len(candidates) == 0 {
		return out, nil
	}

	drugRes, err := m.index.Query(ctx, m.drugCollection, candidates, 1)
	if err != nil {
		return out, fmt.Errorf("failed to query %s: %w", m.drugCollection, err)
	}
	targetRes, err := m.index.Query(ctx, m.targetCollection, candidates, 1)
	if err != nil {
		return out, fmt.Errorf("failed to query %s: %w", m.targetCollection, err)
	}

	if hit, ok := closest(drugRes); ok {
		out.Drug = hit.Text
		out.DrugDistance = hit.Distance
	}
	if hit, ok := closest(targetRes); ok {
		out.Target = StripAnnotation(hit.Text)
		out.TargetDistance = hit.Distance
	}
	return out, nil
}

// SearchText generates candidates from text and runs SearchCandidates.
func (m *Matcher) SearchText(ctx context.Context, text string) (CandidateMatch, error) {
	return m.SearchCandidates(ctx, extraction.Candidates(text))
}

func closest(results [][]vector.Match) (vector.Match, bool) {
	var best vector.Match
	bestDist := float32(CandidateDistance)
	found := false
	for _, matches := range results {
		if len(matches) == 0 {
			continue
		}
		if matches[0].Distance < bestDist {
			best = matches[0]
			bestDist = matches[0].Distance
			found = true
		}
	}
	return best, found
}

// StripAnnotation drops a trailing parenthetical such as the alias in
// "PTGS2 (COX-2)".
func StripAnnotation(name string) string {
	if !strings.Contains(name, "(") {
		return name
	}
	if i := strings.Index(name, " ("); i >= 0 {
		return name[:i]
	}
	return name
}
