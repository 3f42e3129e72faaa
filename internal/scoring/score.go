// Package scoring turns a list of interaction evidence into a 0-100
// confidence score with a readable justification.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/bioinsight/backend/internal/evidence"
)

const (
	weightETS = 0.40
	weightECS = 0.25
	weightEQS = 0.20
	weightCS  = 0.15

	reasonSeparator = " • "
	noEvidence      = "No evidence found"
)

// SourceBreakdown counts collected source tags per curation bucket.
type SourceBreakdown struct {
	Expert     int `json:"expert"`
	Database   int `json:"database"`
	TextMining int `json:"text_mining"`
}

func (b SourceBreakdown) total() int {
	return b.Expert + b.Database + b.TextMining
}

type Factors struct {
	ETS             float64         `json:"ets"`
	ECS             float64         `json:"ecs"`
	EQS             float64         `json:"eqs"`
	CS              float64         `json:"cs"`
	WeightedScore   float64         `json:"weighted_score"`
	SourceBreakdown SourceBreakdown `json:"source_breakdown"`
}

// Result is the scored outcome. An empty evidence list yields zero Factors.
type Result struct {
	Score         float64  `json:"score"`
	MaxPhase      float64  `json:"max_phase"`
	EvidenceCount int      `json:"evidence_count"`
	SourceCount   int      `json:"source_count"`
	Mechanism     string   `json:"mechanism,omitempty"`
	EvidenceTypes []string `json:"evidence_types"`
	Reasoning     string   `json:"reasoning"`
	Factors       *Factors `json:"factors"`
}

// Confidence is Score rescaled to 0-1.
func (r Result) Confidence() float64 {
	return r.Score / 100
}

type sourceBucket int

const (
	bucketDatabase sourceBucket = iota
	bucketExpert
	bucketTextMining
)

var (
	expertMarkers     = []string{"chembl", "fda", "drugbank", "ttd", "dailymed"}
	textMiningMarkers = []string{"europepmc", "pubmed", "mining", "literature"}

	highQualityMarkers = []string{"chembl", "fda", "drugbank", "ttd", "dailymed", "expert", "curated_manual"}
	lowQualityMarkers  = []string{"europepmc", "pubmed", "mining", "automated", "literature"}

	preclinicalSources = map[string]bool{"animal": true, "preclinical": true, "in_vivo": true}
)

// Score computes the confidence result for records. It never fails; an
// empty list yields a zero result.
func Score(records []evidence.Record) Result {
	if len(records) == 0 {
		return Result{
			EvidenceTypes: []string{},
			Reasoning:     noEvidence,
			Factors:       &Factors{},
		}
	}

	maxPhase, mechanism := maxPhaseOf(records)
	tags := collectTags(records)
	sourceCount := len(tags.unique)
	distinctMechanisms := countMechanisms(records)
	preclinical := hasPreclinicalSource(records)

	ets := evidenceTierScore(maxPhase, preclinical)
	ecs := sourceCountScore(sourceCount)
	eqs := qualityScore(tags)
	cs := consistencyScore(distinctMechanisms)

	weighted := weightETS*ets + weightECS*ecs + weightEQS*eqs + weightCS*cs
	score := math.Min(weighted*100*depthBonus(len(records)), 100)

	reasons := []string{
		tierLabel(maxPhase, preclinical),
		sourcePhrase(sourceCount),
	}
	if tags.breakdown.Expert > 0 {
		reasons = append(reasons, "expert-curated")
	} else if tags.breakdown.TextMining > 0 && tags.breakdown.TextMining == tags.breakdown.total() {
		reasons = append(reasons, "⚠ text-mining only")
	}
	if distinctMechanisms > 2 {
		reasons = append(reasons, "⚠ "+itoa(distinctMechanisms)+" different mechanisms reported")
	}
	if mechanism != "" && distinctMechanisms == 1 {
		reasons = append(reasons, "(via "+mechanism+")")
	}

	return Result{
		Score:         round(score, 1),
		MaxPhase:      maxPhase,
		EvidenceCount: len(records),
		SourceCount:   sourceCount,
		Mechanism:     mechanism,
		EvidenceTypes: tags.sorted(),
		Reasoning:     strings.Join(reasons, reasonSeparator),
		Factors: &Factors{
			ETS:             round(ets, 3),
			ECS:             round(ecs, 3),
			EQS:             round(eqs, 3),
			CS:              round(cs, 3),
			WeightedScore:   round(weighted, 3),
			SourceBreakdown: tags.breakdown,
		},
	}
}

// maxPhaseOf returns the highest phase and the mechanism of the first record
// reaching it. A list with no positive phase reports phase 0 and no mechanism.
func maxPhaseOf(records []evidence.Record) (float64, string) {
	var maxPhase float64
	var mechanism string
	for _, r := range records {
		if r.Phase > maxPhase {
			maxPhase = r.Phase
			mechanism = r.MechanismOfAction
		}
	}
	return maxPhase, mechanism
}

func hasPreclinicalSource(records []evidence.Record) bool {
	for _, r := range records {
		if preclinicalSources[strings.ToLower(r.Source)] {
			return true
		}
	}
	return false
}

func evidenceTierScore(maxPhase float64, preclinical bool) float64 {
	switch maxPhase {
	case 4:
		return 1.0
	case 3:
		return 0.85
	case 2:
		return 0.65
	case 1:
		return 0.45
	case 0.5:
		return 0.35
	}
	if preclinical {
		return 0.25
	}
	return 0.15
}

func tierLabel(maxPhase float64, preclinical bool) string {
	switch maxPhase {
	case 4:
		return "FDA approved with strong clinical evidence"
	case 3:
		return "Late-stage clinical trials (Phase 3)"
	case 2:
		return "Mid-stage clinical trials (Phase 2)"
	case 1:
		return "Early-stage clinical trials (Phase 1)"
	case 0.5:
		return "Early clinical trials (Phase 0.5)"
	}
	if preclinical {
		return "Preclinical evidence only"
	}
	return "Literature-based evidence only"
}

func sourceCountScore(n int) float64 {
	switch {
	case n == 0:
		return 0.10
	case n >= 10:
		return 1.0
	case n >= 7:
		return 0.95
	case n >= 5:
		return 0.85
	case n >= 3:
		return 0.70
	case n == 2:
		return 0.50
	default:
		return 0.30
	}
}

func sourcePhrase(n int) string {
	switch {
	case n == 0:
		return "⚠ no source information"
	case n >= 10:
		return "extensively replicated (" + itoa(n) + " independent sources)"
	case n >= 7:
		return "highly replicated (" + itoa(n) + " independent sources)"
	case n >= 5:
		return "well-supported (" + itoa(n) + " sources)"
	case n >= 3:
		return "moderately supported (" + itoa(n) + " sources)"
	case n == 2:
		return "2 sources"
	default:
		return "⚠ single source"
	}
}

type tagSet struct {
	unique    map[string]struct{}
	qualities []float64
	breakdown SourceBreakdown
}

// collectTags gathers the row-level tag of every record and every non-empty
// reference source. Uniqueness is exact string equality.
func collectTags(records []evidence.Record) tagSet {
	ts := tagSet{unique: make(map[string]struct{})}
	for _, r := range records {
		if src := r.EvidenceSource(); src != "" {
			ts.add(src)
		}
		for _, ref := range r.References {
			if ref.Source != "" {
				ts.add(ref.Source)
			}
		}
	}
	return ts
}

func (ts *tagSet) add(tag string) {
	ts.unique[tag] = struct{}{}

	lower := strings.ToLower(tag)
	switch classify(lower) {
	case bucketExpert:
		ts.breakdown.Expert++
	case bucketTextMining:
		ts.breakdown.TextMining++
	default:
		ts.breakdown.Database++
	}
	ts.qualities = append(ts.qualities, quality(lower))
}

func (ts tagSet) sorted() []string {
	out := make([]string, 0, len(ts.unique))
	for tag := range ts.unique {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func classify(lower string) sourceBucket {
	if containsAny(lower, expertMarkers) {
		return bucketExpert
	}
	if containsAny(lower, textMiningMarkers) {
		return bucketTextMining
	}
	return bucketDatabase
}

func quality(lower string) float64 {
	if containsAny(lower, highQualityMarkers) {
		return 1.0
	}
	if containsAny(lower, lowQualityMarkers) {
		return 0.5
	}
	return 0.75
}

func qualityScore(ts tagSet) float64 {
	eqs := 0.50
	if len(ts.qualities) > 0 {
		var maxQ, sum float64
		for _, q := range ts.qualities {
			sum += q
			if q > maxQ {
				maxQ = q
			}
		}
		eqs = 0.6*maxQ + 0.4*(sum/float64(len(ts.qualities)))
	}
	b := ts.breakdown
	if b.TextMining > 0 && b.Expert == 0 && b.Database == 0 {
		eqs *= 0.7
	}
	return eqs
}

func countMechanisms(records []evidence.Record) int {
	distinct := make(map[string]struct{})
	for _, r := range records {
		if m := strings.ToLower(strings.TrimSpace(r.MechanismOfAction)); m != "" {
			distinct[m] = struct{}{}
		}
	}
	return len(distinct)
}

func consistencyScore(distinct int) float64 {
	switch {
	case distinct <= 1:
		return 1.0
	case distinct == 2:
		return 0.80
	case distinct == 3:
		return 0.55
	default:
		return 0.30
	}
}

func depthBonus(n int) float64 {
	switch {
	case n >= 20:
		return 1.05
	case n >= 10:
		return 1.03
	case n >= 5:
		return 1.01
	default:
		return 1.0
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
