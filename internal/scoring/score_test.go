package scoring

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioinsight/backend/internal/evidence"
)

func record(phase float64, moa string, sources ...string) evidence.Record {
	refs := make([]evidence.Reference, len(sources))
	for i, s := range sources {
		refs[i] = evidence.Reference{Source: s, URLs: []string{}}
	}
	return evidence.Record{
		Drug:              evidence.DrugRef{ID: "CHEMBL941", Name: "IMATINIB"},
		Target:            evidence.TargetRef{ID: "ENSG00000097007"},
		Phase:             phase,
		MechanismOfAction: moa,
		References:        refs,
	}
}

func TestScore_Empty(t *testing.T) {
	got := Score(nil)

	assert.Equal(t, 0.0, got.Score)
	assert.Equal(t, 0, got.EvidenceCount)
	assert.Equal(t, 0, got.SourceCount)
	assert.Equal(t, 0.0, got.MaxPhase)
	assert.Empty(t, got.EvidenceTypes)
	assert.NotNil(t, got.EvidenceTypes)
	assert.Equal(t, "No evidence found", got.Reasoning)
	require.NotNil(t, got.Factors)
	assert.Equal(t, Factors{}, *got.Factors)

	body, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"factors":null`)
}

func TestScore_ApprovedSingleReference(t *testing.T) {
	records := evidence.Process([]evidence.Record{record(4, "", "ChEMBL")})
	got := Score(records)

	require.NotNil(t, got.Factors)
	assert.Equal(t, 4, got.SourceCount)
	assert.Equal(t, []string{"ChEMBL", "ClinicalTrials.gov", "DailyMed", "FDA"}, got.EvidenceTypes)
	assert.Equal(t, 1.0, got.Factors.ETS)
	assert.Equal(t, 0.70, got.Factors.ECS)
	assert.Equal(t, 0.98, got.Factors.EQS)
	assert.Equal(t, 1.0, got.Factors.CS)
	assert.Equal(t, 0.921, got.Factors.WeightedScore)
	assert.Equal(t, 92.1, got.Score)
	assert.InDelta(t, 0.921, got.Confidence(), 1e-9)
	assert.Equal(t,
		"FDA approved with strong clinical evidence • moderately supported (4 sources) • expert-curated",
		got.Reasoning)
}

func TestScore_MechanismNormalization(t *testing.T) {
	got := Score([]evidence.Record{
		record(2, "BCR-ABL inhibitor", "ChEMBL"),
		record(2, "  bcr-abl INHIBITOR ", "ChEMBL"),
		record(1, "KIT inhibitor", "ChEMBL"),
	})

	require.NotNil(t, got.Factors)
	assert.Equal(t, 0.80, got.Factors.CS)
	assert.Equal(t, "BCR-ABL inhibitor", got.Mechanism)
	assert.NotContains(t, got.Reasoning, "(via")
	assert.NotContains(t, got.Reasoning, "different mechanisms")
}

func TestScore_ConsistencyBuckets(t *testing.T) {
	for distinct, want := range map[int]float64{0: 1.0, 1: 1.0, 2: 0.80, 3: 0.55, 4: 0.30, 6: 0.30} {
		records := []evidence.Record{record(3, "", "ChEMBL")}
		for i := 0; i < distinct; i++ {
			records = append(records, record(3, fmt.Sprintf("mechanism %d", i), "ChEMBL"))
		}
		got := Score(records)
		require.NotNil(t, got.Factors)
		assert.Equal(t, want, got.Factors.CS, "distinct=%d", distinct)
		if distinct > 2 {
			assert.Contains(t, got.Reasoning, fmt.Sprintf("⚠ %d different mechanisms reported", distinct))
		}
	}
}

func TestScore_SingleMechanismIsReported(t *testing.T) {
	got := Score([]evidence.Record{record(3, "BCR-ABL inhibitor", "ChEMBL", "EMA")})
	assert.Equal(t,
		"Late-stage clinical trials (Phase 3) • 2 sources • expert-curated • (via BCR-ABL inhibitor)",
		got.Reasoning)
}

func TestScore_TextMiningOnly(t *testing.T) {
	got := Score([]evidence.Record{{DatasourceID: "europepmc"}})

	require.NotNil(t, got.Factors)
	assert.Equal(t, 0.15, got.Factors.ETS)
	assert.Equal(t, 0.30, got.Factors.ECS)
	assert.Equal(t, 0.35, got.Factors.EQS)
	assert.Equal(t, SourceBreakdown{TextMining: 1}, got.Factors.SourceBreakdown)
	assert.Equal(t, 35.5, got.Score)
	assert.Equal(t, "Literature-based evidence only • ⚠ single source • ⚠ text-mining only", got.Reasoning)
}

func TestScore_Preclinical(t *testing.T) {
	got := Score([]evidence.Record{{Source: "Animal"}})

	require.NotNil(t, got.Factors)
	assert.Equal(t, 0.25, got.Factors.ETS)
	assert.Contains(t, got.Reasoning, "Preclinical evidence only")
}

func TestScore_EarlyTrial(t *testing.T) {
	got := Score([]evidence.Record{record(0.5, "", "ChEMBL")})
	require.NotNil(t, got.Factors)
	assert.Equal(t, 0.35, got.Factors.ETS)
	assert.Contains(t, got.Reasoning, "Early clinical trials (Phase 0.5)")
}

func TestScore_NoSources(t *testing.T) {
	got := Score([]evidence.Record{record(1, "")})

	require.NotNil(t, got.Factors)
	assert.Equal(t, 0, got.SourceCount)
	assert.Equal(t, 0.10, got.Factors.ECS)
	assert.Equal(t, 0.50, got.Factors.EQS)
	assert.Contains(t, got.Reasoning, "⚠ no source information")
}

func TestScore_SourceCountBuckets(t *testing.T) {
	tests := []struct {
		n      int
		ecs    float64
		phrase string
	}{
		{1, 0.30, "⚠ single source"},
		{2, 0.50, "2 sources"},
		{3, 0.70, "moderately supported (3 sources)"},
		{5, 0.85, "well-supported (5 sources)"},
		{7, 0.95, "highly replicated (7 independent sources)"},
		{10, 1.0, "extensively replicated (10 independent sources)"},
	}
	for _, tt := range tests {
		sources := make([]string, tt.n)
		for i := range sources {
			sources[i] = fmt.Sprintf("source-%d", i)
		}
		got := Score([]evidence.Record{record(2, "", sources...)})
		require.NotNil(t, got.Factors)
		assert.Equal(t, tt.ecs, got.Factors.ECS, "n=%d", tt.n)
		assert.Contains(t, got.Reasoning, tt.phrase)
	}
}

func TestScore_EvidenceLevelTagsOnlyAdd(t *testing.T) {
	r := record(3, "", "FDA", "EMA")
	base := Score([]evidence.Record{r})

	r.DatasourceID = "chembl"
	withTag := Score([]evidence.Record{r})

	assert.Equal(t, 2, base.SourceCount)
	assert.Equal(t, 3, withTag.SourceCount)
	assert.GreaterOrEqual(t, withTag.SourceCount, base.SourceCount)
}

func TestScore_ProcessedOrderIndependent(t *testing.T) {
	a := record(0, "BCR-ABL inhibitor", "Reactome")
	a.Source = "animal"
	b := record(0, "BCR-ABL inhibitor", "Reactome")
	b.Source = "Foo"

	forward := Score(evidence.Process([]evidence.Record{a, b}))
	reverse := Score(evidence.Process([]evidence.Record{b, a}))

	assert.Equal(t, forward, reverse)
	assert.Equal(t, []string{"ChEMBL", "DrugBank", "Reactome"}, forward.EvidenceTypes)
	assert.Equal(t, 0.15, forward.Factors.ETS)
}

func TestScore_SourceUniquenessIsCaseSensitive(t *testing.T) {
	got := Score([]evidence.Record{record(3, "", "ChEMBL", "chembl", "ChEMBL")})
	assert.Equal(t, 2, got.SourceCount)
}

func TestScore_PhaseMonotonic(t *testing.T) {
	var prevETS, prevScore float64
	for _, phase := range []float64{1, 2, 3, 4} {
		got := Score([]evidence.Record{record(phase, "inhibitor", "ChEMBL", "EMA")})
		require.NotNil(t, got.Factors)
		assert.GreaterOrEqual(t, got.Factors.ETS, prevETS)
		assert.GreaterOrEqual(t, got.Score, prevScore)
		prevETS, prevScore = got.Factors.ETS, got.Score
	}
}

func TestScore_DepthBonusAndCap(t *testing.T) {
	five := make([]evidence.Record, 5)
	for i := range five {
		five[i] = record(3, "", "ChEMBL")
	}
	got := Score(five)
	require.NotNil(t, got.Factors)
	assert.Equal(t, 5, got.EvidenceCount)
	assert.InDelta(t, got.Factors.WeightedScore*100*1.01, got.Score, 0.1)

	sources := make([]string, 10)
	for i := range sources {
		sources[i] = fmt.Sprintf("chembl-%d", i)
	}
	many := make([]evidence.Record, 20)
	for i := range many {
		many[i] = record(4, "", sources...)
	}
	capped := Score(many)
	assert.Equal(t, 100.0, capped.Score)
}
