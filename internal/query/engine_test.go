package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioinsight/backend/internal/evidence"
	"github.com/bioinsight/backend/internal/llm"
	"github.com/bioinsight/backend/internal/opentargets"
	"github.com/bioinsight/backend/internal/resolution"
	"github.com/bioinsight/backend/internal/storage/models"
)

type fakeResolver struct {
	res resolution.Resolution
}

func (f fakeResolver) Resolve(_ context.Context, query string) resolution.Resolution {
	res := f.res
	res.Query = query
	return res
}

type fakeSource struct {
	targets map[string]opentargets.Hit
	records []evidence.Record

	fetched []string
	retries []int
}

func (f *fakeSource) ResolveTarget(_ context.Context, name string) (opentargets.Hit, bool) {
	hit, ok := f.targets[name]
	return hit, ok
}

func (f *fakeSource) FetchInteractions(_ context.Context, drug, targetID string, maxRetries int) []evidence.Record {
	f.fetched = append(f.fetched, drug+"->"+targetID)
	f.retries = append(f.retries, maxRetries)
	return f.records
}

type fakeNarrator struct {
	digests []evidence.Digest
	text    string
	err     error
}

func (f *fakeNarrator) Explain(_ context.Context, d evidence.Digest) (string, error) {
	f.digests = append(f.digests, d)
	if f.err != nil {
		return llm.ErrorExplanation, f.err
	}
	return f.text, nil
}

type fakeRecorder struct {
	saved []*models.Analysis
	err   error
}

func (f *fakeRecorder) RecordAnalysis(_ context.Context, a *models.Analysis) error {
	f.saved = append(f.saved, a)
	return f.err
}

func entity(name string, stage resolution.Stage) *resolution.ResolvedEntity {
	return &resolution.ResolvedEntity{CanonicalName: name, Stage: stage}
}

func imatinibRecords() []evidence.Record {
	return evidence.Process([]evidence.Record{{
		Drug:              evidence.DrugRef{ID: "CHEMBL941", Name: "IMATINIB"},
		Target:            evidence.TargetRef{ID: "ENSG00000097007", ApprovedSymbol: "ABL1"},
		DrugType:          "Small molecule",
		Phase:             4,
		MechanismOfAction: "Bcr/Abl fusion protein inhibitor",
		References:        []evidence.Reference{{Source: "FDA"}, {Source: "CHEMBL"}, {Source: "EUROPEPMC"}},
	}})
}

func TestProcessQuery_Analyzes(t *testing.T) {
	source := &fakeSource{
		targets: map[string]opentargets.Hit{"BCR-ABL1": {ID: "ENSG00000097007", Name: "ABL1", Entity: "target"}},
		records: imatinibRecords(),
	}
	narrator := &fakeNarrator{text: "Imatinib is an approved ABL1 inhibitor."}
	recorder := &fakeRecorder{}
	resolver := fakeResolver{res: resolution.Resolution{
		Drug:   entity("Imatinib", resolution.StageDictionary),
		Target: entity("BCR-ABL1", resolution.StageDictionary),
	}}

	engine := NewEngine(resolver, source, narrator, WithRecorder(recorder), WithMaxRetries(2))
	resp, err := engine.ProcessQuery(context.Background(), QueryRequest{Query: "How does Imatinib interact with BCR-ABL1?"})
	require.NoError(t, err)

	assert.False(t, resp.Insufficient)
	assert.Equal(t, Entities{Drug: "Imatinib", Target: "BCR-ABL1"}, resp.Entities)
	assert.Contains(t, resp.Reply, "**Imatinib** and **BCR-ABL1**")
	assert.Equal(t, []string{"Imatinib->ENSG00000097007"}, source.fetched)
	assert.Equal(t, []int{2}, source.retries)

	require.NotNil(t, resp.Data)
	data := resp.Data
	assert.Equal(t, "ABL1", data.Target, "the resolved target display name replaces the query name")
	assert.Equal(t, "ENSG00000097007", data.TargetID)
	assert.Equal(t, "Imatinib is an approved ABL1 inhibitor.", data.Explanation)
	assert.Equal(t, EvidenceType, data.EvidenceType)
	assert.Equal(t, 1, data.RawEvidenceCount)
	assert.InDelta(t, data.Score.Score/100, data.ConfidenceScore, 1e-9)
	assert.Equal(t, data.ConfidenceScore, resp.Confidence)
	assert.Equal(t, []string{"FDA", "CHEMBL", "EUROPEPMC", "ChEMBL", "DailyMed", "ClinicalTrials.gov", "DrugBank"}, data.EvidenceSources)

	require.Len(t, narrator.digests, 1)
	digest := narrator.digests[0]
	assert.Equal(t, data.ConfidenceScore, digest.Metadata.ConfidenceScore)
	assert.Equal(t, 4.0, digest.Metadata.MaxPhase)
	require.Len(t, digest.EvidenceItems, 1)
	assert.Equal(t, "ABL1", digest.EvidenceItems[0].Target)

	require.Len(t, recorder.saved, 1)
	saved := recorder.saved[0]
	assert.Equal(t, resp.ID, saved.ID)
	assert.Equal(t, "How does Imatinib interact with BCR-ABL1?", saved.Query)
	assert.Equal(t, "CHEMBL941", saved.DrugID)
	assert.Equal(t, "Bcr/Abl fusion protein inhibitor", saved.Mechanism)
}

func TestProcessQuery_Insufficient(t *testing.T) {
	source := &fakeSource{}
	narrator := &fakeNarrator{}
	recorder := &fakeRecorder{}
	resolver := fakeResolver{res: resolution.Resolution{Drug: entity("ASPIRIN", resolution.StageAPI)}}

	resp, err := NewEngine(resolver, source, narrator, WithRecorder(recorder)).
		ProcessQuery(context.Background(), QueryRequest{Query: "is aspirin good"})
	require.NoError(t, err)

	assert.True(t, resp.Insufficient)
	assert.Equal(t, statusReply, resp.Reply)
	assert.Zero(t, resp.Confidence)
	assert.Equal(t, Entities{Drug: "ASPIRIN"}, resp.Entities)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "ASPIRIN", resp.Data.Drug)
	assert.Equal(t, "✗ Not specified", resp.Data.Target)
	assert.Equal(t, InsufficientExplanation, resp.Data.Explanation)
	assert.Empty(t, resp.Data.EvidenceSources)

	assert.Empty(t, source.fetched)
	assert.Empty(t, narrator.digests)
	assert.Empty(t, recorder.saved)
}

func TestAnalyze_UnknownTarget(t *testing.T) {
	source := &fakeSource{}
	narrator := &fakeNarrator{text: llm.FallbackExplanation}

	result, err := NewEngine(fakeResolver{}, source, narrator).Analyze(context.Background(), "Aspirin", "Made-up protein")
	require.NoError(t, err)

	assert.Empty(t, source.fetched)
	assert.Equal(t, "Made-up protein", result.Target)
	assert.Empty(t, result.TargetID)
	assert.Zero(t, result.ConfidenceScore)
	assert.Zero(t, result.RawEvidenceCount)
	assert.Empty(t, result.EvidenceSources)
	assert.Equal(t, "No evidence found", result.Score.Reasoning)
	require.Len(t, narrator.digests, 1)
	assert.Empty(t, narrator.digests[0].EvidenceItems)
}

func TestAnalyze_NarratorAndRecorderFailuresAreNotFatal(t *testing.T) {
	source := &fakeSource{
		targets: map[string]opentargets.Hit{"ABL1": {ID: "ENSG00000097007", Name: "ABL1"}},
		records: imatinibRecords(),
	}
	narrator := &fakeNarrator{err: errors.New("model not loaded")}
	recorder := &fakeRecorder{err: errors.New("disk full")}

	result, err := NewEngine(fakeResolver{}, source, narrator, WithRecorder(recorder)).
		Analyze(context.Background(), "Imatinib", "ABL1")
	require.NoError(t, err)
	assert.Equal(t, llm.ErrorExplanation, result.Explanation)
	assert.Greater(t, result.ConfidenceScore, 0.0)
	assert.Len(t, recorder.saved, 1)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(fakeResolver{}, &fakeSource{}, &fakeNarrator{}).Analyze(ctx, "Imatinib", "ABL1")
	assert.ErrorIs(t, err, context.Canceled)
}
