package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioinsight/backend/internal/evidence"
)

func sampleDigest(confidence float64) evidence.Digest {
	return evidence.NewDigest(evidence.DigestMetadata{
		ConfidenceScore: confidence,
		MaxPhase:        4,
		UniqueSources:   4,
		Reasoning:       "FDA approved with strong clinical evidence",
	}, []evidence.Record{{
		Drug:       evidence.DrugRef{ID: "CHEMBL941", Name: "IMATINIB"},
		Phase:      4,
		References: []evidence.Reference{{Source: "ChEMBL"}},
	}}, "BCR-ABL1")
}

func TestNarrator_FallbackSkipsModel(t *testing.T) {
	gen := &fakeGenerator{out: "should not be used"}
	n := NewNarrator(gen)

	out, err := n.Explain(context.Background(), sampleDigest(0))
	require.NoError(t, err)
	assert.Equal(t, FallbackExplanation, out)

	empty := sampleDigest(0.9)
	empty.EvidenceItems = nil
	out, err = n.Explain(context.Background(), empty)
	require.NoError(t, err)
	assert.Equal(t, FallbackExplanation, out)

	assert.Empty(t, gen.prompts)
}

func TestNarrator_Explain(t *testing.T) {
	gen := &fakeGenerator{out: "<think>draft</think>\nImatinib inhibits BCR-ABL1 (confidence 0.92, 4 sources).\n"}
	out, err := NewNarrator(gen).Explain(context.Background(), sampleDigest(0.921))

	require.NoError(t, err)
	assert.Equal(t, "Imatinib inhibits BCR-ABL1 (confidence 0.92, 4 sources).", out)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "You are a strict biomedical data reporter.")
	assert.Contains(t, gen.prompts[0], "Data to summarize:\n{\n  \"metadata\"")
	assert.Contains(t, gen.prompts[0], `"confidence_score": 0.921`)
	assert.Contains(t, gen.prompts[0], "TASK: Provide a factual summary")
}

func TestNarrator_GenerationError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	out, err := NewNarrator(gen).Explain(context.Background(), sampleDigest(0.5))
	assert.Error(t, err)
	assert.Equal(t, ErrorExplanation, out)
}
