package evaluation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioinsight/backend/internal/resolution"
)

const datasetYAML = `
- query: How does Imatinib interact with BCR-ABL1?
  drug: Imatinib
  target: BCR-ABL1
- query: Does aspirin block COX-2?
  drug: Aspirin
  target: PTGS2
  category: alias
- query: it helps a lot
  drug: ""
  target: ""
  category: negative
`

type tableResolver map[string]resolution.Resolution

func (t tableResolver) Resolve(_ context.Context, q string) resolution.Resolution {
	return t[q]
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(datasetYAML), 0o600))

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, ds.Cases, 3)
	assert.Equal(t, "alias", ds.Cases[1].Category)
	assert.Equal(t, "PTGS2", ds.Cases[1].Target)

	_, err = LoadDataset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseDataset([]byte("- drug: x\n"))
	assert.ErrorContains(t, err, "no query")
}

func TestRun(t *testing.T) {
	ds, err := ParseDataset([]byte(datasetYAML))
	require.NoError(t, err)

	resolver := tableResolver{
		"How does Imatinib interact with BCR-ABL1?": {
			Drug:   &resolution.ResolvedEntity{CanonicalName: "Imatinib", Stage: resolution.StageDictionary},
			Target: &resolution.ResolvedEntity{CanonicalName: "BCR-ABL1", Stage: resolution.StageDictionary},
		},
		"Does aspirin block COX-2?": {
			Drug: &resolution.ResolvedEntity{CanonicalName: "ASPIRIN", Stage: resolution.StageAPI},
		},
	}

	report, err := NewEvaluator(resolver).Run(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalQueries)
	assert.Equal(t, 3, report.DrugCorrect)
	assert.Equal(t, 2, report.TargetCorrect)
	assert.Equal(t, 2, report.PairCorrect)
	assert.InDelta(t, 2.0/3.0, report.PairAccuracy, 1e-9)
	assert.Equal(t, map[string]int{"drug:dictionary": 1, "target:dictionary": 1, "drug:api": 1}, report.StageCounts)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "Does aspirin block COX-2?", report.Failures[0].Query)
	assert.True(t, report.Failures[0].DrugOK)
	assert.False(t, report.Failures[0].TargetOK)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEvaluator(tableResolver{}).Run(ctx, Dataset{Cases: []Case{{Query: "x"}}})
	assert.ErrorIs(t, err, context.Canceled)
}
