package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioinsight/backend/internal/matching"
	"github.com/bioinsight/backend/internal/storage/models"
	"github.com/bioinsight/backend/internal/storage/sqlite"
	"github.com/bioinsight/backend/internal/vector"
)

type sliceSource struct {
	drugs   []models.Drug
	targets []models.Target
}

func (s sliceSource) EachDrugBatch(_ context.Context, size int, fn func([]models.Drug) error) error {
	for i := 0; i < len(s.drugs); i += size {
		end := i + size
		if end > len(s.drugs) {
			end = len(s.drugs)
		}
		if err := fn(s.drugs[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s sliceSource) EachTargetBatch(_ context.Context, size int, fn func([]models.Target) error) error {
	for i := 0; i < len(s.targets); i += size {
		end := i + size
		if end > len(s.targets) {
			end = len(s.targets)
		}
		if err := fn(s.targets[i:end]); err != nil {
			return err
		}
	}
	return nil
}

type recordingIndexer struct {
	drugBatches   [][]vector.Document
	targetBatches [][]vector.Document
}

func (r *recordingIndexer) AddDrugs(_ context.Context, docs []vector.Document) error {
	r.drugBatches = append(r.drugBatches, docs)
	return nil
}

func (r *recordingIndexer) AddTargets(_ context.Context, docs []vector.Document) error {
	r.targetBatches = append(r.targetBatches, docs)
	return nil
}

func TestPopulateIndex_Batches(t *testing.T) {
	src := sliceSource{
		drugs: []models.Drug{
			{ID: "D1", Name: "Imatinib", TherapeuticClass: "Antineoplastic"},
			{ID: "D2", Name: "Aspirin"},
			{ID: "D3", Name: "Erlotinib"},
		},
		targets: []models.Target{
			{ID: "T1", Name: "Cyclooxygenase-2", Symbol: "PTGS2"},
			{ID: "T2", Name: "Unnamed symbol-less target"},
		},
	}
	idx := &recordingIndexer{}

	stats, err := PopulateIndex(context.Background(), src, idx, 2)
	require.NoError(t, err)

	assert.Equal(t, IndexStats{Drugs: 3, Targets: 2}, stats)
	require.Len(t, idx.drugBatches, 2)
	assert.Len(t, idx.drugBatches[0], 2)
	assert.Equal(t, vector.Document{ID: "D1", Text: "Imatinib", Metadata: map[string]string{"therapeutic_class": "Antineoplastic"}},
		idx.drugBatches[0][0])
	require.Len(t, idx.targetBatches, 1)
	assert.Equal(t, "Cyclooxygenase-2 (PTGS2)", idx.targetBatches[0][0].Text)
	assert.Equal(t, "Unnamed symbol-less target", idx.targetBatches[0][1].Text)
	assert.Equal(t, "PTGS2", idx.targetBatches[0][0].Metadata["symbol"])
}

func TestProcessor_IngestAndIndex(t *testing.T) {
	dir := t.TempDir()
	drugPath := filepath.Join(dir, "drugs.txt")
	targetPath := filepath.Join(dir, "targets.txt")
	require.NoError(t, os.WriteFile(drugPath, []byte(drugFile), 0o600))
	require.NoError(t, os.WriteFile(targetPath, []byte(targetFile), 0o600))

	db, err := sqlite.NewClient(filepath.Join(dir, "corpus.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.InitSchema())

	ctx := context.Background()
	m := matching.NewMatcher(vector.NewMemoryIndex(nil))
	p := NewProcessor(db, m)

	stats, err := p.IngestFiles(ctx, drugPath, targetPath)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Drugs)
	assert.Equal(t, 2, stats.Interactions)

	counts, err := db.CorpusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Drugs, "D009 is created from its DRUGINFO line")
	assert.Equal(t, 2, counts.NamedDrugs, "D002 has no trade name so it stays unnamed")

	idxStats, err := p.PopulateIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, IndexStats{Drugs: 2, Targets: 2}, idxStats)

	got, err := m.SearchCandidates(ctx, []string{"Asciminib", "Cyclooxygenase-2"})
	require.NoError(t, err)
	assert.Equal(t, "Asciminib", got.Drug)
	assert.Equal(t, "Cyclooxygenase-2", got.Target)
}

func TestProcessor_MissingFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	db, err := sqlite.NewClient(filepath.Join(dir, "corpus.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.InitSchema())

	stats, err := NewProcessor(db, nil).IngestFiles(context.Background(),
		filepath.Join(dir, "nope-drugs.txt"), filepath.Join(dir, "nope-targets.txt"))
	require.NoError(t, err)
	assert.Equal(t, ParseStats{}, stats)
}
