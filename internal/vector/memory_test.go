package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_CaseInsensitive(t *testing.T) {
	e := NewHashEmbedder(0)
	vecs, err := e.Embed(context.Background(), []string{"Imatinib", "imatinib", "Paracetamol", ""})
	require.NoError(t, err)

	assert.Equal(t, DefaultHashDimension, e.Dimension())
	assert.InDelta(t, 0, SquaredL2(vecs[0], vecs[1]), 1e-6)
	assert.Greater(t, SquaredL2(vecs[0], vecs[2]), float32(1.0))
	assert.Equal(t, float32(0), SquaredL2(vecs[3], make([]float32, DefaultHashDimension)))
}

func TestMemoryIndex_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(nil)

	require.NoError(t, idx.Upsert(ctx, "drugs", []Document{
		{ID: "seed_imatinib", Text: "Imatinib"},
		{ID: "seed_aspirin", Text: "Aspirin"},
		{ID: "seed_metformin", Text: "Metformin"},
	}))

	res, err := idx.Query(ctx, "drugs", []string{"imatinib", "asprin"}, 1)
	require.NoError(t, err)
	require.Len(t, res, 2)

	require.Len(t, res[0], 1)
	assert.Equal(t, "seed_imatinib", res[0][0].ID)
	assert.InDelta(t, 0, res[0][0].Distance, 1e-6)

	require.Len(t, res[1], 1)
	assert.Equal(t, "Aspirin", res[1][0].Text)
	assert.Greater(t, res[1][0].Distance, float32(0))
}

func TestMemoryIndex_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(nil)
	docs := []Document{{ID: "seed_egfr", Text: "EGFR"}}

	require.NoError(t, idx.Upsert(ctx, "targets", docs))
	require.NoError(t, idx.Upsert(ctx, "targets", docs))
	assert.Equal(t, 1, idx.Count("targets"))

	require.NoError(t, idx.Upsert(ctx, "targets", []Document{{ID: "seed_egfr", Text: "EGFR (ErbB1)"}}))
	res, err := idx.Query(ctx, "targets", []string{"EGFR"}, 5)
	require.NoError(t, err)
	require.Len(t, res[0], 1)
	assert.Equal(t, "EGFR (ErbB1)", res[0][0].Text)
}

func TestMemoryIndex_EmptyCollection(t *testing.T) {
	idx := NewMemoryIndex(nil)
	res, err := idx.Query(context.Background(), "missing", []string{"x"}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Empty(t, res[0])
}

func TestMemoryIndex_RejectsMissingID(t *testing.T) {
	idx := NewMemoryIndex(nil)
	err := idx.Upsert(context.Background(), "drugs", []Document{{Text: "no id"}})
	assert.Error(t, err)
}
