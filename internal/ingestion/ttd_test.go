package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioinsight/backend/internal/storage/models"
)

type recordingSink struct {
	drugs        []models.Drug
	targets      []models.Target
	interactions []models.Interaction
	err          error
}

func (r *recordingSink) UpsertDrug(_ context.Context, d models.Drug) error {
	r.drugs = append(r.drugs, d)
	return r.err
}

func (r *recordingSink) UpsertTarget(_ context.Context, t models.Target) error {
	r.targets = append(r.targets, t)
	return r.err
}

func (r *recordingSink) AddInteraction(_ context.Context, in models.Interaction) error {
	r.interactions = append(r.interactions, in)
	return r.err
}

const drugFile = `TTD Drug download
D001	DRUG__ID	D001
D001	TRADNAME	Gleevec
D001	DRUGCOMP	Novartis
D001	THERCLAS	Antineoplastic
D002	DRUG__ID	D002
D002	THERCLAS	Analgesic
`

const targetFile = `T001	TARGETID	T001
T001	TARGNAME	BCR-ABL fusion protein
T001	TARG_SYM	BCR-ABL1
T001	DRUGINFO	D001	Imatinib	Approved
T001	DRUGINFO	D009	Asciminib
T001	DRUGINFO	D010
T002	TARGETID	T002
T002	TARGNAME	Cyclooxygenase-2
`

func TestParseDrugs(t *testing.T) {
	sink := &recordingSink{}
	stats, err := ParseDrugs(context.Background(), strings.NewReader(drugFile), sink)
	require.NoError(t, err)

	assert.Equal(t, ParseStats{Drugs: 2, Skipped: 1}, stats)
	assert.Equal(t, []models.Drug{
		{ID: "D001", Name: "Gleevec", Company: "Novartis", TherapeuticClass: "Antineoplastic"},
		{ID: "D002", TherapeuticClass: "Analgesic"},
	}, sink.drugs)
}

func TestParseTargets(t *testing.T) {
	sink := &recordingSink{}
	stats, err := ParseTargets(context.Background(), strings.NewReader(targetFile), sink)
	require.NoError(t, err)

	assert.Equal(t, ParseStats{Targets: 2, Interactions: 2, Skipped: 1}, stats)
	assert.Equal(t, []models.Target{
		{ID: "T001", Name: "BCR-ABL fusion protein", Symbol: "BCR-ABL1"},
		{ID: "T002", Name: "Cyclooxygenase-2"},
	}, sink.targets)
	assert.Equal(t, []models.Interaction{
		{TargetID: "T001", DrugID: "D001", DrugName: "Imatinib", ClinicalPhase: "Approved"},
		{TargetID: "T001", DrugID: "D009", DrugName: "Asciminib", ClinicalPhase: "Unknown"},
	}, sink.interactions)
}

func TestParse_SinkErrorStops(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	_, err := ParseTargets(context.Background(), strings.NewReader(targetFile), sink)
	assert.ErrorIs(t, err, sink.err)
	assert.Len(t, sink.interactions, 1)
}
