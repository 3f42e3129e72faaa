package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imatinibRow(phase float64, moa string, sources ...string) Record {
	refs := make([]Reference, len(sources))
	for i, s := range sources {
		refs[i] = Reference{Source: s, URLs: []string{"https://example.org/" + s}}
	}
	return Record{
		Drug:              DrugRef{ID: "CHEMBL941", Name: "IMATINIB"},
		Target:            TargetRef{ID: "ENSG00000097007", ApprovedSymbol: "ABL1"},
		DrugType:          "Small molecule",
		Phase:             phase,
		MechanismOfAction: moa,
		References:        refs,
	}
}

func TestAggregate_MergesByKey(t *testing.T) {
	rows := []Record{
		imatinibRow(4, "BCR-ABL inhibitor", "FDA", "DailyMed"),
		imatinibRow(4, "BCR-ABL inhibitor", "DailyMed", "EMA", ""),
		imatinibRow(3, "BCR-ABL inhibitor", "ClinicalTrials"),
		imatinibRow(4, "KIT inhibitor", "FDA"),
	}

	got := Aggregate(rows)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"FDA", "DailyMed", "EMA"}, got[0].ReferenceSources())
	assert.Equal(t, float64(3), got[1].Phase)
	assert.Equal(t, "KIT inhibitor", got[2].MechanismOfAction)
	assert.Equal(t, "Small molecule", got[0].DrugType)
}

func TestAggregate_Idempotent(t *testing.T) {
	rows := []Record{
		imatinibRow(4, "BCR-ABL inhibitor", "FDA", "FDA"),
		imatinibRow(4, "BCR-ABL inhibitor", "EMA"),
		imatinibRow(2, "", "ClinicalTrials"),
	}

	once := Aggregate(rows)
	twice := Aggregate(once)
	assert.Equal(t, once, twice)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	rows := []Record{imatinibRow(4, "x", "FDA"), imatinibRow(4, "x", "EMA")}
	_ = Aggregate(rows)
	assert.Equal(t, []string{"FDA"}, rows[0].ReferenceSources())
}

func TestAggregate_DropsEvidenceLevelTags(t *testing.T) {
	a := imatinibRow(0, "BCR-ABL inhibitor", "Reactome")
	a.Source = "animal"
	b := imatinibRow(0, "BCR-ABL inhibitor", "Reactome")
	b.Source = "Foo"
	b.DatasourceID = "chembl"

	forward := Aggregate([]Record{a, b})
	reverse := Aggregate([]Record{b, a})

	require.Len(t, forward, 1)
	assert.Equal(t, forward, reverse)
	assert.Empty(t, forward[0].Source)
	assert.Empty(t, forward[0].DatasourceID)
	assert.Equal(t, "animal", a.Source)
}

func TestInferSources(t *testing.T) {
	tests := []struct {
		name  string
		in    Record
		wants []string
	}{
		{"approved with mechanism", imatinibRow(4, "inhibitor", "ChEMBL"),
			[]string{"ChEMBL", "ChEMBL", "FDA", "DailyMed", "ClinicalTrials.gov", "DrugBank"}},
		{"phase 2 without mechanism", imatinibRow(2, ""),
			[]string{"ChEMBL", "ClinicalTrials.gov"}},
		{"early trial", imatinibRow(0.5, ""),
			[]string{"ChEMBL"}},
		{"preclinical with mechanism", imatinibRow(0, "agonist"),
			[]string{"ChEMBL", "DrugBank"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferSources([]Record{tt.in})
			require.Len(t, got, 1)
			assert.Equal(t, tt.wants, got[0].ReferenceSources())
		})
	}
}

func TestProcess(t *testing.T) {
	got := Process([]Record{
		imatinibRow(4, "", "ChEMBL"),
		imatinibRow(4, "", "ChEMBL"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, []string{"ChEMBL", "ChEMBL", "FDA", "DailyMed", "ClinicalTrials.gov"}, got[0].ReferenceSources())

	assert.Empty(t, Process(nil))
}

func TestEvidenceSource(t *testing.T) {
	assert.Equal(t, "chembl", Record{DatasourceID: "chembl", Source: "x", DrugType: "y"}.EvidenceSource())
	assert.Equal(t, "animal", Record{Source: "animal", DrugType: "y"}.EvidenceSource())
	assert.Equal(t, "Antibody", Record{DrugType: "Antibody"}.EvidenceSource())
	assert.Empty(t, Record{}.EvidenceSource())
}
