package matching

import "github.com/bioinsight/backend/internal/vector"

const (
	DefaultDrugCollection   = "drugs"
	DefaultTargetCollection = "targets"
)

// Baseline entries are upserted under stable seed ids so the corpora answer
// queries before any interaction data has been ingested.
var (
	baselineDrugs = []vector.Document{
		seed("seed_imatinib", "Imatinib"),
		seed("seed_aspirin", "Aspirin"),
		seed("seed_erlotinib", "Erlotinib"),
		seed("seed_gefitinib", "Gefitinib"),
		seed("seed_trastuzumab", "Trastuzumab"),
		seed("seed_fluoxetine", "Fluoxetine"),
		seed("seed_metformin", "Metformin"),
		seed("seed_paracetamol", "Paracetamol"),
		seed("seed_atorvastatin", "Atorvastatin"),
	}

	baselineTargets = []vector.Document{
		seed("seed_bcr_abl1", "BCR-ABL1"),
		seed("seed_ptgs1", "PTGS1 (COX-1)"),
		seed("seed_ptgs2", "PTGS2 (COX-2)"),
		seed("seed_egfr", "EGFR"),
		seed("seed_her2", "ERBB2 (HER2)"),
		seed("seed_serotonin", "SLC6A4 (Serotonin Transporter)"),
		seed("seed_pparg", "PPARG"),
		seed("seed_ampk", "PRKAA1 (AMPK)"),
		seed("seed_hmgcr", "HMGCR"),
	}
)

func seed(id, text string) vector.Document {
	return vector.Document{ID: id, Text: text, Metadata: map[string]string{"source": "seed"}}
}

// BaselineDrugs returns a copy of the seeded drug corpus.
func BaselineDrugs() []vector.Document {
	return append([]vector.Document(nil), baselineDrugs...)
}

// BaselineTargets returns a copy of the seeded target corpus.
func BaselineTargets() []vector.Document {
	return append([]vector.Document(nil), baselineTargets...)
}
