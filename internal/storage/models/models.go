package models

import "time"

// Drug is a TTD drug entry. Name may be empty until a DRUGINFO line fills it.
type Drug struct {
	ID               string `json:"drug_id"`
	Name             string `json:"name"`
	Company          string `json:"company,omitempty"`
	TherapeuticClass string `json:"therapeutic_class,omitempty"`
}

type Target struct {
	ID     string `json:"target_id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
}

// DisplayName is the text indexed for similarity search: "<name> (<symbol>)"
// when a symbol exists.
func (t Target) DisplayName() string {
	if t.Symbol == "" {
		return t.Name
	}
	return t.Name + " (" + t.Symbol + ")"
}

// Interaction is one TTD DRUGINFO row. ClinicalPhase is free text such as
// "Approved" or "Phase 2", or "Unknown" when the row carries none.
type Interaction struct {
	ID            int    `json:"id"`
	TargetID      string `json:"target_id"`
	DrugID        string `json:"drug_id"`
	DrugName      string `json:"drug_name"`
	ClinicalPhase string `json:"clinical_phase"`
}

// CorpusInteraction joins an interaction with its target.
type CorpusInteraction struct {
	Interaction
	TargetName   string `json:"target_name"`
	TargetSymbol string `json:"target_symbol,omitempty"`
}

type Analysis struct {
	ID               string    `json:"id"`
	Query            string    `json:"query,omitempty"`
	Drug             string    `json:"drug"`
	DrugID           string    `json:"drug_id,omitempty"`
	Target           string    `json:"target"`
	TargetID         string    `json:"target_id,omitempty"`
	Explanation      string    `json:"explanation"`
	ConfidenceScore  float64   `json:"confidence_score"`
	MaxPhase         float64   `json:"max_phase"`
	RawEvidenceCount int       `json:"raw_evidence_count"`
	SourceCount      int       `json:"source_count"`
	Mechanism        string    `json:"mechanism,omitempty"`
	Reasoning        string    `json:"reasoning"`
	Sources          []string  `json:"evidence_sources"`
	LatencyMS        int       `json:"latency_ms"`
	CreatedAt        time.Time `json:"created_at"`
}
