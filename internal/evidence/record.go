// Package evidence models drug-target interaction evidence and merges
// duplicate rows before scoring.
package evidence

// DrugRef identifies the drug side of an interaction.
type DrugRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// TargetRef identifies the target side of an interaction.
type TargetRef struct {
	ID             string `json:"id,omitempty"`
	ApprovedSymbol string `json:"approvedSymbol,omitempty"`
}

type Reference struct {
	Source string   `json:"source"`
	URLs   []string `json:"urls"`
}

// Record is one reported interaction fact. Phase runs from 0 (preclinical)
// to 4 (approved), with 0.5 for early trials.
type Record struct {
	Drug              DrugRef     `json:"drug"`
	Target            TargetRef   `json:"target"`
	DrugType          string      `json:"drugType,omitempty"`
	Phase             float64     `json:"phase"`
	MechanismOfAction string      `json:"mechanismOfAction,omitempty"`
	References        []Reference `json:"references"`

	// Evidence-level provenance, set by sources that tag whole rows.
	DatasourceID string `json:"datasourceId,omitempty"`
	Source       string `json:"source,omitempty"`
}

// EvidenceSource is the row-level source tag: the first non-empty of
// DatasourceID, Source and DrugType.
func (r Record) EvidenceSource() string {
	switch {
	case r.DatasourceID != "":
		return r.DatasourceID
	case r.Source != "":
		return r.Source
	default:
		return r.DrugType
	}
}

// ReferenceSources returns the non-empty reference sources in order,
// duplicates included.
func (r Record) ReferenceSources() []string {
	out := make([]string, 0, len(r.References))
	for _, ref := range r.References {
		if ref.Source != "" {
			out = append(out, ref.Source)
		}
	}
	return out
}

func (r Record) clone() Record {
	c := r
	c.References = cloneReferences(r.References)
	return c
}

func cloneReferences(refs []Reference) []Reference {
	if refs == nil {
		return nil
	}
	out := make([]Reference, len(refs))
	for i, ref := range refs {
		out[i] = Reference{Source: ref.Source, URLs: append([]string(nil), ref.URLs...)}
	}
	return out
}
