package evidence

type groupKey struct {
	drugID    string
	targetID  string
	phase     float64
	mechanism string
}

func keyOf(r Record) groupKey {
	return groupKey{
		drugID:    r.Drug.ID,
		targetID:  r.Target.ID,
		phase:     r.Phase,
		mechanism: r.MechanismOfAction,
	}
}

// Aggregate merges records sharing drug id, target id, phase and mechanism.
// Group fields come from the first record of each group, except the
// evidence-level DatasourceID and Source tags, which do not survive a merge.
// References are unioned by source, first occurrence wins, and references
// without a source are dropped. Group order follows first appearance. Aggregating an already
// aggregated list returns an equal list.
func Aggregate(records []Record) []Record {
	index := make(map[groupKey]int, len(records))
	out := make([]Record, 0, len(records))
	seen := make([]map[string]struct{}, 0, len(records))

	for _, r := range records {
		k := keyOf(r)
		gi, ok := index[k]
		if !ok {
			g := r.clone()
			g.References = []Reference{}
			g.DatasourceID, g.Source = "", ""
			gi = len(out)
			index[k] = gi
			out = append(out, g)
			seen = append(seen, make(map[string]struct{}))
		}

		for _, ref := range r.References {
			if ref.Source == "" {
				continue
			}
			if _, dup := seen[gi][ref.Source]; dup {
				continue
			}
			seen[gi][ref.Source] = struct{}{}
			out[gi].References = append(out[gi].References, Reference{
				Source: ref.Source,
				URLs:   append([]string(nil), ref.URLs...),
			})
		}
	}
	return out
}

// Inferred reference sources.
const (
	SourceChEMBL         = "ChEMBL"
	SourceFDA            = "FDA"
	SourceDailyMed       = "DailyMed"
	SourceClinicalTrials = "ClinicalTrials.gov"
	SourceDrugBank       = "DrugBank"
)

// InferSources appends references implied by each record's phase and
// mechanism. Appended references are not deduplicated against existing ones.
func InferSources(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r = r.clone()
		if r.References == nil {
			r.References = []Reference{}
		}

		r.References = append(r.References, inferred(SourceChEMBL))
		if r.Phase == 4 {
			r.References = append(r.References, inferred(SourceFDA), inferred(SourceDailyMed))
		}
		if isClinicalPhase(r.Phase) {
			r.References = append(r.References, inferred(SourceClinicalTrials))
		}
		if r.MechanismOfAction != "" {
			r.References = append(r.References, inferred(SourceDrugBank))
		}
		out[i] = r
	}
	return out
}

// Process runs Aggregate followed by InferSources.
func Process(records []Record) []Record {
	if len(records) == 0 {
		return []Record{}
	}
	return InferSources(Aggregate(records))
}

func inferred(source string) Reference {
	return Reference{Source: source, URLs: []string{}}
}

func isClinicalPhase(phase float64) bool {
	switch phase {
	case 1, 2, 3, 4:
		return true
	}
	return false
}
