package evidence

// DigestItemLimit caps the evidence items handed to the narrative generator.
const DigestItemLimit = 5

// Digest is the fixed-shape summary passed to narrative generation.
type Digest struct {
	Metadata      DigestMetadata `json:"metadata"`
	EvidenceItems []DigestItem   `json:"evidence_items"`
}

type DigestMetadata struct {
	ConfidenceScore           float64  `json:"confidence_score"`
	MaxPhase                  float64  `json:"max_phase"`
	DeduplicatedEvidenceCount int      `json:"deduplicated_evidence_count"`
	UniqueSources             int      `json:"unique_sources"`
	EvidenceTypes             []string `json:"evidence_types"`
	Reasoning                 string   `json:"reasoning"`
}

type DigestItem struct {
	Drug       string   `json:"drug"`
	Target     string   `json:"target"`
	Mechanism  *string  `json:"mechanism"`
	Phase      float64  `json:"phase"`
	DrugType   *string  `json:"drugType"`
	References []string `json:"references"`
}

func NewDigest(meta DigestMetadata, records []Record, targetName string) Digest {
	if meta.EvidenceTypes == nil {
		meta.EvidenceTypes = []string{}
	}
	return Digest{Metadata: meta, EvidenceItems: DigestItems(records, targetName)}
}

// DigestItems converts up to DigestItemLimit records into digest items. The
// target name is the resolved display name rather than the record's id.
func DigestItems(records []Record, targetName string) []DigestItem {
	n := len(records)
	if n > DigestItemLimit {
		n = DigestItemLimit
	}
	items := make([]DigestItem, 0, n)
	for _, r := range records[:n] {
		items = append(items, DigestItem{
			Drug:       r.Drug.Name,
			Target:     targetName,
			Mechanism:  optional(r.MechanismOfAction),
			Phase:      r.Phase,
			DrugType:   optional(r.DrugType),
			References: r.ReferenceSources(),
		})
	}
	return items
}

// Sources returns the distinct reference sources of the digest items in
// first-seen order.
func (d Digest) Sources() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, item := range d.EvidenceItems {
		for _, s := range item.References {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
