package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bioinsight/backend/internal/evidence"
)

const explainRefLimit = 10

// Explain renders a per-record breakdown of the evidence and the unique
// source set, for debugging a score.
func Explain(records []evidence.Record, drug, target string) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)

	fmt.Fprintf(&b, "%s\nConfidence calculation for %s → %s\n%s\n", rule, drug, target, rule)
	if len(records) == 0 {
		b.WriteString("No evidence items provided\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Evidence items: %d\n", len(records))
	for i, r := range records {
		fmt.Fprintf(&b, "\nEvidence #%d:\n", i+1)
		fmt.Fprintf(&b, "  Phase: %s\n", formatPhase(r.Phase))
		fmt.Fprintf(&b, "  Mechanism: %s\n", orNA(r.MechanismOfAction))
		fmt.Fprintf(&b, "  Evidence source: %s\n", orNA(r.EvidenceSource()))

		if len(r.References) == 0 {
			b.WriteString("  ⚠ No references found\n")
			continue
		}
		fmt.Fprintf(&b, "  References (%d):\n", len(r.References))
		for j, ref := range r.References {
			if j == explainRefLimit {
				fmt.Fprintf(&b, "    ... and %d more\n", len(r.References)-explainRefLimit)
				break
			}
			fmt.Fprintf(&b, "    %d. %s\n", j+1, orNA(ref.Source))
		}
	}

	tags := collectTags(records).sorted()
	fmt.Fprintf(&b, "\nSummary:\n  Total evidence items: %d\n  Unique sources: %d\n  Sources: %s\n",
		len(records), len(tags), strings.Join(tags, ", "))
	return b.String()
}

func formatPhase(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
