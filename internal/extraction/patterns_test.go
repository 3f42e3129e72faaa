package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDeterministic(t *testing.T) {
	tests := []struct {
		query  string
		want   Extraction
		wantOK bool
	}{
		{"How does Imatinib interact with BCR-ABL1?", Extraction{"Imatinib", "BCR-ABL1"}, true},
		{"What is the interaction between aspirin and PTGS2", Extraction{"aspirin", "PTGS2"}, true},
		{"Does aspirin inhibit COX-2", Extraction{"aspirin", "COX-2"}, true},
		{"Metformin is associated with AMPK", Extraction{"Metformin", "AMPK"}, true},
		{"the drug gefitinib binds to the protein EGFR", Extraction{"gefitinib", "EGFR"}, true},
		{"erlotinib and EGFR interaction", Extraction{"erlotinib", "EGFR"}, true},
		{"how mechanistically does imatinib block ABL1", Extraction{"imatinib", "ABL1"}, true},
		{"tell me something", Extraction{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := ExtractDeterministic(tt.query)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtraction_Empty(t *testing.T) {
	assert.True(t, Extraction{}.Empty())
	assert.False(t, Extraction{Target: "EGFR"}.Empty())
}
