package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/evidence"
	"github.com/bioinsight/backend/pkg/logger"
)

// Narrator turns an evidence digest into a prose summary.
type Narrator struct {
	gen Generator
}

func NewNarrator(gen Generator) *Narrator {
	return &Narrator{gen: gen}
}

// Explain returns FallbackExplanation without calling the model when the
// digest carries zero confidence or no evidence items. On a generation error
// it returns ErrorExplanation together with the error.
func (n *Narrator) Explain(ctx context.Context, digest evidence.Digest) (string, error) {
	if digest.Metadata.ConfidenceScore == 0 || len(digest.EvidenceItems) == 0 {
		return FallbackExplanation, nil
	}

	prompt, err := BuildSummaryPrompt(digest)
	if err != nil {
		return ErrorExplanation, err
	}

	raw, err := n.gen.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("Narrative generation failed", zap.Error(err))
		return ErrorExplanation, fmt.Errorf("failed to generate narrative: %w", err)
	}

	return StripThinking(raw), nil
}

func BuildSummaryPrompt(digest evidence.Digest) (string, error) {
	data, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode digest: %w", err)
	}
	return fmt.Sprintf("%s\n\nData to summarize:\n%s\n\n%s", SystemPrompt, data, summaryTask), nil
}
