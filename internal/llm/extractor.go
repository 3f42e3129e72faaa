package llm

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/extraction"
	"github.com/bioinsight/backend/pkg/logger"
)

// EntityExtractor asks a generator for the drug and target named in a query.
type EntityExtractor struct {
	gen Generator
}

func NewEntityExtractor(gen Generator) *EntityExtractor {
	return &EntityExtractor{gen: gen}
}

// Extract never fails: a generation error or unparseable output yields an
// empty Extraction.
func (e *EntityExtractor) Extract(ctx context.Context, query string) extraction.Extraction {
	prompt := strings.ReplaceAll(entityExtractionPrompt, queryPlaceholder, query)

	raw, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("LLM entity extraction failed", zap.Error(err))
		return extraction.Extraction{}
	}

	obj, ok := parseJSONObject(StripThinking(raw))
	if !ok {
		logger.Warn("LLM entity extraction returned no JSON object", zap.Int("output_length", len(raw)))
		return extraction.Extraction{}
	}

	return extraction.Extraction{
		Drug:   stringField(obj, "drug"),
		Target: stringField(obj, "target"),
	}
}
