package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/storage/models"
	"github.com/bioinsight/backend/internal/storage/sqlite"
	"github.com/bioinsight/backend/pkg/logger"
)

type CorpusReader interface {
	InteractionsForDrug(ctx context.Context, name, drugID string) ([]models.CorpusInteraction, error)
	CorpusCounts(ctx context.Context) (sqlite.CorpusCounts, error)
}

// CorpusHandler exposes the locally ingested TTD corpus.
type CorpusHandler struct {
	corpus CorpusReader
}

func NewCorpusHandler(corpus CorpusReader) *CorpusHandler {
	return &CorpusHandler{
		corpus: corpus,
	}
}

// Interactions answers GET /api/v1/corpus/interactions?drug=&id=.
func (h *CorpusHandler) Interactions(c *fiber.Ctx) error {
	drug := strings.TrimSpace(c.Query("drug"))
	id := strings.TrimSpace(c.Query("id"))
	if drug == "" && id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "drug or id is required",
		})
	}

	rows, err := h.corpus.InteractionsForDrug(c.UserContext(), drug, id)
	if err != nil {
		logger.Error("Failed to query corpus", zap.String("drug", drug), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to query corpus",
		})
	}
	if rows == nil {
		rows = []models.CorpusInteraction{}
	}

	return c.JSON(fiber.Map{
		"drug":         drug,
		"interactions": rows,
		"count":        len(rows),
	})
}

func (h *CorpusHandler) Stats(c *fiber.Ctx) error {
	counts, err := h.corpus.CorpusCounts(c.UserContext())
	if err != nil {
		logger.Error("Failed to count corpus", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count corpus",
		})
	}
	return c.JSON(counts)
}
