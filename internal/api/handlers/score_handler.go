package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/evidence"
	"github.com/bioinsight/backend/internal/scoring"
	"github.com/bioinsight/backend/pkg/logger"
)

type ScoreHandler struct{}

func NewScoreHandler() *ScoreHandler {
	return &ScoreHandler{}
}

// HandleScore scores a posted evidence list. With ?process=true the records
// are merged and source-inferred first, as the live pipeline does; with
// ?debug=true the response carries the per-record breakdown.
func (h *ScoreHandler) HandleScore(c *fiber.Ctx) error {
	var records []evidence.Record
	if err := c.BodyParser(&records); err != nil {
		logger.Error("Failed to parse evidence list", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Body must be a JSON array of evidence records",
		})
	}

	if c.QueryBool("process") {
		records = evidence.Process(records)
	}

	result := scoring.Score(records)
	resp := fiber.Map{
		"result":     result,
		"confidence": result.Confidence(),
	}
	if c.QueryBool("debug") {
		resp["debug"] = scoring.Explain(records, c.Query("drug", "?"), c.Query("target", "?"))
	}
	return c.JSON(resp)
}
