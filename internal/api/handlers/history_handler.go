package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	kgneo4j "github.com/bioinsight/backend/internal/kg/neo4j"
	"github.com/bioinsight/backend/internal/storage/models"
	"github.com/bioinsight/backend/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

type AnalysisLister interface {
	ListAnalyses(ctx context.Context, limit int) ([]models.Analysis, error)
}

type GraphReader interface {
	InteractionsForDrug(ctx context.Context, drug string, limit int) ([]kgneo4j.Interaction, error)
	GetInteraction(ctx context.Context, drug, target string) (*kgneo4j.Interaction, bool, error)
}

// HistoryHandler serves past analyses from SQLite and the interaction graph
// from Neo4j. The graph is optional.
type HistoryHandler struct {
	analyses AnalysisLister
	graph    GraphReader
}

func NewHistoryHandler(analyses AnalysisLister, graph GraphReader) *HistoryHandler {
	return &HistoryHandler{
		analyses: analyses,
		graph:    graph,
	}
}

func (h *HistoryHandler) ListAnalyses(c *fiber.Ctx) error {
	items, err := h.analyses.ListAnalyses(c.UserContext(), listLimit(c))
	if err != nil {
		logger.Error("Failed to list analyses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list analyses",
		})
	}
	if items == nil {
		items = []models.Analysis{}
	}

	return c.JSON(fiber.Map{
		"analyses": items,
		"count":    len(items),
	})
}

func (h *HistoryHandler) GraphInteractions(c *fiber.Ctx) error {
	if h.graph == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Interaction graph is not enabled",
		})
	}

	drug := strings.TrimSpace(c.Params("drug"))
	if drug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "drug is required",
		})
	}

	edges, err := h.graph.InteractionsForDrug(c.UserContext(), drug, listLimit(c))
	if err != nil {
		logger.Error("Failed to read interaction graph", zap.String("drug", drug), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to read interaction graph",
		})
	}
	if edges == nil {
		edges = []kgneo4j.Interaction{}
	}

	return c.JSON(fiber.Map{
		"drug":         drug,
		"interactions": edges,
	})
}

// PairInteraction answers GET /api/v1/interactions/:drug/:target with the
// stored edge for one pair.
func (h *HistoryHandler) PairInteraction(c *fiber.Ctx) error {
	if h.graph == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Interaction graph is not enabled",
		})
	}

	drug, target := strings.TrimSpace(c.Params("drug")), strings.TrimSpace(c.Params("target"))
	edge, found, err := h.graph.GetInteraction(c.UserContext(), drug, target)
	if err != nil {
		logger.Error("Failed to read interaction graph",
			zap.String("drug", drug),
			zap.String("target", target),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to read interaction graph",
		})
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No recorded analysis for this pair",
		})
	}
	return c.JSON(edge)
}

func listLimit(c *fiber.Ctx) int {
	n := c.QueryInt("limit", defaultListLimit)
	if n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
