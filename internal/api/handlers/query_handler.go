package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/extraction"
	"github.com/bioinsight/backend/internal/matching"
	"github.com/bioinsight/backend/internal/middleware/validation"
	"github.com/bioinsight/backend/internal/query"
	"github.com/bioinsight/backend/internal/resolution"
	"github.com/bioinsight/backend/pkg/logger"
)

type QueryProcessor interface {
	ProcessQuery(ctx context.Context, req query.QueryRequest) (*query.QueryResponse, error)
}

type EntityResolver interface {
	Resolve(ctx context.Context, query string) resolution.Resolution
}

type PatternMatcher interface {
	FindBestMatches(ctx context.Context, drugQuery, targetQuery string) (matching.BestMatches, error)
}

type QueryHandler struct {
	engine   QueryProcessor
	resolver EntityResolver
	patterns PatternMatcher
}

func NewQueryHandler(engine QueryProcessor, resolver EntityResolver, patterns PatternMatcher) *QueryHandler {
	return &QueryHandler{
		engine:   engine,
		resolver: resolver,
		patterns: patterns,
	}
}

// HandleChat answers POST /api/v1/chat {"message": "..."}.
func (h *QueryHandler) HandleChat(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	text, ok := bodyText(c, &req, func() string { return req.Message })
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	response, err := h.engine.ProcessQuery(c.UserContext(), query.QueryRequest{Query: text})
	if err != nil {
		logger.Error("Failed to process query", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process query",
		})
	}

	return c.JSON(response)
}

// HandleResolve runs entity resolution only.
func (h *QueryHandler) HandleResolve(c *fiber.Ctx) error {
	var req struct {
		Query string `json:"query"`
	}
	text, ok := bodyText(c, &req, func() string { return req.Query })
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	res := h.resolver.Resolve(c.UserContext(), text)
	return c.JSON(fiber.Map{
		"query":      res.Query,
		"drug":       res.Drug,
		"target":     res.Target,
		"complete":   res.Complete(),
		"resolution": res,
	})
}

// HandleExtract applies the fixed sentence templates and validates the
// captured names against the reference corpora. It is independent of the
// resolution pipeline.
func (h *QueryHandler) HandleExtract(c *fiber.Ctx) error {
	var req struct {
		Query string `json:"query"`
	}
	text, ok := bodyText(c, &req, func() string { return req.Query })
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	ext, matched := extraction.ExtractDeterministic(text)
	resp := fiber.Map{
		"query":     text,
		"matched":   matched,
		"extracted": ext,
	}
	if !matched || h.patterns == nil {
		return c.JSON(resp)
	}

	best, err := h.patterns.FindBestMatches(c.UserContext(), ext.Drug, ext.Target)
	if err != nil {
		logger.Error("Failed to validate extracted entities", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to validate extracted entities",
		})
	}
	resp["validated"] = best
	return c.JSON(resp)
}

// bodyText prefers the text the validation middleware already sanitized.
func bodyText(c *fiber.Ctx, req interface{}, field func() string) (string, bool) {
	if s, ok := c.Locals(validation.BodyKey).(string); ok {
		return s, true
	}
	if err := c.BodyParser(req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return "", false
	}
	return validation.Sanitize(field()), true
}
