package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/middleware/validation"
	"github.com/bioinsight/backend/internal/query"
	"github.com/bioinsight/backend/pkg/logger"
)

const defaultStreamTimeout = 6 * time.Minute

type jsonWriter interface {
	WriteJSON(v interface{}) error
}

type WebSocketHandler struct {
	engine         QueryProcessor
	maxQueryLength int
	timeout        time.Duration
}

func NewWebSocketHandler(engine QueryProcessor, maxQueryLength int) *WebSocketHandler {
	return &WebSocketHandler{
		engine:         engine,
		maxQueryLength: maxQueryLength,
		timeout:        defaultStreamTimeout,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Failed to read WebSocket message", zap.Error(err))
			}
			break
		}

		if msg.Type != "query" {
			continue
		}

		text := validation.Sanitize(msg.Content)
		if reason := h.reject(text); reason != "" {
			h.sendError(c, reason)
			continue
		}

		logger.Info("Processing WebSocket query", zap.String("query", text))

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		err := h.streamResponse(ctx, c, text)
		cancel()
		if err != nil {
			logger.Error("Failed to stream response", zap.Error(err))
			h.sendError(c, "Failed to process query")
		}
	}
}

func (h *WebSocketHandler) reject(text string) string {
	switch {
	case text == "":
		return "Query is required"
	case h.maxQueryLength > 0 && len([]rune(text)) > h.maxQueryLength:
		return "Query exceeds maximum length"
	case validation.Inspect(text) != "":
		return "Invalid query content"
	}
	return ""
}

// streamResponse emits status, entities, the reply and explanation as word
// chunks, then a complete frame carrying the full analysis.
func (h *WebSocketHandler) streamResponse(ctx context.Context, w jsonWriter, text string) error {
	if err := h.sendChunk(w, "status", "Resolving entities and fetching evidence..."); err != nil {
		return err
	}

	response, err := h.engine.ProcessQuery(ctx, query.QueryRequest{Query: text})
	if err != nil {
		return err
	}

	if err := w.WriteJSON(map[string]interface{}{
		"type":         "entities",
		"entities":     response.Entities,
		"insufficient": response.Insufficient,
	}); err != nil {
		return err
	}

	body := response.Reply
	if response.Data != nil && response.Data.Explanation != "" {
		body += "\n\n" + response.Data.Explanation
	}

	words := splitIntoWords(body)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 && word != "\n" {
			chunk += " "
		}
		if err := h.sendChunk(w, "chunk", chunk); err != nil {
			return err
		}
	}

	return h.sendComplete(w, response)
}

func (h *WebSocketHandler) sendChunk(w jsonWriter, msgType, content string) error {
	return w.WriteJSON(map[string]interface{}{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendComplete(w jsonWriter, response *query.QueryResponse) error {
	msg := map[string]interface{}{
		"type":         "complete",
		"message_id":   response.ID,
		"confidence":   response.Confidence,
		"insufficient": response.Insufficient,
		"data":         response.Data,
		"latency_ms":   response.LatencyMS,
	}
	return w.WriteJSON(msg)
}

func (h *WebSocketHandler) sendError(w jsonWriter, errorMsg string) {
	if err := w.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}); err != nil {
		logger.Warn("Failed to send WebSocket error", zap.Error(err))
	}
}

// splitIntoWords splits on spaces and keeps each newline as its own token.
func splitIntoWords(text string) []string {
	words := []string{}
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch r {
		case ' ':
			flush()
		case '\n':
			flush()
			words = append(words, "\n")
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return words
}
