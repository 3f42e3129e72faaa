package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Word boundaries keep ordinary biomedical prose ("selective inhibitor",
// "dropped out") from tripping the filters.
var (
	sqlInjectionPattern = regexp.MustCompile(`(?i)(\bunion\s+select\b|\bdrop\s+table\b|\binsert\s+into\b|\bdelete\s+from\b|;\s*--|'\s*or\s+'?1'?\s*=\s*'?1)`)
	xssPattern          = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror\s*=|onload\s*=|onclick\s*=)`)
)

// BodyKey is the Locals key holding the sanitized free-text field.
const BodyKey = "sanitized_text"

type Config struct {
	MaxQueryLength int
	// Fields maps a route path to the JSON field carrying user text.
	Fields map[string]string
	Logger *zap.Logger
}

func DefaultFields() map[string]string {
	return map[string]string{
		"/api/v1/chat":    "message",
		"/api/v1/resolve": "query",
		"/api/v1/extract": "query",
	}
}

func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxQueryLength == 0 {
		cfg.MaxQueryLength = 2000
	}
	if cfg.Fields == nil {
		cfg.Fields = DefaultFields()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		if ct := c.Get(fiber.HeaderContentType); ct != "" && !strings.Contains(ct, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		field, ok := cfg.Fields[c.Path()]
		if !ok {
			return c.Next()
		}

		var req map[string]interface{}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		text, ok := req[field].(string)
		if !ok || strings.TrimSpace(text) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": field + " is required and must be a string",
			})
		}

		if utf8.RuneCountInString(text) > cfg.MaxQueryLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": field + " exceeds maximum length",
			})
		}

		if reason := Inspect(text); reason != "" {
			cfg.Logger.Warn("Rejected request content",
				zap.String("reason", reason),
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid query content",
			})
		}

		c.Locals(BodyKey, Sanitize(text))
		return c.Next()
	}
}

// Inspect names the filter a text trips, or returns "".
func Inspect(text string) string {
	switch {
	case sqlInjectionPattern.MatchString(text):
		return "sql_injection"
	case xssPattern.MatchString(text):
		return "xss"
	}
	return ""
}

func Sanitize(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}
