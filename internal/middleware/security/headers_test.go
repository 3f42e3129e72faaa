package security

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersMiddleware(t *testing.T) {
	for _, dev := range []bool{false, true} {
		app := fiber.New()
		app.Use(HeadersMiddleware(HeadersConfig{
			AllowedOrigins: []string{"https://bioinsight.example", "wss://bioinsight.example"},
			IsDevelopment:  dev,
		}))
		app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)

		assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		assert.Contains(t, resp.Header.Get("Content-Security-Policy"),
			"connect-src 'self' https://bioinsight.example wss://bioinsight.example")
		assert.Equal(t, !dev, resp.Header.Get("Strict-Transport-Security") != "")
	}
}
