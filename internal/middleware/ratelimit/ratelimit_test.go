package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_PerKeyBudget(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 3})
	defer rl.Stop()

	clock := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"), "request %d", i)
	}
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	clock = clock.Add(20 * time.Second)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
}

func TestEvictIdle(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1, IdleTimeout: time.Minute})
	defer rl.Stop()

	clock := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return clock }

	rl.Allow("a")
	clock = clock.Add(30 * time.Second)
	rl.Allow("b")
	clock = clock.Add(45 * time.Second)

	assert.Equal(t, 1, rl.evictIdle())
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "b")
}

func TestMiddleware(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1})
	defer rl.Stop()

	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	do := func(clientID string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Client-ID", clientID)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, do("one"))
	assert.Equal(t, fiber.StatusTooManyRequests, do("one"))
	assert.Equal(t, fiber.StatusOK, do("two"))
}
