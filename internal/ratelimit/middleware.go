package ratelimit

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Config describes one rate limited route family.
type Config struct {
	// Max requests allowed per window and key.
	Max int
	// Window is the fixed counting window.
	Window time.Duration
	// Message is returned to blocked clients alongside the 429.
	Message string
	// KeyPrefix separates route families sharing one store.
	KeyPrefix string
}

// New creates a fiber middleware rejecting requests over the limit with a
// 429 carrying the configured message and a retry-after hint in seconds.
// Keys are derived from the client address; other routes are unaffected
// because the middleware is mounted per route.
func New(cfg Config, store Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := cfg.KeyPrefix + ":" + c.IP()

		win, err := store.Hit(key, cfg.Window, time.Now())
		if err != nil {
			// a broken store must not lock out the whole auth flow
			log.Warn().Err(err).Str("key", key).Msg("rate limit store unavailable, allowing request")

			return c.Next()
		}

		if win.Count > cfg.Max {
			retryAfter := int(math.Ceil(time.Until(win.ResetAt).Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":      "Too Many Requests. Please try again later.",
				"message":    cfg.Message,
				"retryAfter": retryAfter,
			})
		}

		return c.Next()
	}
}
