package middleware

import (
	"time"

	"bakery_manager/constants"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type RateLimitConfig struct {
	Prefix  string
	Max     int
	Window  time.Duration
	Storage fiber.Storage
}

// RateLimit caps requests per client IP. With a nil Storage the counters live in
// process memory.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		Storage:    cfg.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return cfg.Prefix + ":" + c.IP()
		},
		// Retry-After is already set by the limiter.
		LimitReached: func(c *fiber.Ctx) error {
			return utils.ErrorResponse(c, fiber.StatusTooManyRequests, constants.TOO_MANY_REQUESTS, nil)
		},
	})
}

// CancelRateLimit allows 5 cancellation attempts per minute per IP.
func CancelRateLimit(storage fiber.Storage) fiber.Handler {
	return RateLimit(RateLimitConfig{
		Prefix:  "cancel",
		Max:     5,
		Window:  time.Minute,
		Storage: storage,
	})
}
