package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/sahayak-labs/paathshala-api/internal/utils"
)

// RateLimit creates a per-user rate limiter. Authenticated requests are
// keyed by the JWT user id, anonymous ones by client IP.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			user := fmt.Sprintf("%v", c.Locals("user_id"))
			if user == "" || user == "0" || user == "<nil>" {
				user = c.IP()
			}
			return identifier + ":" + user
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests, try again shortly")
		},
	})
}
