package ratelimit

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenboard/lumenboard/internal/domain/auth"
	"github.com/lumenboard/lumenboard/internal/utils"
)

// Limit gates a route with a fixed-window budget. Authenticated callers
// are counted by user id so devices behind one NAT do not share a
// bucket; anonymous callers fall back to the client IP.
func Limit(limiter *Limiter, max int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := c.IP()
		if id := auth.CurrentIdentity(c); id != nil {
			identity = id.UserID
		}

		if !limiter.Allow(identity, c.Route().Path, max, window) {
			return utils.APIErrorResponse(c, utils.ErrRateLimited)
		}

		return c.Next()
	}
}
