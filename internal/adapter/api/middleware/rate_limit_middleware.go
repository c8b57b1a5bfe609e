package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"duochat/internal/infrastructure/ratelimit"
	"duochat/pkg/errors"
	"duochat/pkg/logger"
	"duochat/pkg/response"
)

// RateLimit throttles a route per caller: the authenticated uid when present,
// the client IP otherwise.
func RateLimit(rl *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if uid, ok := c.Get("uid").(string); ok && uid != "" {
				key = uid
			}

			allowed, wait := rl.Allow(key, action)
			if !allowed {
				logger.Warn("RATE LIMIT: %s blocked on %s for %v", key, action, wait)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}

			return next(c)
		}
	}
}
