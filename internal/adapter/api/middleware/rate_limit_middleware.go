package middleware

import (
	"fmt"
	"math"

	"github.com/labstack/echo/v4"

	"rentalhub/internal/infrastructure/ratelimit"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
	"rentalhub/pkg/response"
)

// RateLimit throttles requests per user, or per client IP when anonymous, under the policy for action.
// Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := UID(c)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			allowed, wait, err := limiter.Allow(c.Request().Context(), key, action)
			if err != nil {
				logger.Warn("Rate limiter unavailable for %s: %v", key, err)
				return next(c)
			}
			if !allowed {
				seconds := int(math.Ceil(wait.Seconds()))
				c.Response().Header().Set("Retry-After", fmt.Sprint(seconds))
				logger.L().Warn().Str("key", key).Str("action", action).Int("retry_after", seconds).Msg("Rate limit exceeded")
				return response.Error(c, errors.TooManyRequests(fmt.Sprintf("Too many requests, try again in %d seconds", seconds)))
			}

			return next(c)
		}
	}
}
