package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"rentalhub/pkg/logger"
)

// RequestLogger logs each request with status, duration and request ID.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			requestID := res.Header().Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = "no-request-id"
			}

			event := logger.L().Info()
			if res.Status >= 500 {
				event = logger.L().Error()
			}
			event.
				Str("request_id", requestID).
				Str("method", req.Method).
				Str("path", c.Path()).
				Str("uid", UID(c)).
				Int("status", res.Status).
				Int64("ms", time.Since(start).Milliseconds()).
				Msg("Request handled")
			return nil
		}
	}
}
