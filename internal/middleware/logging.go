package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-chatbot/internal/logger"
)

// RequestLogger attaches method and path to the request context logger and
// logs one line per completed request.
func RequestLogger(logg *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := logg.WithFields(req.Context(), map[string]any{
				"method": req.Method,
				"path":   req.URL.Path,
			})
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			ctx = logg.WithFields(ctx, map[string]any{
				"status":      c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			logg.Info(ctx, "request.complete")
			return nil
		}
	}
}
