package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/orders/internal/platform/auth"
)

// Logger emits one structured line per request. Health probes are skipped so
// readiness polling does not drown out the order traffic. The acting user is
// attached when the auth middleware resolved one, which is what ties an order
// mutation in the log back to the clinician who made it.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if strings.HasPrefix(req.URL.Path, "/health") {
				return next(c)
			}

			start := time.Now()
			rid, _ := c.Get("request_id").(string)
			method := req.Method
			path := req.URL.Path

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
				evt = evt.Str("user_id", uid)
			}
			if orderID := c.Param("id"); orderID != "" {
				evt = evt.Str("order_id", orderID)
			}

			evt.
				Str("request_id", rid).
				Str("method", method).
				Str("path", path).
				Int("status", c.Response().Status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
