// Package middleware provides Echo middleware for the local command bridge.
package middleware

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const commandPrefix = "/api/commands/"

// RequestLogger logs each bridge request with slog.
// Commands are logged by name; health probes drop to debug.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	logger = logger.With("component", "bridge")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			attrs := []any{
				"method", req.Method,
				"status", res.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"bytes_out", res.Size,
			}
			if p := req.URL.Path; strings.HasPrefix(p, commandPrefix) {
				attrs = append(attrs, "command", path.Base(p))
			} else {
				attrs = append(attrs, "path", p)
			}

			switch {
			case res.Status >= 500:
				logger.Warn("request", attrs...)
			case req.URL.Path == "/healthz":
				logger.Debug("request", attrs...)
			default:
				logger.Info("request", attrs...)
			}

			return err
		}
	}
}
