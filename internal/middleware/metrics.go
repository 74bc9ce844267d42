package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"querybox-relay/internal/metrics"
)

// MetricsMiddleware records inbound bridge metrics. Requests to any of
// skipPaths (the scrape endpoint, typically) are not recorded.
func MetricsMiddleware(m *metrics.Metrics, skipPaths ...string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			// An *echo.HTTPError is written later by the central error
			// handler, so the response status is not final yet.
			code := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				code = he.Code
			}

			labels := []string{
				metrics.NormalizeMethod(c.Request().Method),
				strconv.Itoa(code),
				metrics.NormalizePath(c.Request().URL.Path),
			}
			m.RequestsTotal.WithLabelValues(labels...).Inc()
			m.RequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
