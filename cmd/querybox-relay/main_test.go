package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"querybox-relay/internal/config"
	"querybox-relay/internal/metrics"
)

func testEcho(t *testing.T, mutate func(*config.Config)) *echo.Echo {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	e := newEcho(cfg, logger, m)
	registerMetrics(e, cfg, m)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func serve(e *echo.Echo, method, path, remote string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	req.RemoteAddr = remote
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestNewEcho_LoopbackGuard(t *testing.T) {
	tests := []struct {
		name        string
		allowRemote bool
		remote      string
		wantStatus  int
	}{
		{"loopback allowed", false, "127.0.0.1:4000", http.StatusOK},
		{"remote rejected", false, "203.0.113.9:4000", http.StatusForbidden},
		{"remote allowed when configured", true, "203.0.113.9:4000", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEcho(t, func(c *config.Config) { c.Server.AllowRemote = tt.allowRemote })
			rec := serve(e, http.MethodGet, "/healthz", tt.remote, nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestNewEcho_CORS(t *testing.T) {
	e := testEcho(t, nil)

	rec := serve(e, http.MethodGet, "/healthz", "127.0.0.1:4000", map[string]string{"Origin": "tauri://localhost"})
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "tauri://localhost" {
		t.Errorf("allowed origin header = %q, want %q", got, "tauri://localhost")
	}

	rec = serve(e, http.MethodGet, "/healthz", "127.0.0.1:4000", map[string]string{"Origin": "https://evil.example"})
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Errorf("foreign origin got Access-Control-Allow-Origin = %q", got)
	}
}

func TestNewEcho_RateLimiter(t *testing.T) {
	e := testEcho(t, func(c *config.Config) {
		c.Server.RateLimit.Enabled = true
		c.Server.RateLimit.RequestsPerSecond = 1
	})

	if rec := serve(e, http.MethodGet, "/healthz", "127.0.0.1:4000", nil); rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", rec.Code, http.StatusOK)
	}

	got429 := false
	for range 10 {
		if rec := serve(e, http.MethodGet, "/healthz", "127.0.0.1:4000", nil); rec.Code == http.StatusTooManyRequests {
			got429 = true
			break
		}
	}
	if !got429 {
		t.Error("expected at least one 429 response after burst, got none")
	}
}

func TestRegisterMetrics(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		e := testEcho(t, nil)
		if rec := serve(e, http.MethodGet, "/metrics", "127.0.0.1:4000", nil); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		e := testEcho(t, func(c *config.Config) {
			c.Metrics.Enabled = true
			c.Metrics.Path = "/internal/metrics"
		})
		serve(e, http.MethodGet, "/healthz", "127.0.0.1:4000", nil)

		rec := serve(e, http.MethodGet, "/internal/metrics", "127.0.0.1:4000", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), `querybox_relay_http_requests_total{method="GET",path_prefix="/healthz",status_code="200"} 1`) {
			t.Errorf("scrape missing healthz request series:\n%s", rec.Body.String())
		}
	})
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := config.Default()
			cfg.Log.Level = tt.level
			logger := newLogger(cfg)
			if !logger.Enabled(t.Context(), tt.want) {
				t.Errorf("level %s not enabled", tt.want)
			}
			if tt.want > slog.LevelDebug && logger.Enabled(t.Context(), tt.want-4) {
				t.Errorf("level below %s enabled", tt.want)
			}
		})
	}
}
