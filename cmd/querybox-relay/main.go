package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"golang.org/x/time/rate"

	"querybox-relay/internal/client"
	"querybox-relay/internal/config"
	"querybox-relay/internal/handler"
	"querybox-relay/internal/metrics"
	"querybox-relay/internal/middleware"
	"querybox-relay/internal/service"
	"querybox-relay/internal/store"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("querybox-relay"),
		kong.Description("Local HTTP and GraphQL relay with endpoint, history and settings storage."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: logger.With("component", "fx")}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		fx.Provide(
			func() *config.CLI { return &cli },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			newLogger,
			metrics.New,
			newEcho,
			client.New,
			service.NewRelayService,
			func(s *service.RelayService) handler.Relayer { return s },
			newRepository,
			handler.NewRelayHandler,
			newStoreHandler,
			handler.NewHealthHandler,
		),
		fx.Invoke(handler.RegisterRoutes, registerMetrics, warnConfigPermissions, startServer),
	).Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(h)
}

func newEcho(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Relay calls can run up to the upstream timeout, so no write timeout.
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 0
	e.Server.IdleTimeout = 120 * time.Second
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	if !cfg.Server.AllowRemote {
		e.Use(middleware.LoopbackOnly())
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)))
	e.Use(middleware.SecurityHeaders())

	if cfg.Metrics.Enabled {
		e.Use(middleware.MetricsMiddleware(m, cfg.Metrics.Path))
	}

	if cfg.Server.RateLimit.Enabled {
		rl := echomw.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit.RequestsPerSecond))
		e.Use(echomw.RateLimiter(rl))
		logger.Info("rate limiter enabled", "rps", cfg.Server.RateLimit.RequestsPerSecond)
	}

	return e
}

// newRepository opens the SQLite store and closes it when the app stops.
func newRepository(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*store.Repository, error) {
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	repo := store.NewRepository(db)
	logger.Info("store opened", "component", "store", "path", cfg.Storage.Path)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return repo.Close()
		},
	})
	return repo, nil
}

func newStoreHandler(repo *store.Repository, logger *slog.Logger) *handler.StoreHandler {
	return handler.NewStoreHandler(repo, repo, repo, logger)
}

func registerMetrics(e *echo.Echo, cfg *config.Config, m *metrics.Metrics) {
	if !cfg.Metrics.Enabled {
		return
	}
	e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
	if cfg.Server.AllowRemote {
		logger.Warn("remote access enabled; the relay can reach anything this host can", "addr", cfg.Server.Addr())
	}
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			addr := cfg.Server.Addr()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("bind %s: %w", addr, err)
			}
			logger.Info("starting relay", "addr", addr, "version", version)
			go func() {
				if err := e.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down relay")
			return e.Shutdown(ctx)
		},
	})
}
