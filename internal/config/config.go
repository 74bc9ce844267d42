// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// appDirName is the per-user directory holding the config file and database.
const appDirName = "querybox"

// DefaultUserAgent identifies the relay to GraphQL servers.
const DefaultUserAgent = "Query box GraphQL Client"

// reservedPaths are routes owned by the command bridge; metrics cannot shadow them.
var reservedPaths = []string{"/api/commands", "/healthz", "/relay/status"}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config   string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host     string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port     int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	DBPath   string `kong:"name='db-path',help='SQLite database file (overrides config).',env='QUERYBOX_DB_PATH'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Relay   RelayConfig   `toml:"relay"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds settings for the local command bridge.
type ServerConfig struct {
	Host           string          `toml:"host"`
	Port           int             `toml:"port"` // 0 means "use default" (8787)
	BodyMaxBytes   int64           `toml:"body_max_bytes"`
	AllowedOrigins []string        `toml:"allowed_origins"`
	AllowRemote    bool            `toml:"allow_remote"`
	RateLimit      RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// RelayConfig holds settings for the shared outbound HTTP client.
type RelayConfig struct {
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	IdleConnections    int    `toml:"idle_connections"`
	MaxRedirects       int    `toml:"max_redirects"`
	UserAgent          string `toml:"user_agent"`
	CAFile             string `toml:"ca_file"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`

	// GraphQLCallerHeadersOverride lets caller-supplied Content-Type, Accept
	// and User-Agent replace the GraphQL defaults instead of the reverse.
	GraphQLCallerHeadersOverride bool `toml:"graphql_caller_headers_override"`
}

// StorageConfig holds the SQLite database location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// the user config directory then configs/config.toml. Unlike an explicit
// path, a missing search result is not an error: defaults are used.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.DBPath != "" {
		c.Storage.Path = cli.DBPath
	}
}

func (c *Config) validate() error {
	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}
	for _, o := range c.Server.AllowedOrigins {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("server.allowed_origins must not contain empty entries")
		}
	}
	if c.Relay.TimeoutSeconds < 0 {
		return fmt.Errorf("relay.timeout_seconds must be non-negative; got %d", c.Relay.TimeoutSeconds)
	}
	if c.Relay.IdleConnections < 0 {
		return fmt.Errorf("relay.idle_connections must be non-negative; got %d", c.Relay.IdleConnections)
	}
	if c.Relay.MaxRedirects < 0 {
		return fmt.Errorf("relay.max_redirects must be non-negative; got %d", c.Relay.MaxRedirects)
	}
	if strings.ContainsAny(c.Relay.UserAgent, "\r\n") {
		return fmt.Errorf("relay.user_agent must be a single line")
	}

	// Log fields.
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range reservedPaths {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with defaults.
// For integer fields zero means "unset" because TOML cannot distinguish an
// explicit 0 from an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{
			"tauri://localhost",
			"http://tauri.localhost",
			"http://localhost:1420",
		}
	}
	if c.Relay.TimeoutSeconds == 0 {
		c.Relay.TimeoutSeconds = 30
	}
	if c.Relay.IdleConnections == 0 {
		c.Relay.IdleConnections = 100
	}
	if c.Relay.MaxRedirects == 0 {
		c.Relay.MaxRedirects = 10
	}
	if c.Relay.UserAgent == "" {
		c.Relay.UserAgent = DefaultUserAgent
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(userDir(), "app.sqlite")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// userDir returns the per-user application directory, falling back to the
// working directory when the platform has none.
func userDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(base, appDirName)
}

// configSearchPaths lists paths checked in order when no explicit config is given.
func configSearchPaths() []string {
	return []string{
		filepath.Join(userDir(), "config.toml"),
		"configs/config.toml",
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths())
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FilePath returns the config file that was loaded, or empty when defaults were used.
func (c *Config) FilePath() string {
	return c.filePath
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
