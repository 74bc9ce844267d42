// Package client provides the shared outbound HTTP client used by every relay call.
package client

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"querybox-relay/internal/config"
	"querybox-relay/internal/metrics"
)

// ErrTooManyRedirects is returned when a call exceeds relay.max_redirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// Client wraps one pooled *http.Client shared by all relay calls.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New builds the shared client. An unusable TLS setup is returned as an error
// so that startup fails instead of every later call.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func New(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	logger = logger.With("component", "relay_client")

	tlsConfig, err := newTLSConfig(&cfg.Relay)
	if err != nil {
		logger.Error("building relay client", "error", err)
		return nil, fmt.Errorf("relay client: %w", err)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        cfg.Relay.IdleConnections,
		MaxIdleConnsPerHost: cfg.Relay.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	maxRedirects := cfg.Relay.MaxRedirects
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Relay.TimeoutSeconds) * time.Second,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects: %w", maxRedirects, ErrTooManyRedirects)
				}
				return nil
			},
		},
		logger:  logger,
		metrics: m,
	}, nil
}

func newTLSConfig(cfg *config.RelayConfig) (*tls.Config, error) {
	tc := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed dev servers
	}
	if cfg.CAFile == "" {
		return tc, nil
	}

	pem, err := os.ReadFile(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("read ca_file: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("ca_file %s: no PEM certificates found", cfg.CAFile)
	}
	tc.RootCAs = pool
	return tc, nil
}

// HTTPClient returns the underlying client. It is the same instance for the
// lifetime of c.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Timeout returns the total per-call timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Do executes req and returns the raw response.
// The caller is responsible for closing the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.logger.Debug("upstream request",
		"method", req.Method,
		"host", req.URL.Host,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(method).Observe(duration)
		}
		return nil, err
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.UpstreamDuration.WithLabelValues(method).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(method, status).Inc()
	}

	return resp, nil
}
