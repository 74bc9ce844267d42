// Package service implements the relay and GraphQL sending logic.
package service

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/http/httpguts"

	"querybox-relay/internal/client"
	"querybox-relay/internal/config"
	"querybox-relay/internal/metrics"
	"querybox-relay/internal/model"
)

const (
	opProxy   = "proxy_http_request"
	opGraphQL = "send_graphql_request"
)

var (
	errInvalidMethodToken = errors.New("invalid HTTP method")
	errNotText            = errors.New("body is not valid UTF-8 text")
)

// RelayService executes relay and GraphQL calls over the shared client.
type RelayService struct {
	client  *client.Client
	logger  *slog.Logger
	metrics *metrics.Metrics

	userAgent             string
	callerHeadersOverride bool
}

// NewRelayService creates a RelayService.
// The metrics parameter is optional; pass nil to disable relay call metrics.
func NewRelayService(c *client.Client, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *RelayService {
	return &RelayService{
		client:                c,
		logger:                logger.With("component", "relay_service"),
		metrics:               m,
		userAgent:             cfg.Relay.UserAgent,
		callerHeadersOverride: cfg.Relay.GraphQLCallerHeadersOverride,
	}
}

// Proxy executes one arbitrary HTTP call and normalizes the result.
// A method that is not a valid token fails before any network I/O.
func (s *RelayService) Proxy(ctx context.Context, req *model.RelayRequest) (*model.RelayResponse, error) {
	resp, err := s.relay(ctx, req)
	s.record(opProxy, err)
	return resp, err
}

func (s *RelayService) relay(ctx context.Context, rr *model.RelayRequest) (*model.RelayResponse, error) {
	if !httpguts.ValidHeaderFieldName(rr.Method) {
		return nil, newError(KindInvalidMethod, "Invalid HTTP method", fmt.Errorf("%w %q", errInvalidMethodToken, rr.Method))
	}

	var body io.Reader
	if rr.Body != nil {
		body = strings.NewReader(*rr.Body)
	}

	req, err := http.NewRequestWithContext(ctx, rr.Method, rr.URL, body)
	if err != nil {
		return nil, newError(KindTransport, "HTTP request failed", err)
	}
	// No default User-Agent; the caller decides.
	req.Header.Set("User-Agent", "")
	applyHeaders(req, rr.Headers)

	s.logger.Debug("relaying request", "method", req.Method, "host", req.URL.Host)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("relay request failed", "method", req.Method, "host", req.URL.Host, "error", err)
		return nil, newError(KindTransport, "HTTP request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	headers := textHeaders(resp.Header)

	text, err := readBody(resp)
	if err != nil {
		return nil, newError(KindBodyDecode, "Failed to read response body", err)
	}
	elapsed := time.Since(start)

	if text.decoded {
		delete(headers, "Content-Encoding")
		delete(headers, "Content-Length")
	}

	return &model.RelayResponse{
		StatusCode: uint16(resp.StatusCode), //nolint:gosec // net/http bounds status codes to 3 digits
		Headers:    headers,
		Body:       text.body,
		DurationMs: uint64(elapsed.Milliseconds()), //nolint:gosec // elapsed is non-negative
	}, nil
}

// applyHeaders sets caller headers in key order so duplicates differing only in
// case resolve the same way on every call.
func applyHeaders(req *http.Request, headers map[string]string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if strings.EqualFold(k, "Host") {
			req.Host = headers[k]
			continue
		}
		req.Header.Set(k, headers[k])
	}
}

// textHeaders flattens h, dropping values that are not valid UTF-8.
func textHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		kept := vals[:0:0]
		for _, v := range vals {
			if utf8.ValidString(v) {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			out[k] = strings.Join(kept, ", ")
		}
	}
	return out
}

type decodedBody struct {
	body    string
	decoded bool // a Content-Encoding was removed
}

// readBody reads the full body, undoes any content coding the transport left
// in place, and transcodes a declared non-UTF-8 charset.
func readBody(resp *http.Response) (decodedBody, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return decodedBody{}, err
	}

	var out decodedBody
	if enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); enc != "" && len(raw) > 0 {
		var r io.Reader
		switch enc {
		case "br":
			r = brotli.NewReader(bytes.NewReader(raw))
		case "gzip", "x-gzip":
			zr, err := gzip.NewReader(bytes.NewReader(raw))
			if err != nil {
				return decodedBody{}, fmt.Errorf("gzip: %w", err)
			}
			defer func() { _ = zr.Close() }()
			r = zr
		case "deflate":
			zr, err := zlib.NewReader(bytes.NewReader(raw))
			if err != nil {
				return decodedBody{}, fmt.Errorf("deflate: %w", err)
			}
			defer func() { _ = zr.Close() }()
			r = zr
		}
		if r != nil {
			raw, err = io.ReadAll(r)
			if err != nil {
				return decodedBody{}, fmt.Errorf("%s: %w", enc, err)
			}
			out.decoded = true
		}
	}

	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		if label := params["charset"]; label != "" {
			if enc, name := charset.Lookup(label); enc != nil && name != "utf-8" {
				if raw, err = enc.NewDecoder().Bytes(raw); err != nil {
					return decodedBody{}, fmt.Errorf("charset %s: %w", name, err)
				}
			}
		}
	}

	if !utf8.Valid(raw) {
		return decodedBody{}, fmt.Errorf("%w (detected %s)", errNotText, mimetype.Detect(raw).String())
	}
	out.body = string(raw)
	return out, nil
}

func (s *RelayService) record(op string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = KindTransport.String()
		var e *Error
		if errors.As(err, &e) {
			outcome = e.Kind.String()
		}
	}
	s.metrics.RelayCalls.WithLabelValues(op, outcome).Inc()
}
