package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"querybox-relay/internal/model"
)

var errTrailingData = errors.New("trailing data after JSON value")

// SendGraphQL builds a GraphQL request from p and relays it.
// GET sends query and variables as URL parameters; POST sends the envelope as
// a JSON body. Content-Type, Accept and User-Agent are forced unless
// relay.graphql_caller_headers_override is set.
func (s *RelayService) SendGraphQL(ctx context.Context, p *model.GraphQLSendPayload) (*model.RelayResponse, error) {
	resp, err := s.sendGraphQL(ctx, p)
	s.record(opGraphQL, err)
	return resp, err
}

func (s *RelayService) sendGraphQL(ctx context.Context, p *model.GraphQLSendPayload) (*model.RelayResponse, error) {
	vars, err := parseVariables(p.Variables)
	if err != nil {
		return nil, newError(KindInvalidVariables, "Failed to parse variables", err)
	}

	envelope := model.GraphQLEnvelope{Query: p.Query, Variables: vars}

	method := strings.ToUpper(p.Method)
	if method == "" {
		method = http.MethodPost
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, &Error{Kind: KindInvalidMethod, Msg: "Unsupported method: " + method}
	}

	rr := &model.RelayRequest{
		Method:  method,
		URL:     p.Endpoint,
		Headers: s.graphQLHeaders(p.Headers),
	}

	switch method {
	case http.MethodGet:
		target, err := withGraphQLParams(p.Endpoint, envelope)
		if err != nil {
			return nil, newError(KindTransport, "HTTP request failed", err)
		}
		rr.URL = target
	case http.MethodPost:
		body, err := marshalJSON(envelope)
		if err != nil {
			return nil, newError(KindSerialization, "Failed to serialize GraphQL request body", err)
		}
		rr.Body = &body
	}

	return s.relay(ctx, rr)
}

// parseVariables decodes a JSON variables document. Blank input means none.
func parseVariables(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return v, nil
}

func (s *RelayService) graphQLHeaders(caller map[string]string) map[string]string {
	forced := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   s.userAgent,
	}

	out := make(map[string]string, len(caller)+len(forced))
	for k, v := range caller {
		out[k] = v
	}

	for name, value := range forced {
		callerSet := false
		for k := range out {
			if strings.EqualFold(k, name) {
				if s.callerHeadersOverride {
					callerSet = true
					continue
				}
				delete(out, k)
			}
		}
		if !callerSet {
			out[name] = value
		}
	}
	return out
}

// withGraphQLParams appends query and variables parameters to endpoint,
// keeping any query string it already has. Absent variables encode as "".
func withGraphQLParams(endpoint string, env model.GraphQLEnvelope) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	vars := ""
	if env.Variables != nil {
		if vars, err = marshalJSON(env.Variables); err != nil {
			return "", fmt.Errorf("encode variables: %w", err)
		}
	}

	params := url.Values{}
	params.Set("query", env.Query)
	params.Set("variables", vars)

	if u.RawQuery != "" {
		u.RawQuery += "&"
	}
	u.RawQuery += params.Encode()
	return u.String(), nil
}

// marshalJSON encodes v compactly without HTML escaping.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
