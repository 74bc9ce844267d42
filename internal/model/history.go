package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HTTPMethod is a request-history method, stored lowercase.
type HTTPMethod string

const (
	MethodGet     HTTPMethod = "get"
	MethodHead    HTTPMethod = "head"
	MethodPost    HTTPMethod = "post"
	MethodPut     HTTPMethod = "put"
	MethodDelete  HTTPMethod = "delete"
	MethodConnect HTTPMethod = "connect"
	MethodOptions HTTPMethod = "options"
	MethodTrace   HTTPMethod = "trace"
	MethodPatch   HTTPMethod = "patch"
)

// ParseHTTPMethod validates a method name, case-insensitively.
func ParseHTTPMethod(s string) (HTTPMethod, error) {
	switch m := HTTPMethod(strings.ToLower(s)); m {
	case MethodGet, MethodHead, MethodPost, MethodPut, MethodDelete,
		MethodConnect, MethodOptions, MethodTrace, MethodPatch:
		return m, nil
	}
	return "", fmt.Errorf("unknown HTTP method %q", s)
}

// RequestHistory is a saved request issued against an endpoint.
type RequestHistory struct {
	ID         string          `json:"id"`
	EndpointID string          `json:"endpointId"`
	Name       *string         `json:"name,omitempty"`
	Method     HTTPMethod      `json:"method"`
	Headers    json.RawMessage `json:"headers,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	Query      *string         `json:"query,omitempty"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt"`
}

// CreateRequestHistory is the input for recording a request.
type CreateRequestHistory struct {
	EndpointID string          `json:"endpointId"`
	Name       *string         `json:"name,omitempty"`
	Method     HTTPMethod      `json:"method"`
	Headers    json.RawMessage `json:"headers,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	Query      *string         `json:"query,omitempty"`
}

// UpdateRequestHistory is a partial update; nil fields are left unchanged.
type UpdateRequestHistory struct {
	ID      string          `json:"id"`
	Name    *string         `json:"name,omitempty"`
	Method  *HTTPMethod     `json:"method,omitempty"`
	Headers json.RawMessage `json:"headers,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
	Query   *string         `json:"query,omitempty"`
}

// DeleteRequestHistory selects history rows by id, endpoint, or both.
type DeleteRequestHistory struct {
	ID         string `json:"id,omitempty"`
	EndpointID string `json:"endpointId,omitempty"`
}
