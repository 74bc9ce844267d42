package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EndpointType is the kind of API an endpoint exposes.
type EndpointType string

const (
	EndpointTypeGraphQL EndpointType = "graphql"
)

// EndpointStatus reflects the last known state of an endpoint.
type EndpointStatus string

const (
	EndpointStatusActive   EndpointStatus = "active"
	EndpointStatusInactive EndpointStatus = "inactive"
	EndpointStatusError    EndpointStatus = "error"
)

// AuthType selects how requests to an endpoint authenticate.
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "apikey"
	AuthTypeOAuth2 AuthType = "oauth2"
	AuthTypeCustom AuthType = "custom"
)

// ParseEndpointType validates an endpoint type, case-insensitively.
func ParseEndpointType(s string) (EndpointType, error) {
	switch t := EndpointType(strings.ToLower(s)); t {
	case EndpointTypeGraphQL:
		return t, nil
	}
	return "", fmt.Errorf("unknown endpoint type %q", s)
}

// ParseEndpointStatus validates an endpoint status, case-insensitively.
func ParseEndpointStatus(s string) (EndpointStatus, error) {
	switch st := EndpointStatus(strings.ToLower(s)); st {
	case EndpointStatusActive, EndpointStatusInactive, EndpointStatusError:
		return st, nil
	}
	return "", fmt.Errorf("unknown endpoint status %q", s)
}

// Valid reports whether a is a known authentication type.
func (a AuthType) Valid() bool {
	switch a {
	case AuthTypeNone, AuthTypeBasic, AuthTypeBearer, AuthTypeAPIKey, AuthTypeOAuth2, AuthTypeCustom:
		return true
	}
	return false
}

// AuthConfig holds credentials for an endpoint. Which fields apply depends on AuthType.
type AuthConfig struct {
	AuthType          AuthType        `json:"authType"`
	Username          string          `json:"username,omitempty"`
	Password          string          `json:"password,omitempty"`
	Token             string          `json:"token,omitempty"`
	APIKeyName        string          `json:"apiKeyName,omitempty"`
	APIKeyValue       string          `json:"apiKeyValue,omitempty"`
	APIKeyIn          string          `json:"apiKeyIn,omitempty"` // header, query or cookie
	OAuthTokenURL     string          `json:"oauthTokenUrl,omitempty"`
	OAuthClientID     string          `json:"oauthClientId,omitempty"`
	OAuthClientSecret string          `json:"oauthClientSecret,omitempty"`
	CustomHeaders     json.RawMessage `json:"customHeaders,omitempty"`
	// TokenScript is UI-evaluated code producing a token; stored opaque.
	TokenScript string `json:"tokenScript,omitempty"`
}

// GraphQLConfig is GraphQL-specific endpoint configuration.
type GraphQLConfig struct {
	IntrospectionEnabled bool            `json:"introspectionEnabled"`
	SchemaCache          string          `json:"schemaCache,omitempty"`
	DefaultHeaders       json.RawMessage `json:"defaultHeaders,omitempty"`
	SubscriptionURL      string          `json:"subscriptionUrl,omitempty"`
}

// EndpointConfig carries per-type configuration.
type EndpointConfig struct {
	GraphQL *GraphQLConfig `json:"graphql,omitempty"`
}

// Endpoint is a persisted remote API target.
type Endpoint struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	EndpointType EndpointType    `json:"endpointType"`
	URL          string          `json:"url"`
	Status       EndpointStatus  `json:"status"`
	Auth         *AuthConfig     `json:"auth,omitempty"`
	Config       *EndpointConfig `json:"config,omitempty"`
	Headers      json.RawMessage `json:"headers,omitempty"`
	Favorite     bool            `json:"favorite"`
	Tags         []string        `json:"tags,omitempty"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

// CreateEndpoint is the input for creating an endpoint.
type CreateEndpoint struct {
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	EndpointType EndpointType    `json:"endpointType"`
	URL          string          `json:"url"`
	Auth         *AuthConfig     `json:"auth,omitempty"`
	Config       *EndpointConfig `json:"config,omitempty"`
	Headers      json.RawMessage `json:"headers,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Favorite     *bool           `json:"favorite,omitempty"`
}

// UpdateEndpoint is a partial update; nil fields are left unchanged.
type UpdateEndpoint struct {
	ID          string          `json:"id"`
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	URL         *string         `json:"url,omitempty"`
	Status      *EndpointStatus `json:"status,omitempty"`
	Auth        *AuthConfig     `json:"auth,omitempty"`
	Config      *EndpointConfig `json:"config,omitempty"`
	Headers     json.RawMessage `json:"headers,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Favorite    *bool           `json:"favorite,omitempty"`
}

// DeleteEndpoint identifies the endpoint to remove.
type DeleteEndpoint struct {
	ID string `json:"id"`
}

// EndpointFilter narrows an endpoint listing. Name and URL match as substrings.
type EndpointFilter struct {
	Pagination PaginationParams `json:"pagination"`
	Name       string           `json:"name,omitempty"`
	URL        string           `json:"url,omitempty"`
}
