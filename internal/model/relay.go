// Package model defines the shapes exchanged with the UI and the store.
package model

// RelayRequest is one fully specified outbound call.
type RelayRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	// Body is sent verbatim when non-nil; nil means no body at all.
	Body *string `json:"body,omitempty"`
}

// RelayResponse is the normalized result of a relayed call.
type RelayResponse struct {
	StatusCode uint16            `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	DurationMs uint64            `json:"durationMs"`
}

// RelayError is the wire form of any relay failure.
type RelayError struct {
	Message string `json:"message"`
}

// GraphQLSendPayload is the caller-facing input of the GraphQL sender.
type GraphQLSendPayload struct {
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers,omitempty"`
	// Method is GET or POST in any case; empty means POST.
	Method string `json:"method,omitempty"`
	Query  string `json:"query"`
	// Variables is a JSON document as text; blank means no variables.
	Variables string `json:"variables,omitempty"`
}

// GraphQLEnvelope is the request document sent to a GraphQL server.
type GraphQLEnvelope struct {
	Query         string  `json:"query"`
	Variables     any     `json:"variables"`
	OperationName *string `json:"operationName"`
}
