package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"querybox-relay/internal/model"
	"querybox-relay/internal/service"
)

// secretParamPattern matches credential-looking query parameters in URLs embedded in error messages.
var secretParamPattern = regexp.MustCompile(`(?i)((?:api_?key|access_token|token|password|secret)=)[^&\s"]+`)

// Relayer executes relay and GraphQL calls.
type Relayer interface {
	Proxy(ctx context.Context, req *model.RelayRequest) (*model.RelayResponse, error)
	SendGraphQL(ctx context.Context, p *model.GraphQLSendPayload) (*model.RelayResponse, error)
}

// RelayHandler serves the relay commands.
type RelayHandler struct {
	relay  Relayer
	logger *slog.Logger
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(r Relayer, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		relay:  r,
		logger: logger.With("component", "relay_handler"),
	}
}

type proxyArgs struct {
	Request *model.RelayRequest `json:"request"`
}

// graphQLArgs accepts {"data": {...}} and the older flattened argument list.
type graphQLArgs struct {
	Data *model.GraphQLSendPayload `json:"data"`
	model.GraphQLSendPayload
}

// ProxyHTTPRequest handles proxy_http_request.
func (h *RelayHandler) ProxyHTTPRequest(c echo.Context) error {
	var args proxyArgs
	if err := c.Bind(&args); err != nil {
		return badArguments(c, err)
	}
	if args.Request == nil {
		return c.JSON(http.StatusBadRequest, model.RelayError{Message: "missing argument: request"})
	}

	// Calls run to completion even if the caller goes away.
	ctx := context.WithoutCancel(c.Request().Context())
	resp, err := h.relay.Proxy(ctx, args.Request)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// SendGraphQLRequest handles send_graphql_request.
func (h *RelayHandler) SendGraphQLRequest(c echo.Context) error {
	var args graphQLArgs
	if err := c.Bind(&args); err != nil {
		return badArguments(c, err)
	}
	payload := args.Data
	if payload == nil {
		payload = &args.GraphQLSendPayload
	}

	ctx := context.WithoutCancel(c.Request().Context())
	resp, err := h.relay.SendGraphQL(ctx, payload)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RelayHandler) mapError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	var re *service.Error
	if errors.As(err, &re) {
		switch re.Kind {
		case service.KindInvalidMethod, service.KindInvalidVariables:
			status = http.StatusBadRequest
		case service.KindTransport, service.KindBodyDecode:
			status = http.StatusBadGateway
		case service.KindSerialization:
			status = http.StatusInternalServerError
		}
	}

	h.logger.Warn("relay error",
		"err", sanitizeError(err),
		"command", c.Path(),
		"status", status,
	)
	return c.JSON(status, model.RelayError{Message: err.Error()})
}

func badArguments(c echo.Context, err error) error {
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	return c.JSON(http.StatusBadRequest, model.RelayError{Message: "invalid arguments: " + msg})
}

// sanitizeError redacts credentials from error messages that may contain URLs.
func sanitizeError(err error) string {
	return secretParamPattern.ReplaceAllString(err.Error(), "${1}[REDACTED]")
}
