package middleware

import (
	"net"
	"net/http"

	"github.com/labstack/echo/v4"

	"querybox-relay/internal/model"
)

// hopByHopHeaders never reach the bridge handlers.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// SecurityHeaders strips hop-by-hop request headers and marks responses
// as uncacheable, since relayed bodies can carry credentials.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, h := range hopByHopHeaders {
				c.Request().Header.Del(h)
			}

			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Cache-Control", "no-store")
			h.Set("Referrer-Policy", "no-referrer")

			return next(c)
		}
	}
}

// LoopbackOnly rejects requests whose peer address is not a loopback address.
// The peer is taken from the connection, never from forwarding headers.
func LoopbackOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isLoopback(c.Request().RemoteAddr) {
				return c.JSON(http.StatusForbidden, model.RelayError{Message: "remote access is disabled"})
			}
			return next(c)
		}
	}
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
