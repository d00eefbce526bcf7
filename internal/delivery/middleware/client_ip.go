package middleware

import (
	"net"
	"strings"

	"github.com/labstack/echo/v4"
)

const unknownClientIP = "unknown"

// ClientIP identifies the caller: the first X-Forwarded-For entry, then X-Real-Ip,
// then the connection's remote host.
func ClientIP(c echo.Context) string {
	req := c.Request()

	if forwarded := req.Header.Get(echo.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(req.Header.Get(echo.HeaderXRealIP)); realIP != "" {
		return realIP
	}

	if req.RemoteAddr == "" {
		return unknownClientIP
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	if host == "" {
		return unknownClientIP
	}

	return host
}
