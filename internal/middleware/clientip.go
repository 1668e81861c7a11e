package middleware

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// ProxyHeaders says whether X-Forwarded-For and X-Real-IP are set by a trusted proxy.
type ProxyHeaders bool

const (
	// IgnoreProxyHeaders identifies clients by the connection's remote address only.
	IgnoreProxyHeaders ProxyHeaders = false
	// TrustProxyHeaders takes the client from X-Forwarded-For, then X-Real-IP.
	TrustProxyHeaders ProxyHeaders = true
)

// clientIP returns the originating client address.
func clientIP(ctx huma.Context, proxy ProxyHeaders) string {
	if proxy == TrustProxyHeaders {
		if xff := ctx.Header("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")

			return strings.TrimSpace(first)
		}

		if xri := ctx.Header("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	addr := ctx.RemoteAddr()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}
