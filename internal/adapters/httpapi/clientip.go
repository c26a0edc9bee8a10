package httpapi

import (
	"net"
	"net/http"

	"github.com/mikey/contact-relay/internal/core"
)

// clientAddress returns the caller IP from RemoteAddr. When proxy headers are
// trusted, chi's RealIP middleware has already rewritten RemoteAddr.
func clientAddress(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && net.ParseIP(host) != nil {
		return host
	}
	// RealIP leaves a bare IP without a port
	if ip := net.ParseIP(r.RemoteAddr); ip != nil {
		return ip.String()
	}
	return core.UnknownClientAddress
}
