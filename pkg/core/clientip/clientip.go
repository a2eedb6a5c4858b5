// Package clientip resolves the originating client address of an HTTP request.
//
// The default policy trusts the first entry of X-Forwarded-For, which is what
// the nearest reverse proxy prepends. Nothing validates further hops, so a
// client can spoof the header when the service is reachable directly. That is
// an accepted limitation; Resolver.TrustedHops is the opt-in alternative.
package clientip

import (
	"net"
	"net/http"
	"strings"

	"github.com/wadjakorntonsri/visitlog/pkg/core/domain"
)

// ForwardedForHeader is the canonical forwarding header name
const ForwardedForHeader = "X-Forwarded-For"

// Resolve returns the client address for a request with headers h that arrived
// from peer. It never returns an empty string.
func Resolve(h http.Header, peer string) string {
	return Resolver{}.Resolve(h, peer)
}

// Resolver walks the forwarding chain when TrustedHops is positive.
// The zero value applies the default first-entry policy.
type Resolver struct {
	TrustedHops int
}

func (r Resolver) Resolve(h http.Header, peer string) string {
	if addr := r.fromForwarded(h); addr != "" {
		return addr
	}
	if addr := peerHost(peer); addr != "" {
		return addr
	}
	return domain.UnknownAddress
}

func (r Resolver) fromForwarded(h http.Header) string {
	values := h.Values(ForwardedForHeader)
	if len(values) == 0 {
		return ""
	}

	if r.TrustedHops <= 0 {
		first, _, _ := strings.Cut(values[0], ",")
		return strings.TrimSpace(first)
	}

	// Every proxy appends, so all header lines form one chain.
	var chain []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				chain = append(chain, part)
			}
		}
	}
	if len(chain) == 0 {
		return ""
	}
	idx := len(chain) - r.TrustedHops
	if idx < 0 {
		idx = 0
	}
	return chain[idx]
}

// peerHost strips the port from a host:port peer address
func peerHost(peer string) string {
	peer = strings.TrimSpace(peer)
	if host, _, err := net.SplitHostPort(peer); err == nil {
		return host
	}
	return peer
}
