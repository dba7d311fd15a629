package gateway

import (
	"net/http"
	"strings"
)

// Route is the policy decision for one intercepted request.
type Route int

const (
	// RouteAPIBypass forwards to the API backend with caching disabled at
	// every layer. Tenant-scoped data must never be served stale.
	RouteAPIBypass Route = iota
	// RouteNetworkOnly forwards authorized requests straight to the
	// network, uncached.
	RouteNetworkOnly
	// RouteNetworkFirst tries the network and falls back to the cached
	// root document, so navigations degrade gracefully offline.
	RouteNetworkFirst
	// RouteCacheFirst serves static assets from the bucket when present.
	RouteCacheFirst
)

func (r Route) String() string {
	switch r {
	case RouteAPIBypass:
		return "api_bypass"
	case RouteNetworkOnly:
		return "network_only"
	case RouteNetworkFirst:
		return "network_first"
	case RouteCacheFirst:
		return "cache_first"
	default:
		return "unknown"
	}
}

// Policy decides how each intercepted request is routed. Rules are
// evaluated in declaration order; the first match wins.
type Policy struct {
	APIPrefix string
}

func (p Policy) Decide(r *http.Request) Route {
	if strings.HasPrefix(r.URL.Path, p.APIPrefix) {
		return RouteAPIBypass
	}
	if r.Header.Get("Authorization") != "" {
		return RouteNetworkOnly
	}
	if isNavigation(r) {
		return RouteNetworkFirst
	}
	return RouteCacheFirst
}

// isNavigation detects full-page loads: browsers send Sec-Fetch-Mode on
// modern engines, Accept sniffing covers the rest.
func isNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
