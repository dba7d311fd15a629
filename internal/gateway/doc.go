// Package gateway implements the offline/caching layer that fronts the
// salon web client.
//
// A Worker owns one versioned cache bucket and the per-request routing
// policy: API traffic is never cached, authorized requests always hit the
// network, navigations are network-first with an offline fallback, and
// static assets are cache-first. The Supervisor manages the worker
// lifecycle (installing -> active -> superseded) and atomically cuts
// traffic over to a newly activated version.
package gateway
