// Package server wires the HTTP surface: health and metrics endpoints,
// the aggregated dashboard and staff APIs backed by the per-tenant
// managers, and a catch-all that hands every other request to the
// gateway's routing policy.
package server
