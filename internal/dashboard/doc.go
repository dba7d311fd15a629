// Package dashboard aggregates tenant metrics from the upstream salon API
// into a single snapshot with partial-failure semantics: every request in
// a load cycle settles independently, so a failed slot never blocks the
// others.
package dashboard
