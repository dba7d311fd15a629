// Package roster maintains the locally-mutable staff roster for one
// tenant, kept consistent with the upstream system of record.
//
// The roster is a keyed map (staff id -> member) projected to an ordered
// sequence, so merge-by-identity is a single deterministic operation.
// Every asynchronous completion re-checks a generation counter before
// committing, which keeps late responses from a previous tenant out of
// the current one's state.
package roster
