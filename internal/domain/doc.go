// Package domain defines the core domain types shared across the gateway.
//
// This package contains concept-oriented files (staff.go, dashboard.go,
// result.go, errors.go) with shared types and cross-cutting contracts.
// No implementation code lives here, which keeps import cycles out of the
// manager packages.
package domain
