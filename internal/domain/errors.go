package domain

import "errors"

var (
	ErrTenantMissing   = errors.New("tenant slug missing")
	ErrRosterNotLoaded = errors.New("roster not loaded for tenant")
	ErrManagerClosed   = errors.New("manager is closed")
)
