package server

import (
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/CriativoDevs/salonix-gateway/internal/dashboard"
	"github.com/CriativoDevs/salonix-gateway/internal/roster"
)

// upstreamAPI is everything the managers need from the salon API client.
type upstreamAPI interface {
	dashboard.API
	roster.API
}

// managerSet bundles one tenant's stateful managers.
type managerSet struct {
	dashboard *dashboard.Orchestrator
	roster    *roster.Manager
}

// Registry hands out per-tenant manager sets, creating them on demand.
// Each tenant's roster and snapshot are owned exclusively by its set; no
// state is shared across tenants.
type Registry struct {
	api   upstreamAPI
	clock clockwork.Clock

	mu   sync.Mutex
	sets map[string]*managerSet
}

func NewRegistry(api upstreamAPI, clock clockwork.Clock) *Registry {
	return &Registry{
		api:   api,
		clock: clock,
		sets:  make(map[string]*managerSet),
	}
}

func (r *Registry) forTenant(tenant string) *managerSet {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[tenant]
	if !ok {
		set = &managerSet{
			dashboard: dashboard.NewOrchestrator(r.api, r.clock),
			roster:    roster.NewManager(r.api),
		}
		r.sets[tenant] = set
	}
	return set
}

// Close tears down every manager; late completions commit nothing after this.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, set := range r.sets {
		set.dashboard.Close()
		set.roster.Close()
	}
	r.sets = make(map[string]*managerSet)
}
