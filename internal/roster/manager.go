package roster

import (
	"context"
	"sync"

	"github.com/CriativoDevs/salonix-gateway/internal/domain"
	"github.com/CriativoDevs/salonix-gateway/internal/metrics"
	"github.com/CriativoDevs/salonix-gateway/internal/salonapi"
)

// API is the slice of the upstream client the roster manager needs.
type API interface {
	ListStaff(ctx context.Context, tenant string) ([]domain.StaffMember, string, error)
	InviteStaff(ctx context.Context, tenant string, payload salonapi.InvitePayload) (*domain.StaffMember, string, error)
	UpdateStaff(ctx context.Context, tenant string, id int64, payload salonapi.UpdatePayload) (*domain.StaffMember, string, error)
	DisableStaff(ctx context.Context, tenant string, id int64) (string, error)
}

// MutationResult is the uniform envelope every mutation returns. Callers
// never see a raised error: failures arrive classified inside Err.
type MutationResult struct {
	Success   bool
	Staff     *domain.StaffMember
	RequestID string
	Err       *domain.NormalizedError
}

func failure(err *domain.NormalizedError, requestID string) MutationResult {
	return MutationResult{Err: err, RequestID: requestID}
}

// Manager owns one tenant's roster.
type Manager struct {
	api API

	mu        sync.Mutex
	gen       uint64
	closed    bool
	tenant    string
	loaded    bool
	forbidden bool
	loadErr   *domain.NormalizedError
	members   map[int64]domain.StaffMember
	order     []int64
}

func NewManager(api API) *Manager {
	return &Manager{
		api:     api,
		members: make(map[int64]domain.StaffMember),
	}
}

// UseTenant points the manager at a tenant. A changed slug resets to an
// unloaded state first, so a late response for the old tenant can never
// leak into the new one, then triggers a fresh load. Calling it again
// with the current tenant is a no-op once loaded.
func (m *Manager) UseTenant(ctx context.Context, tenant string) {
	m.mu.Lock()
	if m.closed || (m.tenant == tenant && m.loaded) {
		m.mu.Unlock()
		return
	}
	m.tenant = tenant
	m.resetLocked()
	gen := m.gen
	m.mu.Unlock()

	if tenant == "" {
		return
	}
	m.load(ctx, tenant, gen)
}

// Reload re-fetches the current tenant's roster, invalidating any
// in-flight completions.
func (m *Manager) Reload(ctx context.Context) {
	m.mu.Lock()
	if m.closed || m.tenant == "" {
		m.mu.Unlock()
		return
	}
	tenant := m.tenant
	m.resetLocked()
	gen := m.gen
	m.mu.Unlock()

	m.load(ctx, tenant, gen)
}

// resetLocked clears roster state and bumps the generation. Callers hold mu.
func (m *Manager) resetLocked() {
	m.gen++
	m.members = make(map[int64]domain.StaffMember)
	m.order = nil
	m.loaded = false
	m.forbidden = false
	m.loadErr = nil
}

func (m *Manager) load(ctx context.Context, tenant string, gen uint64) {
	members, _, err := m.api.ListStaff(ctx, tenant)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		metrics.StaleCompletionsDropped.WithLabelValues("roster").Inc()
		return
	}

	if err != nil {
		if salonapi.IsPermissionDenied(err) {
			m.forbidden = true
		}
		m.loadErr = salonapi.Classify(err, "could not load staff roster")
		return
	}

	for _, member := range members {
		m.mergeLocked(member)
	}
	m.loaded = true
}

// Invite creates a new member upstream and merges the server's record
// into the roster by id.
func (m *Manager) Invite(ctx context.Context, payload salonapi.InvitePayload) MutationResult {
	tenant, gen, err := m.mutationPreflight()
	if err != nil {
		metrics.RosterMutationsTotal.WithLabelValues("invite", "rejected").Inc()
		return failure(err, "")
	}

	member, requestID, apiErr := m.api.InviteStaff(ctx, tenant, payload)
	if apiErr != nil {
		metrics.RosterMutationsTotal.WithLabelValues("invite", "error").Inc()
		return failure(salonapi.Classify(apiErr, "could not invite staff member"), requestID)
	}
	metrics.RosterMutationsTotal.WithLabelValues("invite", "ok").Inc()

	m.commit(gen, func() { m.mergeLocked(*member) })
	return MutationResult{Success: true, Staff: member, RequestID: requestID}
}

// Update patches an existing member and merges the result the same way
// invite does: replace if present, append otherwise.
func (m *Manager) Update(ctx context.Context, id int64, payload salonapi.UpdatePayload) MutationResult {
	tenant, gen, err := m.mutationPreflight()
	if err != nil {
		metrics.RosterMutationsTotal.WithLabelValues("update", "rejected").Inc()
		return failure(err, "")
	}

	member, requestID, apiErr := m.api.UpdateStaff(ctx, tenant, id, payload)
	if apiErr != nil {
		metrics.RosterMutationsTotal.WithLabelValues("update", "error").Inc()
		return failure(salonapi.Classify(apiErr, "could not update staff member"), requestID)
	}
	metrics.RosterMutationsTotal.WithLabelValues("update", "ok").Inc()

	m.commit(gen, func() { m.mergeLocked(*member) })
	return MutationResult{Success: true, Staff: member, RequestID: requestID}
}

// Disable soft-deletes the member upstream and removes it from the local
// roster on success. Local state is untouched on failure.
func (m *Manager) Disable(ctx context.Context, id int64) MutationResult {
	tenant, gen, err := m.mutationPreflight()
	if err != nil {
		metrics.RosterMutationsTotal.WithLabelValues("disable", "rejected").Inc()
		return failure(err, "")
	}

	requestID, apiErr := m.api.DisableStaff(ctx, tenant, id)
	if apiErr != nil {
		metrics.RosterMutationsTotal.WithLabelValues("disable", "error").Inc()
		return failure(salonapi.Classify(apiErr, "could not disable staff member"), requestID)
	}
	metrics.RosterMutationsTotal.WithLabelValues("disable", "ok").Inc()

	m.commit(gen, func() { m.removeLocked(id) })
	return MutationResult{Success: true, RequestID: requestID}
}

// mutationPreflight rejects mutations until the current tenant's roster
// has loaded, preventing writes against the wrong tenant.
func (m *Manager) mutationPreflight() (string, uint64, *domain.NormalizedError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", 0, &domain.NormalizedError{Message: domain.ErrManagerClosed.Error()}
	}
	if m.tenant == "" {
		return "", 0, &domain.NormalizedError{Message: domain.ErrTenantMissing.Error()}
	}
	if !m.loaded {
		return "", 0, &domain.NormalizedError{Message: domain.ErrRosterNotLoaded.Error()}
	}
	return m.tenant, m.gen, nil
}

// commit applies a state change unless the manager closed or the tenant
// switched while the request was in flight.
func (m *Manager) commit(gen uint64, apply func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || gen != m.gen {
		metrics.StaleCompletionsDropped.WithLabelValues("roster").Inc()
		return
	}
	apply()
}

// mergeLocked inserts or replaces by id. Callers hold mu.
func (m *Manager) mergeLocked(member domain.StaffMember) {
	if _, exists := m.members[member.ID]; !exists {
		m.order = append(m.order, member.ID)
	}
	m.members[member.ID] = member
}

// removeLocked drops an id from map and projection. Callers hold mu.
func (m *Manager) removeLocked(id int64) {
	if _, exists := m.members[id]; !exists {
		return
	}
	delete(m.members, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Members projects the roster to its ordered sequence.
func (m *Manager) Members() []domain.StaffMember {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.StaffMember, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.members[id])
	}
	return out
}

// Loaded reports whether the current tenant's roster has been populated.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Forbidden reports whether the last load was rejected with a 403.
func (m *Manager) Forbidden() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forbidden
}

// LoadError returns the classified error from the last failed load, nil
// after a successful one.
func (m *Manager) LoadError() *domain.NormalizedError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadErr
}

// Tenant returns the slug the manager currently serves.
func (m *Manager) Tenant() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenant
}

// Close tears the manager down; subsequent completions commit nothing.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
