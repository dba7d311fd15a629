package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/CriativoDevs/salonix-gateway/internal/domain"
	"github.com/CriativoDevs/salonix-gateway/internal/metrics"
	"github.com/CriativoDevs/salonix-gateway/internal/salonapi"
)

const (
	bookingsPageSize = 200
	revenueInterval  = "month"
)

// API is the slice of the upstream client the orchestrator needs.
type API interface {
	CustomerCount(ctx context.Context, tenant string) (int, error)
	ListAppointments(ctx context.Context, tenant string, from, to time.Time, pageSize int) ([]domain.Booking, error)
	Overview(ctx context.Context, tenant string, from, to time.Time) (*domain.OverviewReport, error)
	Revenue(ctx context.Context, tenant string, from, to time.Time, interval string) ([]domain.RevenuePoint, error)
}

// LoadResult is the outcome of one load cycle.
type LoadResult struct {
	Snapshot         domain.DashboardSnapshot
	Err              *domain.NormalizedError
	ReportsForbidden bool
}

// Orchestrator owns one dashboard's state. Each Load bumps a generation
// counter; a completion carrying a stale generation is discarded instead
// of committed, which stands in for true request cancellation.
type Orchestrator struct {
	api   API
	clock clockwork.Clock

	mu               sync.Mutex
	gen              uint64
	closed           bool
	tenant           string
	reportsEnabled   bool
	snapshot         domain.DashboardSnapshot
	err              *domain.NormalizedError
	reportsForbidden bool
}

func NewOrchestrator(api API, clock clockwork.Clock) *Orchestrator {
	return &Orchestrator{api: api, clock: clock}
}

// Load issues the dashboard batch for one tenant. An empty tenant clears
// state without issuing requests. All requests run concurrently and settle
// independently; the returned snapshot is committed atomically, and only
// if neither the tenant nor the orchestrator changed mid-flight.
func (o *Orchestrator) Load(ctx context.Context, tenant string, reportsEnabled bool) LoadResult {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return LoadResult{}
	}
	o.gen++
	gen := o.gen
	o.tenant = tenant
	o.reportsEnabled = reportsEnabled
	if tenant == "" {
		o.snapshot = domain.DashboardSnapshot{}
		o.err = nil
		o.reportsForbidden = false
		o.mu.Unlock()
		return LoadResult{}
	}
	o.mu.Unlock()

	today := TodayWindow(o.clock)
	monthToDate := MonthToDateWindow(o.clock)

	var (
		wg sync.WaitGroup

		customers    int
		customersErr error
		bookings     []domain.Booking
		bookingsErr  error
		ovDaily      *domain.OverviewReport
		ovDailyErr   error
		ovMonthly    *domain.OverviewReport
		ovMonthlyErr error
		revenue      []domain.RevenuePoint
		revenueErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		customers, customersErr = o.api.CustomerCount(ctx, tenant)
	}()
	go func() {
		defer wg.Done()
		bookings, bookingsErr = o.api.ListAppointments(ctx, tenant, today.From, today.To, bookingsPageSize)
	}()

	if reportsEnabled {
		wg.Add(3)
		go func() {
			defer wg.Done()
			ovDaily, ovDailyErr = o.api.Overview(ctx, tenant, today.From, today.To)
		}()
		go func() {
			defer wg.Done()
			ovMonthly, ovMonthlyErr = o.api.Overview(ctx, tenant, monthToDate.From, monthToDate.To)
		}()
		go func() {
			defer wg.Done()
			revenue, revenueErr = o.api.Revenue(ctx, tenant, monthToDate.From, monthToDate.To, revenueInterval)
		}()
	}

	wg.Wait()

	var snapshot domain.DashboardSnapshot
	var firstErr *domain.NormalizedError
	forbidden := false

	// Permission denials are never surfaced as generic errors; a 403 on an
	// overview request raises the forbidden flag instead. Of the remaining
	// failures only the first (in request order) is surfaced, later ones
	// just leave their slot empty.
	absorb := func(err error, fallback string) {
		if err == nil || salonapi.IsPermissionDenied(err) {
			return
		}
		if firstErr == nil {
			firstErr = salonapi.Classify(err, fallback)
		}
	}

	if customersErr == nil {
		snapshot.Customers = &customers
	}
	absorb(customersErr, "could not load customer count")

	if bookingsErr == nil {
		snapshot.Bookings = bookings
	}
	absorb(bookingsErr, "could not load today's bookings")

	if reportsEnabled {
		if ovDailyErr == nil {
			snapshot.OverviewDaily = ovDaily
		} else if salonapi.IsPermissionDenied(ovDailyErr) {
			forbidden = true
		}
		absorb(ovDailyErr, "could not load daily overview")

		if ovMonthlyErr == nil {
			snapshot.OverviewMonthly = ovMonthly
		} else if salonapi.IsPermissionDenied(ovMonthlyErr) {
			forbidden = true
		}
		absorb(ovMonthlyErr, "could not load monthly overview")

		if revenueErr == nil {
			snapshot.RevenueSeries = revenue
		}
		absorb(revenueErr, "could not load revenue series")
	}

	anyResolved := customersErr == nil || bookingsErr == nil
	if reportsEnabled {
		anyResolved = anyResolved || ovDailyErr == nil || ovMonthlyErr == nil || revenueErr == nil
	}

	result := LoadResult{Snapshot: snapshot, Err: firstErr, ReportsForbidden: forbidden}
	metrics.DashboardLoadsTotal.WithLabelValues(loadResultLabel(result, anyResolved)).Inc()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || gen != o.gen {
		// Tenant switched or consumer tore down mid-flight: the result is
		// returned to the (stale) caller but never committed.
		metrics.StaleCompletionsDropped.WithLabelValues("dashboard").Inc()
		return result
	}
	o.snapshot = snapshot
	o.err = firstErr
	o.reportsForbidden = forbidden
	return result
}

// Refetch re-runs the last Load with the same tenant and flag.
func (o *Orchestrator) Refetch(ctx context.Context) LoadResult {
	o.mu.Lock()
	tenant := o.tenant
	reportsEnabled := o.reportsEnabled
	o.mu.Unlock()
	return o.Load(ctx, tenant, reportsEnabled)
}

// Current returns the committed state.
func (o *Orchestrator) Current() LoadResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return LoadResult{Snapshot: o.snapshot, Err: o.err, ReportsForbidden: o.reportsForbidden}
}

// Close tears the orchestrator down. In-flight loads finish but commit
// nothing afterwards.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

// loadResultLabel maps a load outcome onto its metric label. A failed
// load where at least one request still resolved counts as partial.
func loadResultLabel(r LoadResult, anyResolved bool) string {
	switch {
	case r.ReportsForbidden:
		return "forbidden"
	case r.Err != nil && anyResolved:
		return "partial"
	case r.Err != nil:
		return "error"
	default:
		return "ok"
	}
}
