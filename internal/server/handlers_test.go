package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/CriativoDevs/salonix-gateway/internal/config"
	"github.com/CriativoDevs/salonix-gateway/internal/domain"
	"github.com/CriativoDevs/salonix-gateway/internal/gateway"
	"github.com/CriativoDevs/salonix-gateway/internal/salonapi"
)

// fakeUpstream implements upstreamAPI with per-method hooks. Methods
// without a hook return an empty but successful response.
type fakeUpstream struct {
	customerCount    func(ctx context.Context, tenant string) (int, error)
	listAppointments func(ctx context.Context, tenant string, from, to time.Time, pageSize int) ([]domain.Booking, error)
	overview         func(ctx context.Context, tenant string, from, to time.Time) (*domain.OverviewReport, error)
	revenue          func(ctx context.Context, tenant string, from, to time.Time, interval string) ([]domain.RevenuePoint, error)
	listStaff        func(ctx context.Context, tenant string) ([]domain.StaffMember, string, error)
	inviteStaff      func(ctx context.Context, tenant string, payload salonapi.InvitePayload) (*domain.StaffMember, string, error)
	updateStaff      func(ctx context.Context, tenant string, id int64, payload salonapi.UpdatePayload) (*domain.StaffMember, string, error)
	disableStaff     func(ctx context.Context, tenant string, id int64) (string, error)
}

func (f *fakeUpstream) CustomerCount(ctx context.Context, tenant string) (int, error) {
	if f.customerCount != nil {
		return f.customerCount(ctx, tenant)
	}
	return 0, nil
}

func (f *fakeUpstream) ListAppointments(ctx context.Context, tenant string, from, to time.Time, pageSize int) ([]domain.Booking, error) {
	if f.listAppointments != nil {
		return f.listAppointments(ctx, tenant, from, to, pageSize)
	}
	return nil, nil
}

func (f *fakeUpstream) Overview(ctx context.Context, tenant string, from, to time.Time) (*domain.OverviewReport, error) {
	if f.overview != nil {
		return f.overview(ctx, tenant, from, to)
	}
	return &domain.OverviewReport{}, nil
}

func (f *fakeUpstream) Revenue(ctx context.Context, tenant string, from, to time.Time, interval string) ([]domain.RevenuePoint, error) {
	if f.revenue != nil {
		return f.revenue(ctx, tenant, from, to, interval)
	}
	return nil, nil
}

func (f *fakeUpstream) ListStaff(ctx context.Context, tenant string) ([]domain.StaffMember, string, error) {
	if f.listStaff != nil {
		return f.listStaff(ctx, tenant)
	}
	return nil, "", nil
}

func (f *fakeUpstream) InviteStaff(ctx context.Context, tenant string, payload salonapi.InvitePayload) (*domain.StaffMember, string, error) {
	if f.inviteStaff != nil {
		return f.inviteStaff(ctx, tenant, payload)
	}
	return &domain.StaffMember{ID: 1, Email: payload.Email, Role: payload.Role, Status: domain.StaffInvited}, "", nil
}

func (f *fakeUpstream) UpdateStaff(ctx context.Context, tenant string, id int64, payload salonapi.UpdatePayload) (*domain.StaffMember, string, error) {
	if f.updateStaff != nil {
		return f.updateStaff(ctx, tenant, id, payload)
	}
	return &domain.StaffMember{ID: id, Status: domain.StaffActive}, "", nil
}

func (f *fakeUpstream) DisableStaff(ctx context.Context, tenant string, id int64) (string, error) {
	if f.disableStaff != nil {
		return f.disableStaff(ctx, tenant, id)
	}
	return "", nil
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:       "test",
		Port:         "8080",
		UpstreamURL:  "http://upstream.test",
		OriginURL:    "http://origin.test",
		CacheVersion: "v-test",
		APIPrefix:    "/api/",
		RateLimitRPS: 1000,
	}
}

func newTestServer(t *testing.T, api upstreamAPI) *Server {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	ready := func(ctx context.Context) error { return nil }
	return NewServer(testConfig(), api, gateway.NewSupervisor(), clock, ready)
}

// newHandlerContext builds an echo context the way a routed request
// would see it, including the response recorder for assertions.
func newHandlerContext(srv *Server, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return srv.echo.NewContext(req, rec), rec
}
