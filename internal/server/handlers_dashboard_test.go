package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CriativoDevs/salonix-gateway/internal/domain"
	"github.com/CriativoDevs/salonix-gateway/internal/salonapi"
)

func TestHandleDashboard_MissingTenant(t *testing.T) {
	srv := newTestServer(t, &fakeUpstream{})
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	c, rec := newHandlerContext(srv, req)

	err := srv.handleDashboard(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDashboard_Success(t *testing.T) {
	api := &fakeUpstream{
		customerCount: func(ctx context.Context, tenant string) (int, error) {
			return 42, nil
		},
		listAppointments: func(ctx context.Context, tenant string, from, to time.Time, pageSize int) ([]domain.Booking, error) {
			return []domain.Booking{{ID: 7, CustomerName: "Ana", ServiceName: "Cut"}}, nil
		},
	}
	srv := newTestServer(t, api)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("X-Salon-Slug", "bliss")
	c, rec := newHandlerContext(srv, req)

	err := srv.handleDashboard(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var response dashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotNil(t, response.Data.Customers)
	assert.Equal(t, 42, *response.Data.Customers)
	require.Len(t, response.Data.Bookings, 1)
	assert.Equal(t, "Ana", response.Data.Bookings[0].CustomerName)
	assert.Nil(t, response.Error)
	assert.False(t, response.ReportsForbidden)
}

func TestHandleDashboard_TenantFromQueryParam(t *testing.T) {
	var seen string
	api := &fakeUpstream{
		customerCount: func(ctx context.Context, tenant string) (int, error) {
			seen = tenant
			return 0, nil
		},
	}
	srv := newTestServer(t, api)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?salon=bliss", nil)
	c, rec := newHandlerContext(srv, req)

	err := srv.handleDashboard(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bliss", seen)
}

func TestHandleDashboard_FailureSurfacesClassifiedError(t *testing.T) {
	api := &fakeUpstream{
		customerCount: func(ctx context.Context, tenant string) (int, error) {
			return 0, errors.New("connection refused")
		},
	}
	srv := newTestServer(t, api)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("X-Salon-Slug", "bliss")
	c, rec := newHandlerContext(srv, req)

	err := srv.handleDashboard(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var response dashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotNil(t, response.Error)
	assert.Equal(t, "could not load customer count", response.Error.Message)
	assert.Len(t, response.Data.Bookings, 0)
}

func TestHandleDashboard_ReportsForbidden(t *testing.T) {
	api := &fakeUpstream{
		overview: func(ctx context.Context, tenant string, from, to time.Time) (*domain.OverviewReport, error) {
			return nil, &salonapi.APIError{StatusCode: http.StatusForbidden}
		},
	}
	srv := newTestServer(t, api)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?reports=true", nil)
	req.Header.Set("X-Salon-Slug", "bliss")
	c, rec := newHandlerContext(srv, req)

	err := srv.handleDashboard(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var response dashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.ReportsForbidden)
	assert.Nil(t, response.Error)
}

func TestHandleDashboardRefresh_ReissuesLoad(t *testing.T) {
	calls := 0
	api := &fakeUpstream{
		customerCount: func(ctx context.Context, tenant string) (int, error) {
			calls++
			return calls, nil
		},
	}
	srv := newTestServer(t, api)

	load := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	load.Header.Set("X-Salon-Slug", "bliss")
	c, _ := newHandlerContext(srv, load)
	require.NoError(t, srv.handleDashboard(c))

	refresh := httptest.NewRequest(http.MethodPost, "/api/dashboard/refresh", nil)
	refresh.Header.Set("X-Salon-Slug", "bliss")
	c, rec := newHandlerContext(srv, refresh)
	require.NoError(t, srv.handleDashboardRefresh(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, calls)

	var response dashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotNil(t, response.Data.Customers)
	assert.Equal(t, 2, *response.Data.Customers)
}
