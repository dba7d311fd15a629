package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/CriativoDevs/salonix-gateway/internal/dashboard"
	"github.com/CriativoDevs/salonix-gateway/internal/domain"
)

type dashboardResponse struct {
	Data             domain.DashboardSnapshot `json:"data"`
	Error            *domain.NormalizedError  `json:"error"`
	ReportsForbidden bool                     `json:"reports_forbidden"`
}

func toDashboardResponse(result dashboard.LoadResult) dashboardResponse {
	return dashboardResponse{
		Data:             result.Snapshot,
		Error:            result.Err,
		ReportsForbidden: result.ReportsForbidden,
	}
}

func (s *Server) handleDashboard(c echo.Context) error {
	tenant, ok := requireTenant(c)
	if !ok {
		return tenantRequired(c)
	}
	reportsEnabled := c.QueryParam("reports") == "true" || c.QueryParam("reports") == "1"

	set := s.registry.forTenant(tenant)
	result := set.dashboard.Load(c.Request().Context(), tenant, reportsEnabled)

	return c.JSON(http.StatusOK, toDashboardResponse(result))
}

func (s *Server) handleDashboardRefresh(c echo.Context) error {
	tenant, ok := requireTenant(c)
	if !ok {
		return tenantRequired(c)
	}

	set := s.registry.forTenant(tenant)
	result := set.dashboard.Refetch(c.Request().Context())

	return c.JSON(http.StatusOK, toDashboardResponse(result))
}
