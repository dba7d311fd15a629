package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no tenant required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Aggregated dashboard
	s.echo.GET("/api/dashboard", s.handleDashboard)
	s.echo.POST("/api/dashboard/refresh", s.handleDashboardRefresh)

	// Staff roster
	s.echo.GET("/api/staff", s.handleListStaff)
	s.echo.POST("/api/staff", s.handleInviteStaff)
	s.echo.PATCH("/api/staff/:id", s.handleUpdateStaff)
	s.echo.DELETE("/api/staff/:id", s.handleDisableStaff)

	// Everything else flows through the caching worker.
	s.echo.Any("/*", echo.WrapHandler(s.supervisor))
}
