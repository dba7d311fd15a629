package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/CriativoDevs/salonix-gateway/internal/domain"
	"github.com/CriativoDevs/salonix-gateway/internal/roster"
	"github.com/CriativoDevs/salonix-gateway/internal/salonapi"
)

type staffListResponse struct {
	Results   []domain.StaffMember    `json:"results"`
	Count     int                     `json:"count"`
	Forbidden bool                    `json:"forbidden"`
	Error     *domain.NormalizedError `json:"error,omitempty"`
}

type mutationResponse struct {
	Success   bool                    `json:"success"`
	Staff     *domain.StaffMember     `json:"staff,omitempty"`
	RequestID string                  `json:"request_id,omitempty"`
	Error     *domain.NormalizedError `json:"error,omitempty"`
}

func toMutationResponse(result roster.MutationResult) mutationResponse {
	return mutationResponse{
		Success:   result.Success,
		Staff:     result.Staff,
		RequestID: result.RequestID,
		Error:     result.Err,
	}
}

// mutationStatus maps an envelope onto an HTTP status: upstream statuses
// pass through via the classifier's http_NNN code, everything else is a
// bad gateway.
func mutationStatus(result roster.MutationResult, successCode int) int {
	if result.Success {
		return successCode
	}
	if result.Err != nil && strings.HasPrefix(result.Err.Code, "http_") {
		if code, err := strconv.Atoi(strings.TrimPrefix(result.Err.Code, "http_")); err == nil {
			return code
		}
	}
	return http.StatusBadGateway
}

func (s *Server) rosterForRequest(c echo.Context) (*roster.Manager, bool) {
	tenant, ok := requireTenant(c)
	if !ok {
		return nil, false
	}
	set := s.registry.forTenant(tenant)
	set.roster.UseTenant(c.Request().Context(), tenant)
	return set.roster, true
}

func (s *Server) handleListStaff(c echo.Context) error {
	m, ok := s.rosterForRequest(c)
	if !ok {
		return tenantRequired(c)
	}

	response := staffListResponse{
		Results:   m.Members(),
		Forbidden: m.Forbidden(),
		Error:     m.LoadError(),
	}
	response.Count = len(response.Results)

	status := http.StatusOK
	if m.Forbidden() {
		status = http.StatusForbidden
	}
	return c.JSON(status, response)
}

func (s *Server) handleInviteStaff(c echo.Context) error {
	m, ok := s.rosterForRequest(c)
	if !ok {
		return tenantRequired(c)
	}

	var payload salonapi.InvitePayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid invite payload"})
	}
	if payload.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email is required"})
	}

	result := m.Invite(c.Request().Context(), payload)
	return c.JSON(mutationStatus(result, http.StatusCreated), toMutationResponse(result))
}

func (s *Server) handleUpdateStaff(c echo.Context) error {
	m, ok := s.rosterForRequest(c)
	if !ok {
		return tenantRequired(c)
	}

	id, parseErr := strconv.ParseInt(c.Param("id"), 10, 64)
	if parseErr != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid staff id"})
	}

	var payload salonapi.UpdatePayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid update payload"})
	}

	result := m.Update(c.Request().Context(), id, payload)
	return c.JSON(mutationStatus(result, http.StatusOK), toMutationResponse(result))
}

func (s *Server) handleDisableStaff(c echo.Context) error {
	m, ok := s.rosterForRequest(c)
	if !ok {
		return tenantRequired(c)
	}

	id, parseErr := strconv.ParseInt(c.Param("id"), 10, 64)
	if parseErr != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid staff id"})
	}

	result := m.Disable(c.Request().Context(), id)
	return c.JSON(mutationStatus(result, http.StatusOK), toMutationResponse(result))
}
