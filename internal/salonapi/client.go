package salonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/CriativoDevs/salonix-gateway/internal/domain"
	"github.com/CriativoDevs/salonix-gateway/internal/metrics"
	"github.com/CriativoDevs/salonix-gateway/internal/platform/correlation"
)

const (
	tenantHeader   = "X-Salon-Slug"
	tenantParam    = "salon"
	defaultTimeout = 15 * time.Second

	// Timestamps travel with an explicit UTC offset so the upstream can
	// resolve local reporting windows unambiguously.
	TimeLayout = "2006-01-02T15:04:05-07:00"
)

// Client talks to the upstream salon API. All methods are tenant-scoped
// and safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a salon API client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse upstream URL: %w", err)
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// CustomerCount returns the tenant's total customer count. It requests a
// single-entry page; only the normalized count matters.
func (c *Client) CustomerCount(ctx context.Context, tenant string) (int, error) {
	query := url.Values{"page_size": {"1"}}
	var page Page[json.RawMessage]
	if _, err := c.do(ctx, http.MethodGet, tenant, "salon/customers/", query, nil, &page, "customers"); err != nil {
		return 0, err
	}
	return page.Count, nil
}

// ListAppointments returns bookings within [from, to), ordered by slot time.
func (c *Client) ListAppointments(ctx context.Context, tenant string, from, to time.Time, pageSize int) ([]domain.Booking, error) {
	query := url.Values{
		"page_size": {strconv.Itoa(pageSize)},
		"ordering":  {"slot_time"},
		"from":      {from.Format(TimeLayout)},
		"to":        {to.Format(TimeLayout)},
	}
	var page Page[domain.Booking]
	if _, err := c.do(ctx, http.MethodGet, tenant, "salon/appointments/", query, nil, &page, "appointments"); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Overview returns the aggregated report for one window.
func (c *Client) Overview(ctx context.Context, tenant string, from, to time.Time) (*domain.OverviewReport, error) {
	query := url.Values{
		"from": {from.Format(TimeLayout)},
		"to":   {to.Format(TimeLayout)},
	}
	var report domain.OverviewReport
	if _, err := c.do(ctx, http.MethodGet, tenant, "reports/overview/", query, nil, &report, "overview"); err != nil {
		return nil, err
	}
	return &report, nil
}

// Revenue returns the revenue series for one window at the given interval.
func (c *Client) Revenue(ctx context.Context, tenant string, from, to time.Time, interval string) ([]domain.RevenuePoint, error) {
	query := url.Values{
		"from":     {from.Format(TimeLayout)},
		"to":       {to.Format(TimeLayout)},
		"interval": {interval},
	}
	var page Page[domain.RevenuePoint]
	if _, err := c.do(ctx, http.MethodGet, tenant, "reports/revenue/", query, nil, &page, "revenue"); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// ListStaff returns the tenant's full staff roster.
func (c *Client) ListStaff(ctx context.Context, tenant string) ([]domain.StaffMember, string, error) {
	var page Page[domain.StaffMember]
	requestID, err := c.do(ctx, http.MethodGet, tenant, "salon/staff/", nil, nil, &page, "staff")
	if err != nil {
		return nil, requestID, err
	}
	return page.Results, requestID, nil
}

// InvitePayload is the body of a staff invite.
type InvitePayload struct {
	Email     string           `json:"email"`
	FirstName string           `json:"first_name,omitempty"`
	LastName  string           `json:"last_name,omitempty"`
	Role      domain.StaffRole `json:"role"`
}

// UpdatePayload is a partial staff update; nil fields are left untouched.
type UpdatePayload struct {
	FirstName *string           `json:"first_name,omitempty"`
	LastName  *string           `json:"last_name,omitempty"`
	Role      *domain.StaffRole `json:"role,omitempty"`
}

// InviteStaff creates a new invited member and returns the server's record.
func (c *Client) InviteStaff(ctx context.Context, tenant string, payload InvitePayload) (*domain.StaffMember, string, error) {
	var member domain.StaffMember
	requestID, err := c.do(ctx, http.MethodPost, tenant, "salon/staff/", nil, payload, &member, "staff")
	if err != nil {
		return nil, requestID, err
	}
	return &member, requestID, nil
}

// UpdateStaff patches an existing member and returns the updated record.
func (c *Client) UpdateStaff(ctx context.Context, tenant string, id int64, payload UpdatePayload) (*domain.StaffMember, string, error) {
	path := fmt.Sprintf("salon/staff/%d/", id)
	var member domain.StaffMember
	requestID, err := c.do(ctx, http.MethodPatch, tenant, path, nil, payload, &member, "staff")
	if err != nil {
		return nil, requestID, err
	}
	return &member, requestID, nil
}

// DisableStaff soft-deletes a member upstream. The roster manager removes
// it from local state on success.
func (c *Client) DisableStaff(ctx context.Context, tenant string, id int64) (string, error) {
	path := fmt.Sprintf("salon/staff/%d/", id)
	return c.do(ctx, http.MethodDelete, tenant, path, nil, nil, nil, "staff")
}

// do issues one upstream request and decodes the JSON response into out
// (skipped when out is nil or the response has no content). The returned
// string is the upstream's request-correlation ID, when present.
func (c *Client) do(ctx context.Context, method, tenant, path string, query url.Values, body, out any, endpoint string) (string, error) {
	target := c.baseURL.JoinPath(path)
	if tenant != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set(tenantParam, tenant)
	}
	if query != nil {
		target.RawQuery = query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tenant != "" {
		req.Header.Set(tenantHeader, tenant)
	}

	outboundID, ok := correlation.ID(ctx)
	if !ok {
		outboundID = correlation.NewID()
	}
	req.Header.Set(requestIDHeader, outboundID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return "", fmt.Errorf("upstream request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, statusClass(resp.StatusCode)).Inc()
	requestID := resp.Header.Get(requestIDHeader)

	if resp.StatusCode >= http.StatusBadRequest {
		return requestID, newAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return requestID, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return requestID, fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return requestID, nil
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
