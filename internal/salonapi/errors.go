package salonapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/CriativoDevs/salonix-gateway/internal/domain"
)

const requestIDHeader = "X-Request-ID"

// APIError is a structured upstream failure: a response that arrived but
// carried a non-2xx status.
type APIError struct {
	StatusCode int
	Detail     string
	Code       string
	Body       json.RawMessage
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("upstream returned %d", e.StatusCode)
}

// newAPIError drains the response body and extracts the detail message,
// error code, and correlation ID. It never fails: an unreadable or
// non-JSON body simply leaves those fields empty.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		// Header lookup is canonicalized, so x-request-id matches too.
		RequestID: resp.Header.Get(requestIDHeader),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	apiErr.Body = body

	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	apiErr.Detail = payload.Detail
	if apiErr.Detail == "" {
		apiErr.Detail = payload.Message
	}
	apiErr.Code = payload.Code
	return apiErr
}

// Classify turns any transport failure into a well-formed NormalizedError.
// Structured upstream failures keep their detail message, body, and request
// ID; everything else (DNS failure, timeout, connection refused) gets the
// caller-supplied fallback message. Returns nil only for a nil error.
func Classify(err error, fallback string) *domain.NormalizedError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Detail
		if msg == "" {
			msg = fallback
		}
		code := apiErr.Code
		if code == "" {
			code = fmt.Sprintf("http_%d", apiErr.StatusCode)
		}
		return &domain.NormalizedError{
			Message:   msg,
			Code:      code,
			Details:   apiErr.Body,
			RequestID: apiErr.RequestID,
		}
	}

	return &domain.NormalizedError{Message: fallback}
}

// IsPermissionDenied reports whether err is an upstream 403.
func IsPermissionDenied(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}
