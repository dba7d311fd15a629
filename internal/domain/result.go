package domain

import "encoding/json"

// NormalizedError is the uniform failure value every manager surfaces.
// It is always fully formed: Message is never empty for a failed operation,
// and the remaining fields are zero when the transport gave us nothing.
type NormalizedError struct {
	Message   string          `json:"message"`
	Code      string          `json:"code,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

func (e *NormalizedError) Error() string {
	return e.Message
}
