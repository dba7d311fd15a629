package salonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Page is a normalized list response. The upstream API answers list
// endpoints either as a bare JSON array or as a {results, count} envelope;
// both decode into the same shape. A missing, negative, or non-finite
// count falls back to len(Results), so Count is always trustworthy.
type Page[T any] struct {
	Results []T
	Count   int
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")

	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(data, &p.Results); err != nil {
			return fmt.Errorf("decoding bare list: %w", err)
		}
		p.Count = len(p.Results)
		return nil
	}

	var envelope struct {
		Results []T             `json:"results"`
		Count   json.RawMessage `json:"count"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decoding list envelope: %w", err)
	}

	p.Results = envelope.Results
	p.Count = normalizeCount(envelope.Count, len(envelope.Results))
	return nil
}

// normalizeCount parses the raw count value, tolerating quoted numbers.
// Anything unparseable, negative, or non-finite yields the list length.
func normalizeCount(raw json.RawMessage, fallback int) int {
	if len(raw) == 0 {
		return fallback
	}
	text := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	count, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(count) || math.IsInf(count, 0) || count < 0 {
		return fallback
	}
	return int(count)
}
