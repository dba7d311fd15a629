package cache

import (
	"fmt"
	"io"
	"net/http"
)

// Entry is one cached response snapshot.
type Entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Key derives the bucket key for a request: method plus path, with the
// query string when present. Header differences do not fork cache entries.
func Key(r *http.Request) string {
	if r.URL.RawQuery != "" {
		return r.Method + " " + r.URL.Path + "?" + r.URL.RawQuery
	}
	return r.Method + " " + r.URL.Path
}

// Snapshot drains resp.Body into an Entry. The response body is consumed.
func Snapshot(resp *http.Response) (*Entry, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body for cache: %w", err)
	}
	return &Entry{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

// WriteTo replays the snapshot onto a live response writer.
func (e *Entry) WriteTo(w http.ResponseWriter) error {
	for key, values := range e.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(e.Status)
	if _, err := w.Write(e.Body); err != nil {
		return fmt.Errorf("writing cached body: %w", err)
	}
	return nil
}
