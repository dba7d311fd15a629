package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
)

// Supervisor owns the worker lifecycle and routes all intercepted traffic
// through the currently active worker. Swapping the active worker is the
// "claim clients" step: every request after the swap flows through the new
// version without any client-side reload.
type Supervisor struct {
	mu      sync.Mutex
	active  atomic.Pointer[Worker]
	pending *Worker
}

func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

// Active returns the worker currently serving traffic, nil before the
// first activation.
func (s *Supervisor) Active() *Worker {
	return s.active.Load()
}

// Update installs a new worker version. With skipWaiting the new worker
// activates immediately after install; otherwise it stays pending until
// ActivatePending is called. The first worker ever installed always
// activates immediately, there is nothing to wait for.
func (s *Supervisor) Update(ctx context.Context, w *Worker, skipWaiting bool) error {
	if err := w.Install(ctx); err != nil {
		return fmt.Errorf("installing worker %s: %w", w.Version(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if skipWaiting || s.active.Load() == nil {
		return s.activateLocked(ctx, w)
	}
	s.pending = w
	return nil
}

// ActivatePending promotes the waiting worker, if any. Idempotent: with no
// pending worker this is a no-op.
func (s *Supervisor) ActivatePending(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil
	}
	w := s.pending
	s.pending = nil
	return s.activateLocked(ctx, w)
}

func (s *Supervisor) activateLocked(ctx context.Context, w *Worker) error {
	if err := w.Activate(ctx); err != nil {
		return fmt.Errorf("activating worker %s: %w", w.Version(), err)
	}
	if old := s.active.Swap(w); old != nil {
		old.Supersede()
	}
	return nil
}

// ServeHTTP hands the request to the active worker.
func (s *Supervisor) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w := s.active.Load()
	if w == nil {
		http.Error(rw, "gateway not ready", http.StatusServiceUnavailable)
		return
	}
	w.ServeHTTP(rw, r)
}
