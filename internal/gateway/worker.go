package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/CriativoDevs/salonix-gateway/internal/cache"
	"github.com/CriativoDevs/salonix-gateway/internal/metrics"
	"github.com/CriativoDevs/salonix-gateway/internal/platform/retry"
)

// State tracks a worker through its lifecycle. Transitions only move
// forward: installing -> active -> superseded.
type State int32

const (
	StateInstalling State = iota
	StateActive
	StateSuperseded
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateActive:
		return "active"
	case StateSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

const (
	bucketPrefix = "static-"
	rootDocument = "/"
)

// DefaultShell is the application-shell set warmed at install time.
var DefaultShell = []string{"/", "/index.html", "/manifest.json"}

// Config carries everything a Worker needs.
type Config struct {
	Version   string
	OriginURL string // static origin serving the application shell
	APIURL    string // upstream API backend for bypassed requests
	APIPrefix string
	Store     cache.BucketStore
	Shell     []string        // defaults to DefaultShell
	Client    *http.Client    // defaults to a 30s-timeout client
	Clock     clockwork.Clock // defaults to the real clock
}

// Worker serves one cache-bucket version. It is immutable after creation
// apart from its lifecycle state.
type Worker struct {
	version string
	origin  *url.URL
	api     *url.URL
	policy  Policy
	store   cache.BucketStore
	shell   []string
	client  *http.Client
	clock   clockwork.Clock
	state   atomic.Int32
	group   singleflight.Group
	breaker circuitbreaker.CircuitBreaker[*cache.Entry]
}

// NewWorker creates a worker in the installing state.
func NewWorker(cfg Config) (*Worker, error) {
	if cfg.Version == "" {
		return nil, fmt.Errorf("worker version must not be empty")
	}
	origin, err := url.Parse(cfg.OriginURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse origin URL: %w", err)
	}
	api, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API URL: %w", err)
	}

	shell := cfg.Shell
	if len(shell) == 0 {
		shell = DefaultShell
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	w := &Worker{
		version: cfg.Version,
		origin:  origin,
		api:     api,
		policy:  Policy{APIPrefix: cfg.APIPrefix},
		store:   cfg.Store,
		shell:   shell,
		client:  client,
		clock:   clock,
	}
	w.breaker = newOriginBreaker()
	return w, nil
}

func newOriginBreaker() circuitbreaker.CircuitBreaker[*cache.Entry] {
	return circuitbreaker.Builder[*cache.Entry]().
		WithFailureRateThreshold(60, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Origin circuit breaker state changed",
				"component", "gateway",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			metrics.CircuitBreakerStateChanges.WithLabelValues("gateway", e.NewState.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues("gateway").Set(breakerStateToFloat(e.NewState))
		}).
		Build()
}

func breakerStateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

func (w *Worker) Version() string { return w.version }

func (w *Worker) State() State { return State(w.state.Load()) }

// BucketName maps a cache version onto its bucket name.
func BucketName(version string) string { return bucketPrefix + version }

// Bucket is the versioned cache bucket this worker owns.
func (w *Worker) Bucket() string { return BucketName(w.version) }

// Install pre-populates the worker's bucket with the application shell.
// It does not evict older buckets; that happens at activation.
func (w *Worker) Install(ctx context.Context) error {
	policy := retry.Policy{
		MaxAttempts:      3,
		InitialBackoff:   200 * time.Millisecond,
		RateLimitBackoff: 2 * time.Second,
		Clock:            w.clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Shell warmup fetch failed, retrying",
				"version", w.version, "attempt", attempt, "backoff", backoff, "error", err)
		},
	}

	for _, path := range w.shell {
		entry, err := retry.Do(ctx, policy, classifyWarmupError, func() (*cache.Entry, error) {
			return w.fetchShellAsset(ctx, path)
		})
		if err != nil {
			return fmt.Errorf("warming shell asset %s: %w", path, err)
		}
		if err := w.store.Put(ctx, w.Bucket(), http.MethodGet+" "+path, entry); err != nil {
			return fmt.Errorf("storing shell asset %s: %w", path, err)
		}
	}

	slog.Info("Worker installed", "version", w.version, "shell_assets", len(w.shell))
	return nil
}

func classifyWarmupError(err error) retry.Action {
	var status *unexpectedStatusError
	if errors.As(err, &status) {
		switch {
		case status.code == http.StatusTooManyRequests:
			return retry.After
		case status.code >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	return retry.Retry
}

type unexpectedStatusError struct{ code int }

func (e *unexpectedStatusError) Error() string {
	return fmt.Sprintf("origin returned status %d", e.code)
}

func (w *Worker) fetchShellAsset(ctx context.Context, path string) (*cache.Entry, error) {
	target := w.origin.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building warmup request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &unexpectedStatusError{code: resp.StatusCode}
	}
	return cache.Snapshot(resp)
}

// Activate evicts every bucket whose name differs from this worker's and
// marks the worker active. Comparison is exact string equality on the
// bucket name; the version token is the sole invalidation mechanism.
func (w *Worker) Activate(ctx context.Context) error {
	buckets, err := w.store.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("enumerating cache buckets: %w", err)
	}

	for _, bucket := range buckets {
		if bucket == w.Bucket() {
			continue
		}
		if err := w.store.DeleteBucket(ctx, bucket); err != nil {
			return fmt.Errorf("evicting stale bucket %s: %w", bucket, err)
		}
		metrics.CacheBucketEvictions.Inc()
		slog.Info("Evicted stale cache bucket", "bucket", bucket, "active_version", w.version)
	}

	w.state.Store(int32(StateActive))
	metrics.WorkerActivations.WithLabelValues(w.version).Inc()
	slog.Info("Worker activated", "version", w.version)
	return nil
}

// Supersede marks the worker replaced. In-flight requests finish normally;
// new traffic no longer reaches it.
func (w *Worker) Supersede() {
	w.state.Store(int32(StateSuperseded))
	slog.Info("Worker superseded", "version", w.version)
}

// ServeHTTP applies the routing policy to one intercepted request.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	route := w.policy.Decide(r)
	switch route {
	case RouteAPIBypass:
		w.serveBypass(rw, r)
	case RouteNetworkOnly:
		w.serveNetworkOnly(rw, r)
	case RouteNetworkFirst:
		w.serveNetworkFirst(rw, r)
	default:
		w.serveCacheFirst(rw, r)
	}
}

// serveBypass forwards API traffic with cache bypass forced at the
// transport layer. The response is streamed through and never stored.
func (w *Worker) serveBypass(rw http.ResponseWriter, r *http.Request) {
	resp, err := w.forward(w.api, r, true)
	if err != nil {
		metrics.CacheRequestsTotal.WithLabelValues(RouteAPIBypass.String(), "error").Inc()
		http.Error(rw, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.CacheRequestsTotal.WithLabelValues(RouteAPIBypass.String(), "bypass").Inc()
	copyResponse(rw, resp)
}

func (w *Worker) serveNetworkOnly(rw http.ResponseWriter, r *http.Request) {
	resp, err := w.forward(w.origin, r, false)
	if err != nil {
		metrics.CacheRequestsTotal.WithLabelValues(RouteNetworkOnly.String(), "error").Inc()
		http.Error(rw, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.CacheRequestsTotal.WithLabelValues(RouteNetworkOnly.String(), "bypass").Inc()
	copyResponse(rw, resp)
}

// serveNetworkFirst prefers a fresh navigation response and falls back to
// the cached root document when the origin is unreachable.
func (w *Worker) serveNetworkFirst(rw http.ResponseWriter, r *http.Request) {
	entry, err := w.fetchThroughBreaker(r, false)
	if err == nil {
		metrics.CacheRequestsTotal.WithLabelValues(RouteNetworkFirst.String(), "network").Inc()
		_ = entry.WriteTo(rw)
		return
	}

	fallback, found, cacheErr := w.store.Match(r.Context(), w.Bucket(), http.MethodGet+" "+rootDocument)
	if cacheErr != nil || !found {
		metrics.CacheRequestsTotal.WithLabelValues(RouteNetworkFirst.String(), "error").Inc()
		http.Error(rw, "offline and no cached shell", http.StatusServiceUnavailable)
		return
	}

	metrics.CacheRequestsTotal.WithLabelValues(RouteNetworkFirst.String(), "fallback").Inc()
	slog.Debug("Navigation served from offline fallback", "path", r.URL.Path, "error", err)
	_ = fallback.WriteTo(rw)
}

// serveCacheFirst answers from the bucket when possible. Misses are
// fetched from the origin but not stored: only the install-time shell
// lives in the bucket, the browser's HTTP cache handles the rest.
func (w *Worker) serveCacheFirst(rw http.ResponseWriter, r *http.Request) {
	key := cache.Key(r)
	entry, found, err := w.store.Match(r.Context(), w.Bucket(), key)
	if err == nil && found {
		metrics.CacheRequestsTotal.WithLabelValues(RouteCacheFirst.String(), "hit").Inc()
		_ = entry.WriteTo(rw)
		return
	}
	if err != nil {
		slog.Warn("Cache lookup failed, falling through to origin", "key", key, "error", err)
	}

	fresh, err := w.fetchThroughBreaker(r, true)
	if err != nil {
		metrics.CacheRequestsTotal.WithLabelValues(RouteCacheFirst.String(), "error").Inc()
		http.Error(rw, "upstream unavailable", http.StatusBadGateway)
		return
	}

	metrics.CacheRequestsTotal.WithLabelValues(RouteCacheFirst.String(), "miss").Inc()
	_ = fresh.WriteTo(rw)
}

// fetchThroughBreaker fetches from the origin behind the circuit breaker.
// Deduplicated fetches collapse concurrent identical misses into one
// origin round trip.
func (w *Worker) fetchThroughBreaker(r *http.Request, deduplicate bool) (*cache.Entry, error) {
	fetch := func() (*cache.Entry, error) {
		if !w.breaker.TryAcquirePermit() {
			return nil, fmt.Errorf("origin fetch rejected: %w", circuitbreaker.ErrOpen)
		}
		resp, err := w.forward(w.origin, r, false)
		if err != nil {
			w.breaker.RecordError(err)
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		w.breaker.RecordSuccess()
		return cache.Snapshot(resp)
	}

	if !deduplicate {
		return fetch()
	}

	result, err, _ := w.group.Do(cache.Key(r), func() (any, error) {
		return fetch()
	})
	if err != nil {
		return nil, err
	}
	return result.(*cache.Entry), nil
}

// forward replays the inbound request against a backend. bypassCache adds
// the headers that defeat intermediary HTTP caches.
func (w *Worker) forward(backend *url.URL, r *http.Request, bypassCache bool) (*http.Response, error) {
	target := *r.URL
	target.Scheme = backend.Scheme
	target.Host = backend.Host

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		return nil, fmt.Errorf("building forwarded request: %w", err)
	}
	req.Header = r.Header.Clone()
	if bypassCache {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forwarding to %s: %w", backend.Host, err)
	}
	return resp, nil
}

func copyResponse(rw http.ResponseWriter, resp *http.Response) {
	for key, values := range resp.Header {
		for _, v := range values {
			rw.Header().Add(key, v)
		}
	}
	rw.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(rw, resp.Body)
}
