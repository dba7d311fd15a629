package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CriativoDevs/salonix-gateway/internal/cache"
)

// testOrigin serves a minimal application shell and counts hits per path.
type testOrigin struct {
	*httptest.Server
	hits map[string]*atomic.Int64
}

func newTestOrigin(t *testing.T) *testOrigin {
	t.Helper()
	origin := &testOrigin{hits: map[string]*atomic.Int64{}}
	for _, path := range []string{"/", "/index.html", "/manifest.json", "/assets/app.js", "/bookings"} {
		origin.hits[path] = &atomic.Int64{}
	}

	origin.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if counter, ok := origin.hits[r.URL.Path]; ok {
			counter.Add(1)
		}
		switch r.URL.Path {
		case "/", "/index.html", "/bookings":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>" + r.URL.Path + "</html>"))
		case "/manifest.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"salonix"}`))
		case "/assets/app.js":
			w.Header().Set("Content-Type", "application/javascript")
			_, _ = w.Write([]byte("console.log('app')"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(origin.Close)
	return origin
}

func newTestWorker(t *testing.T, version string, store cache.BucketStore, originURL, apiURL string) *Worker {
	t.Helper()
	w, err := NewWorker(Config{
		Version:   version,
		OriginURL: originURL,
		APIURL:    apiURL,
		APIPrefix: "/api/",
		Store:     store,
	})
	require.NoError(t, err)
	return w
}

func TestInstall_WarmsShellIntoVersionedBucket(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	w := newTestWorker(t, "v1", store, origin.URL, origin.URL)

	require.NoError(t, w.Install(context.Background()))
	assert.Equal(t, StateInstalling, w.State())

	for _, path := range DefaultShell {
		_, found, err := store.Match(context.Background(), "static-v1", "GET "+path)
		require.NoError(t, err)
		assert.True(t, found, "shell asset %s not cached", path)
	}
}

func TestInstall_DoesNotEvictOldBuckets(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "static-v0", "GET /", &cache.Entry{Status: 200}))

	w := newTestWorker(t, "v1", store, origin.URL, origin.URL)
	require.NoError(t, w.Install(context.Background()))

	buckets, err := store.Buckets(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"static-v0", "static-v1"}, buckets)
}

func TestActivate_LeavesExactlyOneBucket(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "static-v0", "GET /", &cache.Entry{Status: 200}))
	require.NoError(t, store.Put(ctx, "static-v0.9", "GET /", &cache.Entry{Status: 200}))

	w := newTestWorker(t, "v1", store, origin.URL, origin.URL)
	require.NoError(t, w.Install(ctx))
	require.NoError(t, w.Activate(ctx))

	buckets, err := store.Buckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"static-v1"}, buckets)
	assert.Equal(t, StateActive, w.State())
}

func TestServeHTTP_APINeverAnsweredFromCache(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	ctx := context.Background()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		_, _ = w.Write([]byte(`{"fresh":true}`))
	}))
	t.Cleanup(api.Close)

	w := newTestWorker(t, "v1", store, origin.URL, api.URL)
	require.NoError(t, w.Install(ctx))
	require.NoError(t, w.Activate(ctx))

	// A poisoned cache entry for the API path must never be served.
	require.NoError(t, store.Put(ctx, "static-v1", "GET /api/salon/customers/", &cache.Entry{
		Status: 200, Body: []byte(`{"stale":true}`),
	}))

	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/salon/customers/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"fresh":true}`, rec.Body.String())
}

func TestServeHTTP_AuthorizedRequestSkipsCache(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	ctx := context.Background()

	w := newTestWorker(t, "v1", store, origin.URL, origin.URL)
	require.NoError(t, w.Install(ctx))
	require.NoError(t, w.Activate(ctx))

	require.NoError(t, store.Put(ctx, "static-v1", "GET /bookings", &cache.Entry{
		Status: 200, Body: []byte("cached"),
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, req)

	assert.Equal(t, "<html>/bookings</html>", rec.Body.String())
	assert.Equal(t, int64(1), origin.hits["/bookings"].Load())
}

func TestServeHTTP_NavigationPrefersNetwork(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	ctx := context.Background()

	w := newTestWorker(t, "v1", store, origin.URL, origin.URL)
	require.NoError(t, w.Install(ctx))
	require.NoError(t, w.Activate(ctx))

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>/bookings</html>", rec.Body.String())
}

func TestServeHTTP_NavigationFallsBackToCachedShellWhenOffline(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	ctx := context.Background()

	w := newTestWorker(t, "v1", store, origin.URL, origin.URL)
	require.NoError(t, w.Install(ctx))
	require.NoError(t, w.Activate(ctx))

	// Take the origin down: network-first navigations must degrade to the
	// cached root document.
	origin.Close()

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>/</html>", rec.Body.String())
}

func TestServeHTTP_CacheFirstHitSkipsOrigin(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	ctx := context.Background()

	w := newTestWorker(t, "v1", store, origin.URL, origin.URL)
	require.NoError(t, w.Install(ctx))
	require.NoError(t, w.Activate(ctx))

	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manifest.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"salonix"}`, rec.Body.String())
	// One hit from install warmup, none from serving.
	assert.Equal(t, int64(1), origin.hits["/manifest.json"].Load())
}

func TestServeHTTP_CacheFirstMissFetchesWithoutRepopulating(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	ctx := context.Background()

	w := newTestWorker(t, "v1", store, origin.URL, origin.URL)
	require.NoError(t, w.Install(ctx))
	require.NoError(t, w.Activate(ctx))

	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	assert.Equal(t, "console.log('app')", rec.Body.String())

	// The miss is not written back to the bucket.
	_, found, err := store.Match(ctx, "static-v1", "GET /assets/app.js")
	require.NoError(t, err)
	assert.False(t, found)

	// A second request goes to the origin again.
	rec = httptest.NewRecorder()
	w.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	assert.Equal(t, int64(2), origin.hits["/assets/app.js"].Load())
}

func TestSupervisor_FirstUpdateActivatesImmediately(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	sup := NewSupervisor()

	w := newTestWorker(t, "v1", store, origin.URL, origin.URL)
	require.NoError(t, sup.Update(context.Background(), w, false))

	require.NotNil(t, sup.Active())
	assert.Equal(t, "v1", sup.Active().Version())
	assert.Equal(t, StateActive, w.State())
}

func TestSupervisor_UpdateWaitsUntilActivatePending(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	ctx := context.Background()
	sup := NewSupervisor()

	v1 := newTestWorker(t, "v1", store, origin.URL, origin.URL)
	require.NoError(t, sup.Update(ctx, v1, false))

	v2 := newTestWorker(t, "v2", store, origin.URL, origin.URL)
	require.NoError(t, sup.Update(ctx, v2, false))

	// v2 installed but not yet claimed; v1 still serves and both buckets exist.
	assert.Equal(t, "v1", sup.Active().Version())
	buckets, err := store.Buckets(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"static-v1", "static-v2"}, buckets)

	require.NoError(t, sup.ActivatePending(ctx))

	assert.Equal(t, "v2", sup.Active().Version())
	assert.Equal(t, StateSuperseded, v1.State())

	buckets, err = store.Buckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"static-v2"}, buckets)
}

func TestSupervisor_SkipWaitingActivatesImmediately(t *testing.T) {
	origin := newTestOrigin(t)
	store := cache.NewMemoryStore()
	ctx := context.Background()
	sup := NewSupervisor()

	v1 := newTestWorker(t, "v1", store, origin.URL, origin.URL)
	require.NoError(t, sup.Update(ctx, v1, false))

	v2 := newTestWorker(t, "v2", store, origin.URL, origin.URL)
	require.NoError(t, sup.Update(ctx, v2, true))

	assert.Equal(t, "v2", sup.Active().Version())
	assert.Equal(t, StateSuperseded, v1.State())
}

func TestSupervisor_NotReadyBeforeFirstWorker(t *testing.T) {
	sup := NewSupervisor()
	rec := httptest.NewRecorder()
	sup.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSupervisor_ActivatePendingWithoutPendingIsNoop(t *testing.T) {
	sup := NewSupervisor()
	assert.NoError(t, sup.ActivatePending(context.Background()))
}
