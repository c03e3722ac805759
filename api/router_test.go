package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/flightscrape/api/handler"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/flights"
	"github.com/use-agent/flightscrape/models"
)

var fixedNow = time.Date(2023, 5, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type stubPool struct{}

func (stubPool) Stats() models.PoolStats { return models.PoolStats{MaxPages: 4, ActivePages: 1} }

// stubFetcher renders every url as the same results page.
type stubFetcher struct {
	lines []string
	err   error
}

func (f *stubFetcher) FetchLines(context.Context, string) ([]string, error) {
	return f.lines, f.err
}

func (f *stubFetcher) FetchBatch(_ context.Context, urls []string) []models.PageResult {
	out := make([]models.PageResult, len(urls))
	for i, u := range urls {
		out[i] = models.PageResult{URL: u, Lines: f.lines, Err: f.err}
	}
	return out
}

func resultsPage() []string {
	return []string{
		"Sort by:",
		"10:00 AM", "12:00 PM", "Delta", "2 hr", "JFK–LAX", "Nonstop", "150 kg", "Avg emissions", "$250", "Round trip",
		"1:00 PM", "3:00 PM", "Delta", "2 hr", "JFK–LAX", "Nonstop", "150 kg", "Avg emissions", "$390", "Round trip",
		"6:00 PM",
		"4 more flights",
	}
}

type fixture struct {
	router   *gin.Engine
	store    *cache.Store
	jobs     *handler.SweepJobs
	cacheDir string
}

func newFixture(t *testing.T, f flights.PageFetcher, cfg *config.Config) *fixture {
	t.Helper()
	dir := t.TempDir()
	b, err := cache.NewFileBackend(dir)
	require.NoError(t, err)
	store := cache.NewStore(b, cache.WithClock(clock))
	urls, err := flights.NewURLBuilder("")
	require.NoError(t, err)
	svc := flights.NewService(f, store, urls, flights.WithClock(clock))
	jobs := handler.NewSweepJobs(svc, nil)

	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.Server.Mode = gin.TestMode
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000}
	}

	return &fixture{
		router:   NewRouter(stubPool{}, svc, store, jobs, cfg, time.Now()),
		store:    store,
		jobs:     jobs,
		cacheDir: dir,
	}
}

func (fx *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	fx := newFixture(t, &stubFetcher{}, nil)

	w := fx.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 4, resp.PoolStats.MaxPages)
	assert.Equal(t, 0, resp.Routes)
}

func TestFetchThenQuery(t *testing.T) {
	fx := newFixture(t, &stubFetcher{lines: resultsPage()}, nil)

	w := fx.do(t, http.MethodPost, "/api/v1/flights/fetch", map[string]any{
		"origin": "jfk", "dest": "lax", "leave_date": "2023-05-15", "return_date": "2023-06-15", "use_cache": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.FlightsResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "JFK-LAX", resp.Route)
	assert.Equal(t, 2, resp.Count)
	assert.False(t, resp.FromCache)

	w = fx.do(t, http.MethodGet, "/api/v1/flight-data?origin=LAX&dest=JFK&depart-date=2023-05-15&price-max=300", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	q := decode[models.FlightsResponse](t, w)
	require.Equal(t, 1, q.Count)
	assert.Equal(t, 250.0, q.Rows[0].Price)
}

func TestFlightData_UnknownRoute(t *testing.T) {
	fx := newFixture(t, &stubFetcher{}, nil)

	w := fx.do(t, http.MethodGet, "/api/v1/flight-data?origin=JFK&dest=CDG", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrCodeNotFound, decode[models.ErrorResponse](t, w).Error.Code)
}

func TestFlightData_MissingParams(t *testing.T) {
	fx := newFixture(t, &stubFetcher{}, nil)

	w := fx.do(t, http.MethodGet, "/api/v1/flight-data?origin=JFK", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetch_Errors(t *testing.T) {
	timeout := models.NewScrapeError(models.ErrCodeTimeout, "results did not render in time", context.DeadlineExceeded)
	fx := newFixture(t, &stubFetcher{err: timeout}, nil)

	w := fx.do(t, http.MethodPost, "/api/v1/flights/fetch", map[string]any{
		"origin": "JFK", "dest": "LAX", "leave_date": "2023-05-15", "return_date": "2023-06-15",
	})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, models.ErrCodeTimeout, decode[models.ErrorResponse](t, w).Error.Code)

	w = fx.do(t, http.MethodPost, "/api/v1/flights/fetch", map[string]any{"origin": "JFK"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetch_CorruptCacheConflict(t *testing.T) {
	fx := newFixture(t, &stubFetcher{lines: resultsPage()}, nil)
	path := filepath.Join(fx.cacheDir, cache.Filename(models.NewRoute("JFK", "LAX")))
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	w := fx.do(t, http.MethodPost, "/api/v1/flights/fetch", map[string]any{
		"origin": "JFK", "dest": "LAX", "leave_date": "2023-05-15", "return_date": "2023-06-15", "use_cache": true,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, models.ErrCodeCacheCorrupt, decode[models.ErrorResponse](t, w).Error.Code)
}

func TestBatch(t *testing.T) {
	fx := newFixture(t, &stubFetcher{lines: resultsPage()}, nil)

	w := fx.do(t, http.MethodPost, "/api/v1/flights/batch", map[string]any{
		"origin":       "JFK",
		"dest":         "LAX",
		"leave_dates":  []string{"2023-05-15", "2023-05-16"},
		"return_dates": []string{"2023-06-15", "2023-06-15"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.FlightsResponse](t, w)
	assert.Equal(t, 4, resp.Count)
	assert.Empty(t, resp.Failures)

	w = fx.do(t, http.MethodPost, "/api/v1/flights/batch", map[string]any{
		"origin":       "JFK",
		"dest":         "LAX",
		"leave_dates":  []string{"2023-05-15", "2023-05-16"},
		"return_dates": []string{"2023-06-15"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSweepJob(t *testing.T) {
	fx := newFixture(t, &stubFetcher{lines: resultsPage()}, nil)

	w := fx.do(t, http.MethodPost, "/api/v1/flights/sweep", map[string]any{
		"origin": "JFK", "dest": "LAX", "leave_date": "2023-05-15", "return_date": "2023-06-15", "width": 1,
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	started := decode[models.SweepResponse](t, w)
	assert.Equal(t, 4, started.Pairs)
	assert.NotEmpty(t, started.ID)

	fx.jobs.Wait()

	w = fx.do(t, http.MethodGet, "/api/v1/flights/sweep/"+started.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	job := decode[models.SweepJob](t, w)
	assert.Equal(t, handler.StatusCompleted, job.Status)
	assert.Equal(t, "JFK-LAX", job.Route)
	assert.Equal(t, 8, job.Rows)

	entry, err := fx.store.Get("JFK", "LAX")
	require.NoError(t, err)
	assert.Len(t, entry.Rows, 8)

	w = fx.do(t, http.MethodGet, "/api/v1/flights/sweep/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 0, fx.jobs.Expire(time.Unix(job.CreatedAt, 0)))
	assert.Equal(t, 1, fx.jobs.Expire(time.Unix(job.CreatedAt+1, 0)))
}

func TestSweep_InvalidDate(t *testing.T) {
	fx := newFixture(t, &stubFetcher{}, nil)

	w := fx.do(t, http.MethodPost, "/api/v1/flights/sweep", map[string]any{
		"origin": "JFK", "dest": "LAX", "leave_date": "May 15", "return_date": "2023-06-15",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthEnabled(t *testing.T) {
	fx := newFixture(t, &stubFetcher{}, &config.Config{Auth: config.AuthConfig{Enabled: true, APIKeys: []string{"k"}}})

	assert.Equal(t, http.StatusOK, fx.do(t, http.MethodGet, "/api/v1/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, fx.do(t, http.MethodGet, "/api/v1/flight-data?origin=JFK&dest=LAX", nil).Code)
}
