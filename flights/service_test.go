package flights

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/models"
)

var fixedNow = time.Date(2023, 5, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func nonstop(depart, arrive string, price string) []string {
	return []string{depart, arrive, "Delta", "2 hr", "JFK–LAX", "Nonstop", "150 kg", "Avg emissions", price, "Round trip"}
}

// page renders the text lines of a results page holding blocks.
func page(blocks ...[]string) []string {
	lines := []string{"Flights", "Best departing flights", "Sort by:"}
	for _, b := range blocks {
		lines = append(lines, b...)
	}
	return append(lines, "11:59 PM", "12 more flights", "Hotels")
}

// fakeFetcher serves canned pages keyed by url.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string][]string
	errs   map[string]error
	single []string
	batch  [][]string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string][]string{}, errs: map[string]error{}}
}

func (f *fakeFetcher) serve(req models.FetchRequest, lines []string) {
	f.pages[BuildURL(req.Origin, req.Dest, req.LeaveDate, req.ReturnDate)] = lines
}

func (f *fakeFetcher) fail(req models.FetchRequest, err error) {
	f.errs[BuildURL(req.Origin, req.Dest, req.LeaveDate, req.ReturnDate)] = err
}

func (f *fakeFetcher) FetchLines(_ context.Context, url string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.single = append(f.single, url)
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return f.pages[url], nil
}

func (f *fakeFetcher) FetchBatch(_ context.Context, urls []string) []models.PageResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batch = append(f.batch, urls)
	out := make([]models.PageResult, len(urls))
	for i, u := range urls {
		out[i] = models.PageResult{URL: u, Lines: f.pages[u], Err: f.errs[u]}
	}
	return out
}

func newService(t *testing.T, f PageFetcher) (*Service, *cache.Store) {
	t.Helper()
	b, err := cache.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := cache.NewStore(b, cache.WithClock(clock))
	urls, err := NewURLBuilder("")
	require.NoError(t, err)
	return NewService(f, store, urls, WithClock(clock)), store
}

func TestService_FetchParsesAndCaches(t *testing.T) {
	f := newFakeFetcher()
	svc, store := newService(t, f)

	req := models.FetchRequest{Origin: "jfk", Dest: "lax", LeaveDate: "2023-05-15", ReturnDate: "2023-06-15", UseCache: true}
	f.serve(models.FetchRequest{Origin: "JFK", Dest: "LAX", LeaveDate: "2023-05-15", ReturnDate: "2023-06-15"},
		page(nonstop("10:00 AM", "12:00 PM", "$250"), nonstop("1:00 PM", "3:00 PM", "$1,010")))

	res, err := svc.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, 250.0, res.Rows[0].Price)
	assert.Equal(t, 1010.0, res.Rows[1].Price)
	assert.Equal(t, "2023-05-01", res.Rows[0].AccessDate)

	entry, err := store.Get("LAX", "JFK")
	require.NoError(t, err)
	assert.Len(t, entry.Rows, 2)

	// Second call is a same-day hit and never reaches the fetcher.
	res, err = svc.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Len(t, res.Rows, 2)
	assert.Len(t, f.single, 1)
}

func TestService_FetchWithoutCache(t *testing.T) {
	f := newFakeFetcher()
	svc, store := newService(t, f)

	req := models.FetchRequest{Origin: "JFK", Dest: "LAX", LeaveDate: "2023-05-15", ReturnDate: "2023-06-15"}
	f.serve(req, page(nonstop("10:00 AM", "12:00 PM", "$250")))

	res, err := svc.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)

	_, err = store.Get("JFK", "LAX")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestService_FetchTimeoutSurfaced(t *testing.T) {
	f := newFakeFetcher()
	svc, _ := newService(t, f)

	req := models.FetchRequest{Origin: "JFK", Dest: "LAX", LeaveDate: "2023-05-15", ReturnDate: "2023-06-15"}
	f.fail(req, models.NewScrapeError(models.ErrCodeTimeout, "results did not render in time", context.DeadlineExceeded))

	_, err := svc.Fetch(context.Background(), req)
	assert.True(t, models.IsCode(err, models.ErrCodeTimeout))
}

func TestService_FetchInvalidRoute(t *testing.T) {
	svc, _ := newService(t, newFakeFetcher())

	_, err := svc.Fetch(context.Background(), models.FetchRequest{Origin: "JFK", Dest: "jfk"})
	assert.True(t, models.IsCode(err, models.ErrCodeInvalidInput))
}

func TestService_FetchBatchReportsFailuresPerDate(t *testing.T) {
	f := newFakeFetcher()
	svc, store := newService(t, f)

	ok := models.FetchRequest{Origin: "JFK", Dest: "LAX", LeaveDate: "2023-05-15", ReturnDate: "2023-06-15"}
	timeout := models.FetchRequest{Origin: "JFK", Dest: "LAX", LeaveDate: "2023-05-16", ReturnDate: "2023-06-15"}
	empty := models.FetchRequest{Origin: "JFK", Dest: "LAX", LeaveDate: "2023-05-17", ReturnDate: "2023-06-15"}
	partial := models.FetchRequest{Origin: "JFK", Dest: "LAX", LeaveDate: "2023-05-18", ReturnDate: "2023-06-15"}

	f.serve(ok, page(nonstop("10:00 AM", "12:00 PM", "$250")))
	f.fail(timeout, models.NewScrapeError(models.ErrCodeTimeout, "results did not render in time", nil))
	f.serve(empty, []string{"Sort by:", "No results", "0 more flights"})
	f.serve(partial, page(
		[]string{"8:00 AM", "9:00 AM", "Delta", "1 hr", "JFK LAX", "Nonstop", "90 kg", "Avg emissions", "$99", "Round trip"},
		nonstop("1:00 PM", "3:00 PM", "$300"),
	))

	res, err := svc.FetchBatch(context.Background(), models.BatchFetchRequest{
		Origin:      "JFK",
		Dest:        "LAX",
		LeaveDates:  []string{"2023-05-15", "2023-05-16", "2023-05-17", "2023-05-18"},
		ReturnDates: []string{"2023-06-15", "2023-06-15", "2023-06-15", "2023-06-15"},
		UseCache:    true,
	})
	require.NoError(t, err)
	require.Len(t, f.batch, 1)
	assert.Len(t, f.batch[0], 4)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "2023-05-15", res.Rows[0].LeaveDate)
	assert.Equal(t, "2023-05-18", res.Rows[1].LeaveDate)

	require.Len(t, res.Failures, 3)
	assert.Equal(t, models.StageFetch, res.Failures[0].Stage)
	assert.Equal(t, models.ErrCodeTimeout, res.Failures[0].Code)
	assert.Equal(t, "2023-05-16", res.Failures[0].LeaveDate)
	assert.Equal(t, models.StagePartition, res.Failures[1].Stage)
	assert.Equal(t, models.ErrCodeBoundaryNotFound, res.Failures[1].Code)
	assert.Equal(t, models.StageExtract, res.Failures[2].Stage)
	assert.Equal(t, models.ErrCodeMalformedBlock, res.Failures[2].Code)
	assert.Equal(t, 1, res.Failures[2].Rejected)

	entry, err := store.Get("JFK", "LAX")
	require.NoError(t, err)
	assert.Len(t, entry.Rows, 2)
}

func TestService_FetchBatchCacheHit(t *testing.T) {
	f := newFakeFetcher()
	svc, store := newService(t, f)

	rows := []models.FlightObservation{
		{LeaveDate: "2023-05-15", ReturnDate: "2023-06-15", DepartTime: "10:00 AM", ArrivalTime: "12:00 PM", AccessDate: "2023-05-01"},
		{LeaveDate: "2023-05-16", ReturnDate: "2023-06-15", DepartTime: "10:00 AM", ArrivalTime: "12:00 PM", AccessDate: "2023-05-01"},
	}
	_, err := store.Put("JFK", "LAX", rows)
	require.NoError(t, err)

	res, err := svc.FetchBatch(context.Background(), models.BatchFetchRequest{
		Origin:      "JFK",
		Dest:        "LAX",
		LeaveDates:  []string{"2023-05-15", "2023-05-16"},
		ReturnDates: []string{"2023-06-15", "2023-06-15"},
		UseCache:    true,
	})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Len(t, res.Rows, 2)
	assert.Empty(t, f.batch)
}

func TestService_FetchBatchLengthMismatch(t *testing.T) {
	svc, _ := newService(t, newFakeFetcher())

	_, err := svc.FetchBatch(context.Background(), models.BatchFetchRequest{
		Origin:      "JFK",
		Dest:        "LAX",
		LeaveDates:  []string{"2023-05-15", "2023-05-16"},
		ReturnDates: []string{"2023-06-15"},
	})
	assert.True(t, models.IsCode(err, models.ErrCodeInvalidInput))
}

func TestService_CorruptCacheNotMasked(t *testing.T) {
	f := newFakeFetcher()
	dir := t.TempDir()
	b, err := cache.NewFileBackend(dir)
	require.NoError(t, err)
	store := cache.NewStore(b, cache.WithClock(clock))
	svc := NewService(f, store, mustURLs(t), WithClock(clock))

	require.NoError(t, writeFile(dir, models.NewRoute("JFK", "LAX"), "{not json"))

	_, err = svc.Fetch(context.Background(), models.FetchRequest{
		Origin: "JFK", Dest: "LAX", LeaveDate: "2023-05-15", ReturnDate: "2023-06-15", UseCache: true,
	})
	assert.True(t, models.IsCode(err, models.ErrCodeCacheCorrupt))
	assert.Empty(t, f.single)
}

func TestService_SweepFetchesWindow(t *testing.T) {
	f := newFakeFetcher()
	svc, _ := newService(t, f)

	res, err := svc.Sweep(context.Background(), models.SweepRequest{
		Origin: "JFK", Dest: "LAX", LeaveDate: "2023-05-15", ReturnDate: "2023-05-16", Width: 1,
	})
	require.NoError(t, err)
	require.Len(t, f.batch, 1)
	// (14,15) (14,16) (15,16); (15,15) is not a valid pair.
	assert.Len(t, f.batch[0], 3)
	assert.Empty(t, res.Rows)
	assert.Len(t, res.Failures, 3)
}

func TestService_SweepRoutesContinuesPastFailures(t *testing.T) {
	f := newFakeFetcher()
	svc, _ := newService(t, f)

	out := svc.SweepRoutes(context.Background(), []RoutePair{
		{Origin: "JFK", Dest: "JFK"},
		{Origin: "JFK", Dest: "LAX"},
	}, "2023-05-15", "2023-06-15", 1)

	require.Len(t, out, 2)
	assert.Error(t, out[0].Err)
	assert.NoError(t, out[1].Err)
	assert.NotNil(t, out[1].Result)
}

func TestService_SweepRoutesStopsOnCancel(t *testing.T) {
	svc, _ := newService(t, newFakeFetcher())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := svc.SweepRoutes(ctx, []RoutePair{{Origin: "JFK", Dest: "LAX"}}, "2023-05-15", "2023-06-15", 1)
	assert.Empty(t, out)
}

func TestFailure_PlainError(t *testing.T) {
	fl := failure(models.FetchRequest{LeaveDate: "a", ReturnDate: "b"}, models.StageFetch, errors.New("boom"), 0)
	assert.Equal(t, models.ErrCodeInternal, fl.Code)
	assert.Equal(t, "boom", fl.Message)
}
