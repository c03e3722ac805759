package flights

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/models"
	"github.com/use-agent/flightscrape/parser"
)

// PageFetcher renders result pages into raw text lines.
// *scraper.Scraper satisfies it.
type PageFetcher interface {
	FetchLines(ctx context.Context, url string) ([]string, error)
	FetchBatch(ctx context.Context, urls []string) []models.PageResult
}

// Service orchestrates fetch, parse and cache for one route at a time.
type Service struct {
	fetcher PageFetcher
	store   *cache.Store
	urls    *URLBuilder
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for access dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the orchestrator. store may be nil, in which case
// use_cache is ignored.
func NewService(fetcher PageFetcher, store *cache.Store, urls *URLBuilder, opts ...Option) *Service {
	s := &Service{
		fetcher: fetcher,
		store:   store,
		urls:    urls,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the route cache, or nil.
func (s *Service) Store() *cache.Store {
	return s.store
}

func (s *Service) today() string {
	return s.now().Format(cache.DateLayout)
}

func (s *Service) caching(useCache bool) bool {
	return useCache && s.store != nil
}

func validateRoute(origin, dest string) error {
	if origin == "" || dest == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "origin and dest are required", nil)
	}
	if origin == dest {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "origin and dest must differ", nil)
	}
	return nil
}

// Fetch serves one date pair. A fresh cache hit returns every cached row of
// the route. Otherwise the page is fetched and parsed, and with UseCache the
// rows are merged into the cache. Rejected blocks never fail the call.
func (s *Service) Fetch(ctx context.Context, req models.FetchRequest) (*models.FetchResult, error) {
	req.Normalize()
	if err := validateRoute(req.Origin, req.Dest); err != nil {
		return nil, err
	}

	if s.caching(req.UseCache) {
		ok, err := s.store.ContainsRequest(req.Origin, req.Dest, req.LeaveDate, req.ReturnDate)
		if err != nil {
			return nil, err
		}
		if ok {
			entry, err := s.store.Get(req.Origin, req.Dest)
			if err != nil {
				return nil, err
			}
			slog.Info("serving route from cache", "route", entry.Route, "rows", len(entry.Rows))
			return &models.FetchResult{Rows: entry.Rows, FromCache: true}, nil
		}
	}

	u, err := s.urls.Build(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	lines, err := s.fetcher.FetchLines(ctx, u)
	if err != nil {
		return nil, err
	}

	res := parser.Parse(lines, parser.Stamp{
		LeaveDate:  req.LeaveDate,
		ReturnDate: req.ReturnDate,
		AccessDate: s.today(),
	})
	slog.Info("route fetched",
		"route", req.Route().Key(),
		"leave", req.LeaveDate,
		"return", req.ReturnDate,
		"rows", len(res.Rows),
		"rejected", len(res.Rejected),
		"elapsed", time.Since(start),
	)

	if s.caching(req.UseCache) && len(res.Rows) > 0 {
		if _, err := s.store.Put(req.Origin, req.Dest, res.Rows); err != nil {
			return nil, err
		}
	}

	return &models.FetchResult{Rows: res.Rows, Rejected: len(res.Rejected)}, nil
}

// FetchBatch serves many date pairs of one route with a single batch fetch.
// With UseCache and every pair fresh, the cached route is returned without
// fetching. Each pair that fails to fetch, partition or extract is reported
// in Failures and the rest of the batch continues.
func (s *Service) FetchBatch(ctx context.Context, req models.BatchFetchRequest) (*models.BatchResult, error) {
	if len(req.LeaveDates) != len(req.ReturnDates) {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "leave_dates and return_dates differ in length", nil)
	}
	if len(req.LeaveDates) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "at least one date pair is required", nil)
	}
	reqs := req.Requests()
	origin, dest := reqs[0].Origin, reqs[0].Dest
	if err := validateRoute(origin, dest); err != nil {
		return nil, err
	}

	if s.caching(req.UseCache) {
		leaves, returns := make([]string, len(reqs)), make([]string, len(reqs))
		for i, r := range reqs {
			leaves[i], returns[i] = r.LeaveDate, r.ReturnDate
		}
		ok, err := s.store.ContainsAll(origin, dest, leaves, returns)
		if err != nil {
			return nil, err
		}
		if ok {
			entry, err := s.store.Get(origin, dest)
			if err != nil {
				return nil, err
			}
			slog.Info("serving batch from cache", "route", entry.Route, "rows", len(entry.Rows))
			return &models.BatchResult{Rows: entry.Rows, FromCache: true}, nil
		}
	}

	urls := make([]string, len(reqs))
	for i, r := range reqs {
		u, err := s.urls.Build(r)
		if err != nil {
			return nil, err
		}
		urls[i] = u
	}

	start := time.Now()
	pages := s.fetcher.FetchBatch(ctx, urls)
	if len(pages) != len(urls) {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "fetcher returned a misaligned batch", nil)
	}

	today := s.today()
	out := &models.BatchResult{Rows: []models.FlightObservation{}}
	for i, page := range pages {
		r := reqs[i]
		if page.Err != nil {
			out.Failures = append(out.Failures, failure(r, models.StageFetch, page.Err, 0))
			continue
		}

		res := parser.Parse(page.Lines, parser.Stamp{
			LeaveDate:  r.LeaveDate,
			ReturnDate: r.ReturnDate,
			AccessDate: today,
		})
		out.Rows = append(out.Rows, res.Rows...)

		switch {
		case res.Blocks == 0:
			out.Failures = append(out.Failures, failure(r, models.StagePartition, res.Err(), 0))
		case len(res.Rejected) > 0:
			err := res.Err()
			if err == nil {
				err = models.NewScrapeError(models.ErrCodeMalformedBlock, "some observation blocks were rejected", res.Rejected[0])
			}
			out.Failures = append(out.Failures, failure(r, models.StageExtract, err, len(res.Rejected)))
		}
	}

	slog.Info("batch fetched",
		"route", models.NewRoute(origin, dest).Key(),
		"pairs", len(reqs),
		"rows", len(out.Rows),
		"failures", len(out.Failures),
		"elapsed", time.Since(start),
	)

	if s.caching(req.UseCache) && len(out.Rows) > 0 {
		if _, err := s.store.Put(origin, dest, out.Rows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func failure(r models.FetchRequest, stage string, err error, rejected int) models.DateFailure {
	se := models.AsScrapeError(err)
	return models.DateFailure{
		LeaveDate:  r.LeaveDate,
		ReturnDate: r.ReturnDate,
		Stage:      stage,
		Code:       se.Code,
		Message:    se.Message,
		Rejected:   rejected,
	}
}

// Sweep fetches and caches every date pair within width days of the given
// leave and return dates.
func (s *Service) Sweep(ctx context.Context, req models.SweepRequest) (*models.BatchResult, error) {
	req.Defaults()
	pairs, err := SweepDates(req.LeaveDate, req.ReturnDate, req.Width)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "sweep window holds no valid date pairs", nil)
	}
	leaves, returns := SplitPairs(pairs)
	return s.FetchBatch(ctx, models.BatchFetchRequest{
		Origin:      req.Origin,
		Dest:        req.Dest,
		LeaveDates:  leaves,
		ReturnDates: returns,
		UseCache:    true,
	})
}

// RouteOutcome is the sweep result of one route in SweepRoutes.
type RouteOutcome struct {
	Pair   RoutePair
	Result *models.BatchResult
	Err    error
}

// SweepRoutes sweeps each route in order. A failed route is recorded and the
// next one starts; only context cancellation stops the loop early.
func (s *Service) SweepRoutes(ctx context.Context, routes []RoutePair, leaveDate, returnDate string, width int) []RouteOutcome {
	out := make([]RouteOutcome, 0, len(routes))
	for i, rp := range routes {
		if ctx.Err() != nil {
			break
		}
		res, err := s.Sweep(ctx, models.SweepRequest{
			Origin:     rp.Origin,
			Dest:       rp.Dest,
			LeaveDate:  leaveDate,
			ReturnDate: returnDate,
			Width:      width,
		})
		if err != nil {
			slog.Warn("route sweep failed", "origin", rp.Origin, "dest", rp.Dest, "error", err)
		} else {
			slog.Info("route sweep done",
				"origin", rp.Origin,
				"dest", rp.Dest,
				"progress", i+1,
				"total", len(routes),
				"rows", len(res.Rows),
			)
		}
		out = append(out, RouteOutcome{Pair: rp, Result: res, Err: err})
	}
	return out
}
