package cache

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/flightscrape/models"
)

// DateLayout is the layout of leave, return and access dates.
const DateLayout = "2006-01-02"

// Store applies merge, dedup and freshness rules on top of a Backend.
// It is safe for concurrent use: writers to the same route are serialised
// by a per-route lock so that the load-merge-save sequence is atomic.
type Store struct {
	backend Backend
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for same-day freshness checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore wraps a Backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current date in DateLayout.
func (s *Store) Today() string {
	return s.now().Format(DateLayout)
}

// lock takes the per-route mutex. Entries are never removed from s.locks;
// the map grows with the number of distinct routes.
func (s *Store) lock(route models.Route) func() {
	s.mu.Lock()
	l, ok := s.locks[route.Key()]
	if !ok {
		l = &sync.Mutex{}
		s.locks[route.Key()] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get returns the cached entry for the route, or ErrNotFound.
func (s *Store) Get(origin, dest string) (*models.RouteEntry, error) {
	route := models.NewRoute(origin, dest)
	rows, err := s.backend.Load(route)
	if err != nil {
		return nil, err
	}
	return &models.RouteEntry{Route: route, Rows: rows}, nil
}

// Put merges rows into the route's entry, creating it when missing.
// Rows whose (leave, return, depart, arrival, access) key already exists are
// skipped. It returns the number of rows actually added.
//
// A corrupt entry is never overwritten; the error is returned and the caller
// must call Rebuild first.
func (s *Store) Put(origin, dest string, rows []models.FlightObservation) (int, error) {
	route := models.NewRoute(origin, dest)
	unlock := s.lock(route)
	defer unlock()

	existing, err := s.backend.Load(route)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	merged, added := merge(existing, rows)
	if err := s.backend.Save(route, merged); err != nil {
		return 0, err
	}

	slog.Info("route cache updated",
		"route", route.Key(),
		"added", added,
		"skipped", len(rows)-added,
		"rows", len(merged),
	)
	return added, nil
}

// merge appends rows after existing, dropping any row whose key is already
// present in the result.
func merge(existing, rows []models.FlightObservation) ([]models.FlightObservation, int) {
	seen := make(map[models.RowKey]struct{}, len(existing)+len(rows))
	out := make([]models.FlightObservation, 0, len(existing)+len(rows))

	for _, r := range existing {
		seen[r.Key()] = struct{}{}
		out = append(out, r)
	}

	added := 0
	for _, r := range rows {
		k := r.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
		added++
	}
	return out, added
}

// ContainsRequest reports whether the route entry holds at least one row for
// the leave/return pair and at least one row accessed today.
// An unknown route is reported as false with a nil error; a corrupt entry is
// reported as an error.
func (s *Store) ContainsRequest(origin, dest, leaveDate, returnDate string) (bool, error) {
	entry, err := s.Get(origin, dest)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fresh(entry.Rows, s.Today(), leaveDate, returnDate), nil
}

// ContainsAll reports whether every leave/return pair satisfies
// ContainsRequest. The date lists must have the same length.
func (s *Store) ContainsAll(origin, dest string, leaveDates, returnDates []string) (bool, error) {
	if len(leaveDates) != len(returnDates) {
		return false, models.NewScrapeError(models.ErrCodeInvalidInput, "leave and return date lists differ in length", nil)
	}
	entry, err := s.Get(origin, dest)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	today := s.Today()
	for i := range leaveDates {
		if !fresh(entry.Rows, today, leaveDates[i], returnDates[i]) {
			return false, nil
		}
	}
	return true, nil
}

func fresh(rows []models.FlightObservation, today, leaveDate, returnDate string) bool {
	accessedToday, hasPair := false, false
	for i := range rows {
		if rows[i].AccessDate == today {
			accessedToday = true
		}
		if rows[i].LeaveDate == leaveDate && rows[i].ReturnDate == returnDate {
			hasPair = true
		}
		if accessedToday && hasPair {
			return true
		}
	}
	return false
}

// Query returns the cached rows of a route that match q. An empty
// AccessDate matches today's rows only.
func (s *Store) Query(q models.FlightQuery) ([]models.FlightObservation, error) {
	q.Defaults()
	entry, err := s.Get(q.Origin, q.Dest)
	if err != nil {
		return nil, err
	}

	access := q.AccessDate
	if access == "" {
		access = s.Today()
	}

	out := []models.FlightObservation{}
	for _, r := range entry.Rows {
		if q.LeaveDate != "" && r.LeaveDate != q.LeaveDate {
			continue
		}
		if q.ReturnDate != "" && r.ReturnDate != q.ReturnDate {
			continue
		}
		if r.AccessDate != access {
			continue
		}
		if r.Price < q.PriceMin || r.Price > q.PriceMax {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Clean removes duplicate rows from a persisted entry and returns how many
// were dropped. Entries written through Put are already duplicate-free;
// Clean repairs entries written by other tools.
func (s *Store) Clean(origin, dest string) (int, error) {
	route := models.NewRoute(origin, dest)
	unlock := s.lock(route)
	defer unlock()

	rows, err := s.backend.Load(route)
	if err != nil {
		return 0, err
	}
	deduped, _ := merge(nil, rows)
	removed := len(rows) - len(deduped)
	if removed == 0 {
		return 0, nil
	}
	if err := s.backend.Save(route, deduped); err != nil {
		return 0, err
	}
	return removed, nil
}

// CleanAll runs Clean over every persisted route. Corrupt entries are
// logged and skipped; the first such error is returned after the pass.
func (s *Store) CleanAll() (int, error) {
	routes, err := s.backend.List()
	if err != nil {
		return 0, err
	}

	total := 0
	var firstErr error
	for _, r := range routes {
		n, err := s.Clean(r.A, r.B)
		if err != nil {
			slog.Warn("cache clean failed", "route", r.Key(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		total += n
	}
	return total, firstErr
}

// Rebuild discards the route's entry so the next Put starts from scratch.
// It is the explicit recovery path after a CACHE_CORRUPT error.
func (s *Store) Rebuild(origin, dest string) error {
	route := models.NewRoute(origin, dest)
	unlock := s.lock(route)
	defer unlock()

	slog.Warn("discarding route cache entry", "route", route.Key())
	return s.backend.Delete(route)
}

// Routes lists every persisted route.
func (s *Store) Routes() ([]models.Route, error) {
	return s.backend.List()
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
