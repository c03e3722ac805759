package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/flightscrape/flights"
	"github.com/use-agent/flightscrape/models"
	"github.com/use-agent/flightscrape/webhook"
)

// Sweep job statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusPartial    = "partial"
	StatusFailed     = "failed"
)

// jobTTL bounds how long finished jobs stay queryable.
const jobTTL = time.Hour

type sweepEntry struct {
	mu  sync.Mutex
	job models.SweepJob
}

func (e *sweepEntry) snapshot() models.SweepJob {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job
}

// SweepJobs runs date-window sweeps in the background and keeps their
// status in memory.
type SweepJobs struct {
	svc      *flights.Service
	notifier *webhook.Notifier
	jobs     sync.Map // id -> *sweepEntry
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewSweepJobs creates the job registry. notifier may be nil.
func NewSweepJobs(svc *flights.Service, notifier *webhook.Notifier) *SweepJobs {
	return &SweepJobs{svc: svc, notifier: notifier, now: time.Now}
}

// Post returns a handler for POST /api/v1/flights/sweep.
// The sweep runs detached from the request; the response carries the job id.
func (s *SweepJobs) Post() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SweepRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}
		req.Defaults()

		pairs, err := flights.SweepDates(req.LeaveDate, req.ReturnDate, req.Width)
		if err != nil {
			respondError(c, err)
			return
		}

		entry := &sweepEntry{job: models.SweepJob{
			ID:        uuid.NewString(),
			Status:    StatusProcessing,
			Route:     models.NewRoute(req.Origin, req.Dest).Key(),
			Pairs:     len(pairs),
			CreatedAt: s.now().Unix(),
		}}
		s.jobs.Store(entry.job.ID, entry)

		s.wg.Add(1)
		go s.run(entry, req)

		c.JSON(http.StatusAccepted, models.SweepResponse{
			ID:     entry.job.ID,
			Status: StatusProcessing,
			Pairs:  len(pairs),
		})
	}
}

// Get returns a handler for GET /api/v1/flights/sweep/:id.
func (s *SweepJobs) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := s.jobs.Load(c.Param("id"))
		if !ok {
			respondError(c, models.NewScrapeError(models.ErrCodeNotFound, "sweep job not found", nil))
			return
		}
		c.JSON(http.StatusOK, v.(*sweepEntry).snapshot())
	}
}

func (s *SweepJobs) run(entry *sweepEntry, req models.SweepRequest) {
	defer s.wg.Done()

	res, err := s.svc.Sweep(context.Background(), req)

	entry.mu.Lock()
	switch {
	case err != nil:
		entry.job.Status = StatusFailed
		entry.job.Error = models.AsScrapeError(err).ToDetail()
	case len(res.Failures) > 0:
		entry.job.Status = StatusPartial
	default:
		entry.job.Status = StatusCompleted
	}
	if res != nil {
		entry.job.Rows = len(res.Rows)
		entry.job.Failures = res.Failures
	}
	job := entry.job
	entry.mu.Unlock()

	slog.Info("sweep job finished",
		"job_id", job.ID,
		"route", job.Route,
		"status", job.Status,
		"rows", job.Rows,
		"failures", len(job.Failures),
	)

	s.notifier.DeliverAsync(&webhook.Event{
		Type:      webhook.EventSweepCompleted,
		JobID:     job.ID,
		Timestamp: s.now().Unix(),
		Data:      job,
	})
}

// Expire drops jobs created before cutoff that are no longer running.
func (s *SweepJobs) Expire(cutoff time.Time) int {
	removed := 0
	s.jobs.Range(func(key, value any) bool {
		job := value.(*sweepEntry).snapshot()
		if job.Status != StatusProcessing && job.CreatedAt < cutoff.Unix() {
			s.jobs.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// RunJanitor expires finished jobs every 5 minutes until ctx is done.
func (s *SweepJobs) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Expire(s.now().Add(-jobTTL)); n > 0 {
				slog.Debug("expired sweep jobs", "count", n)
			}
		}
	}
}

// Wait blocks until running sweeps finish.
func (s *SweepJobs) Wait() {
	s.wg.Wait()
}
