package scraper

import (
	"math"
	"time"
)

// Retirement thresholds for a page reused across a batch.
const (
	maxErrScore = 3.0
	maxUses     = 50
	maxPageAge  = 50 * time.Minute
)

// pageHealth scores a page over consecutive renders. Failures add 1,
// successes take 0.5 off (never below 0).
type pageHealth struct {
	errScore float64
	uses     int
	created  time.Time
}

func newPageHealth(now time.Time) pageHealth {
	return pageHealth{created: now}
}

func (h *pageHealth) record(ok bool) {
	h.uses++
	if ok {
		h.errScore = math.Max(0, h.errScore-0.5)
		return
	}
	h.errScore++
}

// shouldRetire reports whether the page should be closed and replaced.
func (h *pageHealth) shouldRetire(now time.Time) bool {
	return h.errScore >= maxErrScore ||
		h.uses >= maxUses ||
		now.Sub(h.created) >= maxPageAge
}
