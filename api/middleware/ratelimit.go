package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/models"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiters is a per-identity token bucket registry.
type limiters struct {
	mu      sync.Mutex
	cfg     config.RateLimitConfig
	entries map[string]*limiterEntry
}

func (l *limiters) get(identity string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[identity]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst),
		}
		l.entries[identity] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// evict drops identities not seen since cutoff.
func (l *limiters) evict(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, entry := range l.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(l.entries, id)
		}
	}
}

// RateLimit returns per-identity (API key or IP) token-bucket rate limiting
// middleware powered by golang.org/x/time/rate.
//
// Entries unused for 1 hour are evicted every 5 minutes until stop is
// closed. A nil stop keeps the janitor running for the process lifetime.
func RateLimit(cfg config.RateLimitConfig, stop <-chan struct{}) gin.HandlerFunc {
	l := &limiters{cfg: cfg, entries: make(map[string]*limiterEntry)}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				l.evict(now.Add(-1 * time.Hour))
			}
		}
	}()

	return func(c *gin.Context) {
		// Prefer the API key set by Auth; fall back to IP.
		identity := c.GetString(APIKeyContextKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		now := time.Now()
		res := l.get(identity, now).ReserveN(now, 1)
		if !res.OK() {
			abortRateLimited(c, time.Second)
			return
		}
		if delay := res.DelayFrom(now); delay > 0 {
			res.CancelAt(now)
			abortRateLimited(c, delay)
			return
		}

		c.Next()
	}
}

func abortRateLimited(c *gin.Context, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeRateLimited,
			Message: "rate limit exceeded, please slow down",
		},
	})
}
