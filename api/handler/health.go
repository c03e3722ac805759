package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// PoolReporter exposes browser pool utilisation.
type PoolReporter interface {
	Stats() models.PoolStats
}

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are
// active or the cache cannot be listed.
func Health(pool PoolReporter, store *cache.Store, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := pool.Stats()

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		routes, err := store.Routes()
		if err != nil {
			slog.Warn("health: cannot list cached routes", "error", err)
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: stats,
			Routes:    len(routes),
			Version:   Version,
		})
	}
}
