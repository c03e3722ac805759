package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/api/handler"
	"github.com/use-agent/flightscrape/api/middleware"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/flights"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint stays outside auth so monitoring probes always work.
func NewRouter(pool handler.PoolReporter, svc *flights.Service, store *cache.Store, jobs *handler.SweepJobs, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(pool, store, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit, nil))

	// Cached rows only.
	protected.GET("/flight-data", handler.FlightData(store))

	protected.POST("/flights/fetch", handler.FetchFlights(svc))
	protected.POST("/flights/batch", handler.BatchFlights(svc))

	// Sweep
	protected.POST("/flights/sweep", jobs.Post())
	protected.GET("/flights/sweep/:id", jobs.Get())

	return r
}
