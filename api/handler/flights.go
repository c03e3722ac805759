package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/flights"
	"github.com/use-agent/flightscrape/models"
)

// FlightData returns a handler for GET /api/v1/flight-data.
// It filters the cached rows of a route; nothing is fetched.
func FlightData(store *cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.FlightQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respondInvalid(c, err)
			return
		}

		rows, err := store.Query(q)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.FlightsResponse{
			Success: true,
			Route:   models.NewRoute(q.Origin, q.Dest).Key(),
			Count:   len(rows),
			Rows:    rows,
		})
	}
}

// FetchFlights returns a handler for POST /api/v1/flights/fetch.
func FetchFlights(svc *flights.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FetchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}

		res, err := svc.Fetch(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.FlightsResponse{
			Success:   true,
			Route:     req.Route().Key(),
			Count:     len(res.Rows),
			Rows:      res.Rows,
			Rejected:  res.Rejected,
			FromCache: res.FromCache,
		})
	}
}

// BatchFlights returns a handler for POST /api/v1/flights/batch.
// Per-date failures are part of a 200 response; only request-level errors
// produce an error status.
func BatchFlights(svc *flights.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchFetchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}

		res, err := svc.FetchBatch(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.FlightsResponse{
			Success:   true,
			Route:     models.NewRoute(req.Origin, req.Dest).Key(),
			Count:     len(res.Rows),
			Rows:      res.Rows,
			Failures:  res.Failures,
			FromCache: res.FromCache,
		})
	}
}
