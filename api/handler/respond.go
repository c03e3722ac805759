package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/models"
)

// respondError writes the ErrorResponse for err with the status its code maps to.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, cache.ErrNotFound) {
		err = models.NewScrapeError(models.ErrCodeNotFound, "route has no cached flights", err)
	}
	scrapeErr := models.AsScrapeError(err)

	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
	})
}

// respondInvalid reports a request that failed binding.
func respondInvalid(c *gin.Context, err error) {
	respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid request: "+err.Error(), err))
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeCacheCorrupt:
		return http.StatusConflict // 409
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
