package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/models"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := map[string]int{
		models.ErrCodeTimeout:        http.StatusGatewayTimeout,
		models.ErrCodeNavigation:     http.StatusBadGateway,
		models.ErrCodeBrowserCrash:   http.StatusServiceUnavailable,
		models.ErrCodeInvalidInput:   http.StatusBadRequest,
		models.ErrCodeNotFound:       http.StatusNotFound,
		models.ErrCodeCacheCorrupt:   http.StatusConflict,
		models.ErrCodeCacheIO:        http.StatusInternalServerError,
		models.ErrCodeMalformedBlock: http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, mapErrorToStatus(models.NewScrapeError(code, "x", nil)), code)
	}
}

func TestRespondError_WrapsPlainErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, fmt.Errorf("load: %w", cache.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondError(c, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"INTERNAL_ERROR"`)
}
