package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Scraper.SingleTimeout)
	assert.Equal(t, 30*time.Second, cfg.Scraper.BatchTimeout)
	assert.Equal(t, 100, cfg.Scraper.MinLines)
	assert.Equal(t, "body#yDmH0d", cfg.Scraper.ResultsSelector)
	assert.Equal(t, "json", cfg.Cache.Backend)
	assert.False(t, cfg.Auth.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FLIGHTSCRAPE_PORT", "9090")
	t.Setenv("FLIGHTSCRAPE_BATCH_TIMEOUT", "45s")
	t.Setenv("FLIGHTSCRAPE_API_KEYS", "a, b,,c")
	t.Setenv("FLIGHTSCRAPE_CACHE_BACKEND", "sqlite")
	t.Setenv("FLIGHTSCRAPE_HEADLESS", "not-a-bool")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Scraper.BatchTimeout)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.True(t, cfg.Browser.Headless, "unparsable values fall back to the default")
}
