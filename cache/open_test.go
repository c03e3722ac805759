package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/models"
)

func TestOpen(t *testing.T) {
	s, err := Open(config.CacheConfig{Backend: "json", Dir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(config.CacheConfig{Backend: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(config.CacheConfig{Backend: "redis"})
	assert.True(t, models.IsCode(err, models.ErrCodeInvalidInput))
}
