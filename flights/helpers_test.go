package flights

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/models"
)

func mustURLs(t *testing.T) *URLBuilder {
	t.Helper()
	u, err := NewURLBuilder("")
	require.NoError(t, err)
	return u
}

func writeFile(dir string, route models.Route, body string) error {
	return os.WriteFile(filepath.Join(dir, cache.Filename(route)), []byte(body), 0o644)
}
