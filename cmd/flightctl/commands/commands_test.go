package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

const savedPage = `<html><body id="yDmH0d">
<div>Sort by:</div>
<div>10:00 AM</div><div>12:00 PM</div><div>Delta</div><div>2 hr</div><div>JFK–LAX</div>
<div>Nonstop</div><div>150 kg</div><div>Avg emissions</div><div>$250</div><div>Round trip</div>
<div>1:00 PM</div><div>3:00 PM</div>
<div>42 more flights</div>
</body></html>`

func TestParseCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(savedPage), 0o644))

	out, err := run(t, "parse", "--html", path, "--leave", "2023-05-15", "--return", "2023-06-15", "--json")
	require.NoError(t, err)

	var rows []models.FlightObservation
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "JFK", rows[0].Origin)
	assert.Equal(t, "2023-05-15", rows[0].LeaveDate)
	assert.Equal(t, 250.0, rows[0].Price)
}

func TestCacheCommands(t *testing.T) {
	dir := t.TempDir()
	b, err := cache.NewFileBackend(dir)
	require.NoError(t, err)

	row := models.FlightObservation{
		LeaveDate: "2023-05-15", ReturnDate: "2023-06-15",
		DepartTime: "10:00 AM", ArrivalTime: "12:00 PM",
		Origin: "JFK", Destination: "LAX", AccessDate: "2023-05-01",
	}
	require.NoError(t, b.Save(models.NewRoute("JFK", "LAX"), []models.FlightObservation{row, row}))

	out, err := run(t, "routes", "--cache-backend", "json", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "JFK-LAX\n", out)

	out, err = run(t, "clean-cache", "--cache-backend", "json", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "removed 1 duplicate rows\n", out)

	out, err = run(t, "query", "LAX", "JFK", "--access-date", "2023-05-01", "--cache-backend", "json", "--cache-dir", dir, "--json")
	require.NoError(t, err)
	var rows []models.FlightObservation
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 1)

	_, err = run(t, "rebuild", "JFK", "LAX", "--cache-backend", "json", "--cache-dir", dir)
	require.NoError(t, err)
	out, err = run(t, "routes", "--cache-backend", "json", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCleanCache_RejectsSingleArg(t *testing.T) {
	_, err := run(t, "clean-cache", "JFK", "--cache-dir", t.TempDir())
	assert.Error(t, err)
}
