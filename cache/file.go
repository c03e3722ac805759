package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/use-agent/flightscrape/models"
)

const fileVersion = 1

// fileEnvelope is the on-disk JSON layout of one route.
type fileEnvelope struct {
	Version int                        `json:"version"`
	Route   string                     `json:"route"`
	Rows    []models.FlightObservation `json:"rows"`
}

// FileBackend stores one JSON file per route, named after the alphabetically
// ordered airport pair ("JFK-LAX.json").
type FileBackend struct {
	dir string
}

// NewFileBackend creates the cache directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ioError("failed to create cache directory", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Filename returns the file name used for a route.
func Filename(route models.Route) string {
	return route.Key() + ".json"
}

func (b *FileBackend) path(route models.Route) string {
	return filepath.Join(b.dir, Filename(route))
}

func (b *FileBackend) Load(route models.Route) ([]models.FlightObservation, error) {
	data, err := os.ReadFile(b.path(route))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, ioError("failed to read cache file", err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, corrupt(route, err)
	}
	if env.Version != fileVersion {
		return nil, corrupt(route, fmt.Errorf("unsupported cache file version %d", env.Version))
	}
	return env.Rows, nil
}

// Save replaces the route file. The new content is written to a temporary
// file in the same directory and renamed over the old one, so readers never
// observe a half-written file.
func (b *FileBackend) Save(route models.Route, rows []models.FlightObservation) error {
	data, err := json.Marshal(fileEnvelope{Version: fileVersion, Route: route.Key(), Rows: rows})
	if err != nil {
		return ioError("failed to encode cache entry", err)
	}

	tmp, err := os.CreateTemp(b.dir, "."+route.Key()+"-*.tmp")
	if err != nil {
		return ioError("failed to create temporary cache file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ioError("failed to write cache file", err)
	}
	if err := tmp.Close(); err != nil {
		return ioError("failed to write cache file", err)
	}
	if err := os.Rename(tmp.Name(), b.path(route)); err != nil {
		return ioError("failed to replace cache file", err)
	}
	return nil
}

func (b *FileBackend) Delete(route models.Route) error {
	if err := os.Remove(b.path(route)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioError("failed to delete cache file", err)
	}
	return nil
}

func (b *FileBackend) List() ([]models.Route, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, ioError("failed to list cache directory", err)
	}

	var routes []models.Route
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		route, err := models.ParseRouteKey(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Key() < routes[j].Key() })
	return routes, nil
}

func (b *FileBackend) Close() error { return nil }
