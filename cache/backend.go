package cache

import (
	"errors"

	"github.com/use-agent/flightscrape/models"
)

// ErrNotFound is returned when a route has never been cached.
var ErrNotFound = errors.New("cache: route not found")

// Backend is the durable storage behind a Store. Implementations only move
// bytes; merge and freshness rules live in Store.
//
// Load returns ErrNotFound for an unknown route and a CACHE_CORRUPT
// ScrapeError when persisted data cannot be decoded.
type Backend interface {
	Load(route models.Route) ([]models.FlightObservation, error)
	Save(route models.Route, rows []models.FlightObservation) error
	Delete(route models.Route) error
	List() ([]models.Route, error)
	Close() error
}

func corrupt(route models.Route, err error) error {
	return models.NewScrapeError(models.ErrCodeCacheCorrupt, "cached data for "+route.Key()+" cannot be decoded", err)
}

func ioError(msg string, err error) error {
	return models.NewScrapeError(models.ErrCodeCacheIO, msg, err)
}
