package cache

import (
	"fmt"

	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/models"
)

// Open builds a Store over the backend named in cfg.
func Open(cfg config.CacheConfig, opts ...Option) (*Store, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Backend {
	case "", "json":
		b, err = NewFileBackend(cfg.Dir)
	case "sqlite":
		b, err = OpenSQLite(cfg.DSN)
	default:
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown cache backend %q", cfg.Backend), nil)
	}
	if err != nil {
		return nil, err
	}
	return NewStore(b, opts...), nil
}
