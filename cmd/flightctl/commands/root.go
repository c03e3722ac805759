package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/flights"
	"github.com/use-agent/flightscrape/scraper"
)

var (
	cfg        *config.Config
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "flightctl",
	Short:         "flightctl scrapes Google Flights results and manages the route cache.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.InitLogger(cfg.Log, os.Stderr)
	},
}

func init() {
	cfg = config.Load()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.Cache.Backend, "cache-backend", cfg.Cache.Backend, "Cache backend: json or sqlite.")
	flags.StringVar(&cfg.Cache.Dir, "cache-dir", cfg.Cache.Dir, "Directory of the json cache backend.")
	flags.StringVar(&cfg.Cache.DSN, "cache-dsn", cfg.Cache.DSN, "Data source name of the sqlite cache backend.")
	flags.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level: debug, info, warn or error.")
	flags.BoolVar(&jsonOutput, "json", false, "Print rows as JSON instead of a table.")
	flags.BoolVar(&cfg.Browser.Headless, "headless", cfg.Browser.Headless, "Run the browser headless.")
}

// ExecuteContext runs the command tree and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session is a browser-backed service for the commands that fetch.
type session struct {
	svc   *flights.Service
	store *cache.Store
	sc    *scraper.Scraper
}

func (s *session) Close() {
	s.sc.Close()
	_ = s.store.Close()
}

func openSession() (*session, error) {
	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, err
	}
	urls, err := flights.NewURLBuilder(cfg.Flights.URLTemplate)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &session{svc: flights.NewService(sc, store, urls), store: store, sc: sc}, nil
}
