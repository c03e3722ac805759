package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/flightscrape/api"
	"github.com/use-agent/flightscrape/api/handler"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/flights"
	"github.com/use-agent/flightscrape/scraper"
	"github.com/use-agent/flightscrape/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	config.InitLogger(cfg.Log, os.Stdout)
	slog.Info("flightscrape starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
		"cache", cfg.Cache.Backend,
	)

	// ── 3. Open the route cache ─────────────────────────────────────
	store, err := cache.Open(cfg.Cache)
	if err != nil {
		slog.Error("failed to open cache", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// ── 4. Initialise scraper (launches browser) ────────────────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	urls, err := flights.NewURLBuilder(cfg.Flights.URLTemplate)
	if err != nil {
		slog.Error("invalid url template", "error", err)
		os.Exit(1)
	}
	svc := flights.NewService(sc, store, urls)

	// ── 5. Sweep jobs and webhook ───────────────────────────────────
	notifier := webhook.New(cfg.Webhook.URL, cfg.Webhook.Secret)
	jobs := handler.NewSweepJobs(svc, notifier)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go jobs.RunJanitor(janitorCtx)

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(sc, svc, store, jobs, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Running sweeps hold pages; let them finish before the browser goes.
	jobs.Wait()
	notifier.Wait()

	slog.Info("flightscrape stopped")
}
