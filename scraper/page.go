package scraper

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/flightscrape/models"
	"github.com/ysmood/gson"
)

// pollInterval is how often the results container is re-read while the
// page is still rendering.
const pollInterval = 250 * time.Millisecond

// FetchLines renders url in a pooled page and returns the text lines of the
// results container once more than MinLines are present. The whole operation
// is bounded by SingleTimeout.
func (s *Scraper) FetchLines(ctx context.Context, url string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.scraperCfg.SingleTimeout)
	defer cancel()

	page, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer s.release(page)

	return s.render(ctx, page, url)
}

// FetchBatch renders each url in turn on a single page, each bounded by
// BatchTimeout. A url that fails or times out gets a PageResult with Err set
// and the batch moves on. The returned slice is index-aligned with urls.
//
// The page is replaced once its health score says it is worn out.
func (s *Scraper) FetchBatch(ctx context.Context, urls []string) []models.PageResult {
	results := make([]models.PageResult, len(urls))
	for i, u := range urls {
		results[i].URL = u
	}

	var (
		page   *rod.Page
		health pageHealth
	)
	defer func() {
		if page != nil {
			s.release(page)
		}
	}()

	for i, u := range urls {
		if ctx.Err() != nil {
			results[i].Err = categorizeError(ctx.Err(), "batch canceled")
			continue
		}

		if page == nil {
			p, err := s.acquire()
			if err != nil {
				results[i].Err = err
				continue
			}
			page, health = p, newPageHealth(time.Now())
		}

		pageCtx, cancel := context.WithTimeout(ctx, s.scraperCfg.BatchTimeout)
		lines, err := s.render(pageCtx, page, u)
		cancel()

		health.record(err == nil)
		if health.shouldRetire(time.Now()) {
			slog.Info("retiring batch page", "uses", health.uses, "errScore", health.errScore)
			s.retire(page)
			page = nil
		}

		if err != nil {
			slog.Warn("batch page failed", "url", u, "error", err)
			results[i].Err = err
			continue
		}
		results[i].Lines = lines
	}
	return results
}

// acquire borrows a tab from the pool, creating one if the pool slot is empty.
func (s *Scraper) acquire() (*rod.Page, error) {
	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		// Get consumed the slot; give it back empty.
		s.pagePool.Put(nil)
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			err,
		)
	}
	s.activePages.Add(1)
	return page, nil
}

// release blanks the page and hands it back to the pool. It uses the page
// without request context so cleanup succeeds after the deadline has passed.
func (s *Scraper) release(page *rod.Page) {
	if navErr := page.Navigate("about:blank"); navErr != nil {
		slog.Warn("cleanup: failed to navigate to about:blank",
			"error", navErr,
		)
	}
	s.pagePool.Put(page)
	s.activePages.Add(-1)
}

// retire closes the page and frees its pool slot for a fresh one.
func (s *Scraper) retire(page *rod.Page) {
	if err := page.Close(); err != nil {
		slog.Warn("failed to close retired page", "error", err)
	}
	s.pagePool.Put(nil)
	s.activePages.Add(-1)
}

// render navigates page to url and waits for the results text.
//
// Stealth and hijack must be installed before Navigate, they only take
// effect for navigations that happen afterwards.
func (s *Scraper) render(ctx context.Context, page *rod.Page, url string) ([]string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, categorizeError(err, "navigation throttled past deadline")
		}
	}

	if s.scraperCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	if s.scraperCfg.Language != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{
				"Accept-Language": s.scraperCfg.Language,
			}),
		}.Call(page)
	}

	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes)
	defer func() { _ = router.Stop() }()

	p := page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return nil, categorizeError(err, "navigation to results page failed")
	}

	el, err := p.Element(s.scraperCfg.ResultsSelector)
	if err != nil {
		return nil, categorizeError(err, "results container never appeared")
	}

	lines, err := pollLines(ctx, pollInterval, s.scraperCfg.MinLines, el.Text)
	if err != nil {
		return nil, categorizeError(err, "results did not render in time")
	}

	slog.Debug("page rendered", "url", url, "lines", len(lines))
	return lines, nil
}

// pollLines calls text until it yields more than minLines lines or ctx ends.
func pollLines(ctx context.Context, interval time.Duration, minLines int, text func() (string, error)) ([]string, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		raw, err := text()
		if err != nil {
			return nil, err
		}
		if lines := splitLines(raw); len(lines) > minLines {
			return lines, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// splitLines splits rendered text on newlines.
func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
