package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Cache     CacheConfig
	Flights   FlightsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// DefaultProxy is the proxy URL for all navigations.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls how result pages are rendered and read.
type ScraperConfig struct {
	// SingleTimeout bounds the render of a single-request fetch.
	SingleTimeout time.Duration // default: 10s

	// BatchTimeout bounds the render of each page in a batch fetch.
	BatchTimeout time.Duration // default: 30s

	// MinLines is the number of text lines the results container must
	// reach before the page counts as rendered.
	MinLines int // default: 100

	// ResultsSelector locates the element whose text holds the results.
	ResultsSelector string // default: "body#yDmH0d"

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// Language is sent as Accept-Language so the page renders the
	// English labels the parser keys on.
	Language string // default: "en-US"

	// NavigationsPerSecond throttles page navigations. 0 disables.
	NavigationsPerSecond float64 // default: 0.5

	// Stealth injects anti-automation-detection evasions.
	Stealth bool // default: true
}

// CacheConfig selects the route cache backend.
type CacheConfig struct {
	// Backend is "json" (one file per route) or "sqlite".
	Backend string // default: "json"

	// Dir is the directory of the json backend.
	Dir string // default: "./cached"

	// DSN is the sqlite data source name.
	DSN string // default: "file:flights.db"
}

// FlightsConfig controls URL construction.
type FlightsConfig struct {
	// URLTemplate is a text/template with .Origin, .Dest, .LeaveDate
	// and .ReturnDate. Empty selects the built-in Google Flights query.
	URLTemplate string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// WebhookConfig controls sweep completion notifications.
type WebhookConfig struct {
	// URL receives a POST when a sweep job finishes. Empty disables.
	URL string

	// Secret signs the payload with HMAC-SHA256 when set.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("FLIGHTSCRAPE_HOST", "0.0.0.0"),
			Port: envIntOr("FLIGHTSCRAPE_PORT", 8080),
			Mode: envOr("FLIGHTSCRAPE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("FLIGHTSCRAPE_HEADLESS", true),
			MaxPages:     envIntOr("FLIGHTSCRAPE_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("FLIGHTSCRAPE_PROXY"),
			NoSandbox:    envBoolOr("FLIGHTSCRAPE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("FLIGHTSCRAPE_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			SingleTimeout:   envDurationOr("FLIGHTSCRAPE_SINGLE_TIMEOUT", 10*time.Second),
			BatchTimeout:    envDurationOr("FLIGHTSCRAPE_BATCH_TIMEOUT", 30*time.Second),
			MinLines:        envIntOr("FLIGHTSCRAPE_MIN_LINES", 100),
			ResultsSelector: envOr("FLIGHTSCRAPE_RESULTS_SELECTOR", "body#yDmH0d"),
			BlockedResourceTypes: envSliceOr("FLIGHTSCRAPE_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			Language:             envOr("FLIGHTSCRAPE_LANGUAGE", "en-US"),
			NavigationsPerSecond: envFloatOr("FLIGHTSCRAPE_NAV_RPS", 0.5),
			Stealth:              envBoolOr("FLIGHTSCRAPE_STEALTH", true),
		},
		Cache: CacheConfig{
			Backend: envOr("FLIGHTSCRAPE_CACHE_BACKEND", "json"),
			Dir:     envOr("FLIGHTSCRAPE_CACHE_DIR", "./cached"),
			DSN:     envOr("FLIGHTSCRAPE_CACHE_DSN", "file:flights.db"),
		},
		Flights: FlightsConfig{
			URLTemplate: os.Getenv("FLIGHTSCRAPE_URL_TEMPLATE"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("FLIGHTSCRAPE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("FLIGHTSCRAPE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("FLIGHTSCRAPE_RATE_RPS", 2.0),
			Burst:             envIntOr("FLIGHTSCRAPE_RATE_BURST", 5),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("FLIGHTSCRAPE_WEBHOOK_URL"),
			Secret: os.Getenv("FLIGHTSCRAPE_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("FLIGHTSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("FLIGHTSCRAPE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
