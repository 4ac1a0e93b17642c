package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, sourced from the environment with
// defaults suitable for local development.
type Config struct {
	Port           string
	AllowedOrigins []string

	ScreenshotDir string
	DatabasePath  string
	CacheFile     string
	CacheTTL      time.Duration

	RefreshInterval time.Duration
	ScrapeOnStart   bool

	NavTimeout     time.Duration
	ConsentTimeout time.Duration
	ListingWait    time.Duration
	ElementDelay   time.Duration
	Headless       bool
	ChromeBin      string
	SynthSeed      int64

	LogLevel string

	AdminKeyHash   string
	RateLimitRPS   float64
	RateLimitBurst int
	RefreshMinGap  time.Duration
}

// Load reads an optional .env file and assembles the Config from the
// environment.
func Load() *Config {
	// Missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	return &Config{
		Port:           envOr("PORT", "8080"),
		AllowedOrigins: envSliceOr("ALLOWED_ORIGINS", []string{"*"}),

		ScreenshotDir: envOr("SCREENSHOT_DIR", "static/screenshots"),
		DatabasePath:  envOr("DATABASE_PATH", "data/rentals.db"),
		CacheFile:     envOr("CACHE_FILE", "data/listings_cache.json"),
		CacheTTL:      envDurationOr("CACHE_TTL", 6*time.Hour),

		RefreshInterval: envDurationOr("REFRESH_INTERVAL", 6*time.Hour),
		ScrapeOnStart:   envBoolOr("SCRAPE_ON_START", true),

		NavTimeout:     envDurationOr("NAV_TIMEOUT", 30*time.Second),
		ConsentTimeout: envDurationOr("CONSENT_TIMEOUT", 3*time.Second),
		ListingWait:    envDurationOr("LISTING_WAIT", 10*time.Second),
		ElementDelay:   envDurationOr("ELEMENT_DELAY", 500*time.Millisecond),
		Headless:       envBoolOr("HEADLESS", true),
		ChromeBin:      envOr("CHROME_BIN", ""),
		SynthSeed:      envInt64Or("SYNTH_SEED", 0),

		LogLevel: envOr("LOG_LEVEL", "info"),

		AdminKeyHash:   envOr("ADMIN_KEY_HASH", ""),
		RateLimitRPS:   envFloatOr("RATE_LIMIT_RPS", 5),
		RateLimitBurst: envIntOr("RATE_LIMIT_BURST", 10),
		RefreshMinGap:  envDurationOr("REFRESH_MIN_GAP", 10*time.Minute),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64Or(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envSliceOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
