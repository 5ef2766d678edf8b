// Package config loads runtime settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const AppName = "movie-booking-cli"

const (
	defaultBaseURL          = "http://localhost:8000"
	defaultSeatPrice        = "190"
	defaultHTTPTimeout      = 12 * time.Second
	defaultMaxAttempts      = 3
	defaultRetryBase        = 200 * time.Millisecond
	defaultRetryCap         = 1200 * time.Millisecond
	defaultMovieCacheTTL    = 10 * time.Minute
	defaultShowtimeCacheTTL = 2 * time.Minute
	defaultDraftTTL         = 15 * time.Minute
	defaultLogLevel         = "info"
)

type Config struct {
	BaseURL          string
	SeatPrice        decimal.Decimal
	MaxSeats         int // 0 means no limit
	HTTPTimeout      time.Duration
	MaxAttempts      int // applies to GET requests only
	RetryBase        time.Duration
	RetryCap         time.Duration
	MovieCacheTTL    time.Duration
	ShowtimeCacheTTL time.Duration
	DraftTTL         time.Duration
	LogLevel         string
	LogFile          string

	// Warnings lists values that could not be parsed and fell back to defaults.
	Warnings []string
}

// Load reads .env (if any) and the MOVIEBOOK_* variables.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() Config {
	var cfg Config
	cfg.BaseURL = strings.TrimRight(getenv("MOVIEBOOK_BASE_URL", defaultBaseURL), "/")
	cfg.SeatPrice = cfg.decimalEnv("MOVIEBOOK_SEAT_PRICE", defaultSeatPrice)
	cfg.MaxSeats = cfg.intEnv("MOVIEBOOK_MAX_SEATS", 0)
	cfg.HTTPTimeout = cfg.durationEnv("MOVIEBOOK_HTTP_TIMEOUT", defaultHTTPTimeout)
	cfg.MaxAttempts = cfg.intEnv("MOVIEBOOK_MAX_ATTEMPTS", defaultMaxAttempts)
	cfg.RetryBase = cfg.durationEnv("MOVIEBOOK_RETRY_BASE", defaultRetryBase)
	cfg.RetryCap = cfg.durationEnv("MOVIEBOOK_RETRY_CAP", defaultRetryCap)
	cfg.MovieCacheTTL = cfg.durationEnv("MOVIEBOOK_MOVIE_CACHE_TTL", defaultMovieCacheTTL)
	cfg.ShowtimeCacheTTL = cfg.durationEnv("MOVIEBOOK_SHOWTIME_CACHE_TTL", defaultShowtimeCacheTTL)
	cfg.DraftTTL = cfg.durationEnv("MOVIEBOOK_DRAFT_TTL", defaultDraftTTL)
	cfg.LogLevel = strings.ToLower(getenv("MOVIEBOOK_LOG_LEVEL", defaultLogLevel))
	cfg.LogFile = getenv("MOVIEBOOK_LOG_FILE", "")
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile()
	}

	if cfg.SeatPrice.IsNegative() {
		cfg.warn("MOVIEBOOK_SEAT_PRICE", cfg.SeatPrice.String())
		cfg.SeatPrice = decimal.RequireFromString(defaultSeatPrice)
	}
	if cfg.MaxSeats < 0 {
		cfg.warn("MOVIEBOOK_MAX_SEATS", strconv.Itoa(cfg.MaxSeats))
		cfg.MaxSeats = 0
	}
	if cfg.MaxAttempts < 1 {
		cfg.warn("MOVIEBOOK_MAX_ATTEMPTS", strconv.Itoa(cfg.MaxAttempts))
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return cfg
}

// Dir returns the per-user directory for this app under base, which is
// normally os.UserConfigDir or os.UserCacheDir.
func Dir(base func() (string, error)) (string, error) {
	dir, err := base()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

func defaultLogFile() string {
	dir, err := Dir(os.UserCacheDir)
	if err != nil {
		return filepath.Join(os.TempDir(), AppName+".log")
	}
	return filepath.Join(dir, "app.log")
}

func (c *Config) warn(key, value string) {
	c.Warnings = append(c.Warnings, fmt.Sprintf("invalid %s %q, using default", key, value))
}

func (c *Config) intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		c.warn(key, v)
		return def
	}
	return n
}

func (c *Config) durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d < 0 {
		c.warn(key, v)
		return def
	}
	return d
}

func (c *Config) decimalEnv(key string, def string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return decimal.RequireFromString(def)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		c.warn(key, v)
		return decimal.RequireFromString(def)
	}
	return d
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
