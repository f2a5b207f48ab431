// Package config loads runtime configuration for the mandi-fetch CLI from
// the environment, with .env support.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/agritrack/agmarknet-client/pkg/client"
	"github.com/agritrack/agmarknet-client/pkg/logging"
)

// ErrMissingAPIKey is the hard precondition failure for a run: without the
// access credential, no request is ever attempted.
var ErrMissingAPIKey = errors.New("api key not set (MANDI_API_KEY or DATA_GOV_IN_API_KEY)")

// Config captures runtime configuration for a fetch run.
type Config struct {
	APIKey         string
	BaseURL        string
	PageSize       int
	MaxConcurrency int
	MinRequestGap  time.Duration
	LogLevel       logging.LogLevel
	LogPretty      bool
}

// FromEnv creates a configuration instance sourced from environment
// variables. A missing API key is not an error here; the CLI gets one
// chance to prompt for it before Validate rejects the run.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		APIKey:         apiKeyFromEnv(),
		BaseURL:        getEnv("MANDI_BASE_URL", client.DefaultBaseURL),
		PageSize:       client.DefaultPageSize,
		MaxConcurrency: 1,
		LogLevel:       logging.LogLevel(getEnv("MANDI_LOG_LEVEL", string(logging.LevelInfo))),
		LogPretty:      getEnv("MANDI_LOG_PRETTY", "") == "true",
	}

	if v := os.Getenv("MANDI_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("parse MANDI_PAGE_SIZE %q", v)
		}
		cfg.PageSize = n
	}

	if v := os.Getenv("MANDI_MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("parse MANDI_MAX_CONCURRENCY %q", v)
		}
		cfg.MaxConcurrency = n
	}

	if v := os.Getenv("MANDI_MIN_REQUEST_GAP_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return Config{}, fmt.Errorf("parse MANDI_MIN_REQUEST_GAP_MS %q", v)
		}
		cfg.MinRequestGap = time.Duration(ms) * time.Millisecond
	}

	return cfg, nil
}

// Validate enforces the credential precondition.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// apiKeyFromEnv checks the primary variable, then the name the original
// data.gov.in tooling used.
func apiKeyFromEnv() string {
	if key := os.Getenv("MANDI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("DATA_GOV_IN_API_KEY")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
