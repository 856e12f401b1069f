// Package coingecko provides the CoinGecko market-cap ranking and OHLC adapter.
package coingecko

import (
	"os"
	"strings"
	"time"
)

// Config holds configuration for the CoinGecko API client.
type Config struct {
	APIKey      string        `yaml:"-"`            // demo API key, sent as x_cg_demo_api_key
	BaseURL     string        `yaml:"base_url"`     // e.g. "https://api.coingecko.com/api/v3"
	VsCurrency  string        `yaml:"vs_currency"`  // quote currency for ranking and OHLC
	DaysFetch   int           `yaml:"days_fetch"`   // OHLC lookback in days
	MinInterval time.Duration `yaml:"min_interval"` // minimum spacing between calls
	Backoff     time.Duration `yaml:"backoff"`      // retry sleep = Backoff * attempt
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"` // HTTP request timeout
}

// DefaultConfig returns the public demo API settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.coingecko.com/api/v3",
		VsCurrency:  "usd",
		DaysFetch:   30,
		MinInterval: time.Second,
		Backoff:     2 * time.Second,
		MaxRetries:  8,
		Timeout:     30 * time.Second,
	}
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("COINGECKO_DEMO_API_KEY")); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		c.BaseURL = v
	}
}
