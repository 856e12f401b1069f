// Package okx provides the OKX USDT-margined perpetual swap adapter.
package okx

import "time"

// Config holds configuration for the OKX public REST API.
type Config struct {
	BaseURL     string        `yaml:"base_url"` // e.g. "https://www.okx.com"
	MinInterval time.Duration `yaml:"min_interval"`
	Backoff     time.Duration `yaml:"backoff"`
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the public endpoint settings.
// Market data endpoints allow 40 requests per 2 seconds.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://www.okx.com",
		MinInterval: 100 * time.Millisecond,
		Backoff:     time.Second,
		MaxRetries:  3,
		Timeout:     30 * time.Second,
	}
}
