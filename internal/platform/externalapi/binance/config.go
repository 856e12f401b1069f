// Package binance provides adapters for Binance-compatible spot and USDⓈ-M futures APIs.
// The futures adapter also serves other exchanges exposing the same /fapi/v1 surface.
package binance

import "time"

// Market selects the API surface.
type Market string

const (
	Spot    Market = "spot"
	Futures Market = "futures"
)

// Config holds configuration for one Binance-compatible endpoint.
type Config struct {
	Name        string        `yaml:"name"`     // provider identifier, e.g. "binance" or "aster"
	Market      Market        `yaml:"market"`   // spot or futures
	BaseURL     string        `yaml:"base_url"` // e.g. "https://api.binance.com"
	MinInterval time.Duration `yaml:"min_interval"`
	Backoff     time.Duration `yaml:"backoff"`
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DefaultSpotConfig returns the Binance spot settings.
func DefaultSpotConfig() Config {
	return Config{
		Name:        "binance",
		Market:      Spot,
		BaseURL:     "https://api.binance.com",
		MinInterval: 100 * time.Millisecond,
		Backoff:     time.Second,
		MaxRetries:  3,
		Timeout:     30 * time.Second,
	}
}

// DefaultFuturesConfig returns the Binance USDⓈ-M futures settings.
func DefaultFuturesConfig() Config {
	return Config{
		Name:        "binance-futures",
		Market:      Futures,
		BaseURL:     "https://fapi.binance.com",
		MinInterval: 100 * time.Millisecond,
		Backoff:     time.Second,
		MaxRetries:  3,
		Timeout:     30 * time.Second,
	}
}

// DefaultAsterConfig returns the Aster perpetual futures settings.
func DefaultAsterConfig() Config {
	return Config{
		Name:        "aster",
		Market:      Futures,
		BaseURL:     "https://fapi.asterdex.com",
		MinInterval: 200 * time.Millisecond,
		Backoff:     time.Second,
		MaxRetries:  3,
		Timeout:     30 * time.Second,
	}
}

func (c Config) apiPrefix() string {
	if c.Market == Futures {
		return "/fapi/v1"
	}
	return "/api/v3"
}
