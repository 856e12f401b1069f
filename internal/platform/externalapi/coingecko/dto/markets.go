// Package dto holds CoinGecko response payloads.
package dto

// MarketResponse is one element of /coins/markets.
// Numeric fields are null for thinly tracked coins and decode to zero.
type MarketResponse struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	CurrentPrice  float64 `json:"current_price"`
	MarketCap     float64 `json:"market_cap"`
	MarketCapRank int     `json:"market_cap_rank"`
	TotalVolume   float64 `json:"total_volume"`
}

// CoinListItem is one element of /coins/list.
type CoinListItem struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// OHLCRow is one element of /coins/{id}/ohlc: [timestamp_ms, open, high, low, close].
type OHLCRow []float64
