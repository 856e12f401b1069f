// Package entity defines the domain models for the scan feature.
package entity

import "time"

// Candle represents one fully closed OHLCV bar.
type Candle struct {
	Time   time.Time // UTC start of the period
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Range returns High-Low, clamped at zero.
func (c Candle) Range() float64 {
	if r := c.High - c.Low; r > 0 {
		return r
	}
	return 0
}

// CandleSeries is an ordered sequence of closed candles for one
// (provider, instrument, granularity) triple.
type CandleSeries struct {
	Provider    string
	Instrument  string
	Granularity Granularity
	Candles     []Candle
}

// Len returns the number of candles.
func (s CandleSeries) Len() int { return len(s.Candles) }

// Last returns the most recent candle.
func (s CandleSeries) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}
