package entity

import (
	"fmt"
	"strings"
	"time"

	"nr_scanner/internal/feature/scan/domain"
)

// Granularity is the candle period.
type Granularity string

const (
	FourHour Granularity = "4h"
	Daily    Granularity = "1d"
	Weekly   Granularity = "1w"
)

// ParseGranularity accepts "1d", "4h", "1w" in any case.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case FourHour, Daily, Weekly:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedGranularity, s)
}

// Duration returns the length of one period.
func (g Granularity) Duration() time.Duration {
	switch g {
	case FourHour:
		return 4 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// PeriodStart returns the UTC start of the period containing t.
// Weekly periods start on Monday 00:00 UTC, matching exchange kline alignment.
func (g Granularity) PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case FourHour:
		return day.Add(time.Duration(t.Hour()/4) * 4 * time.Hour)
	case Weekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return day
	}
}

// PeriodEnd returns the exclusive end of the period starting at start.
func (g Granularity) PeriodEnd(start time.Time) time.Time {
	if g == Weekly {
		return start.AddDate(0, 0, 7)
	}
	return start.Add(g.Duration())
}

// IsClosed reports whether the period starting at start has fully elapsed at now.
func (g Granularity) IsClosed(start, now time.Time) bool {
	return !g.PeriodEnd(start).After(now)
}

func (g Granularity) String() string { return string(g) }
