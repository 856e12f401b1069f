// Package series normalizes raw provider bars into ordered sequences of closed candles.
package series

import (
	"sort"
	"time"

	"nr_scanner/internal/feature/scan/domain/entity"
)

// AggregateDaily groups sub-day ticks by UTC calendar day and reduces every
// group to one candle: high is the max, low is the min, open comes from the
// earliest tick and close from the latest tick. On equal timestamps the later
// input wins for close and the earlier input wins for open. Volumes are summed.
// The day containing now is dropped, however many ticks it has.
// Re-aggregating a daily series returns it unchanged.
func AggregateDaily(ticks []entity.Candle, now time.Time) []entity.Candle {
	type bucket struct {
		c         entity.Candle
		firstTime time.Time
		lastTime  time.Time
	}

	today := entity.Daily.PeriodStart(now)
	buckets := make(map[time.Time]*bucket)

	for _, t := range ticks {
		day := entity.Daily.PeriodStart(t.Time)
		if !day.Before(today) {
			continue
		}
		b, ok := buckets[day]
		if !ok {
			buckets[day] = &bucket{
				c: entity.Candle{
					Time:   day,
					Open:   t.Open,
					High:   t.High,
					Low:    t.Low,
					Close:  t.Close,
					Volume: t.Volume,
				},
				firstTime: t.Time,
				lastTime:  t.Time,
			}
			continue
		}
		if t.High > b.c.High {
			b.c.High = t.High
		}
		if t.Low < b.c.Low {
			b.c.Low = t.Low
		}
		if t.Time.Before(b.firstTime) {
			b.c.Open = t.Open
			b.firstTime = t.Time
		}
		if !t.Time.Before(b.lastTime) {
			b.c.Close = t.Close
			b.lastTime = t.Time
		}
		b.c.Volume += t.Volume
	}

	out := make([]entity.Candle, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Normalize sorts candles ascending and removes duplicate timestamps.
// For duplicates the later input wins.
func Normalize(candles []entity.Candle) []entity.Candle {
	if len(candles) == 0 {
		return nil
	}
	byTime := make(map[int64]int, len(candles))
	out := make([]entity.Candle, 0, len(candles))
	for _, c := range candles {
		k := c.Time.UnixNano()
		if i, ok := byTime[k]; ok {
			out[i] = c
			continue
		}
		byTime[k] = len(out)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// DropUnclosed removes candles whose period has not ended at now.
func DropUnclosed(candles []entity.Candle, g entity.Granularity, now time.Time) []entity.Candle {
	out := candles[:0:0]
	for _, c := range candles {
		if g.IsClosed(c.Time, now) {
			out = append(out, c)
		}
	}
	return out
}

// Tail returns at most the last n candles.
func Tail(candles []entity.Candle, n int) []entity.Candle {
	if n <= 0 || len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
