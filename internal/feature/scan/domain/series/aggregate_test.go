package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nr_scanner/internal/feature/scan/domain/entity"
)

func at(day, hour int) time.Time {
	return time.Date(2025, 1, day, hour, 0, 0, 0, time.UTC)
}

func tick(ts time.Time, o, h, l, c float64) entity.Candle {
	return entity.Candle{Time: ts, Open: o, High: h, Low: l, Close: c}
}

func TestAggregateDaily_GroupsByUTCDay(t *testing.T) {
	t.Parallel()

	now := at(12, 9)
	ticks := []entity.Candle{
		tick(at(10, 4), 100, 105, 98, 104),
		tick(at(10, 0), 99, 101, 97, 100), // earlier, arrives out of order
		tick(at(10, 20), 104, 110, 103, 108),
		tick(at(11, 0), 108, 109, 90, 95),
		tick(at(11, 12), 95, 120, 94, 115),
		tick(at(12, 4), 115, 130, 114, 129), // today: dropped
	}

	got := AggregateDaily(ticks, now)

	require.Len(t, got, 2)
	assert.Equal(t, entity.Candle{Time: at(10, 0), Open: 99, High: 110, Low: 97, Close: 108}, got[0])
	assert.Equal(t, entity.Candle{Time: at(11, 0), Open: 108, High: 120, Low: 90, Close: 115}, got[1])
}

func TestAggregateDaily_DropsCurrentDayRegardlessOfTickCount(t *testing.T) {
	t.Parallel()

	now := at(12, 23)
	var ticks []entity.Candle
	for h := 0; h < 24; h++ {
		ticks = append(ticks, tick(at(12, h), 1, 2, 0.5, 1.5))
	}

	assert.Empty(t, AggregateDaily(ticks, now))
}

func TestAggregateDaily_TieOnTimestamp(t *testing.T) {
	t.Parallel()

	ts := at(10, 8)
	ticks := []entity.Candle{
		tick(ts, 10, 12, 9, 11),
		tick(ts, 20, 13, 8, 12), // same timestamp, later input
	}

	got := AggregateDaily(ticks, at(11, 0))

	require.Len(t, got, 1)
	assert.Equal(t, 12.0, got[0].Close, "later input wins for close")
	assert.Equal(t, 10.0, got[0].Open, "earlier input wins for open")
	assert.Equal(t, 13.0, got[0].High)
	assert.Equal(t, 8.0, got[0].Low)
}

func TestAggregateDaily_Idempotent(t *testing.T) {
	t.Parallel()

	now := at(20, 0)
	daily := []entity.Candle{
		{Time: at(10, 0), Open: 1, High: 3, Low: 0.5, Close: 2, Volume: 10},
		{Time: at(11, 0), Open: 2, High: 4, Low: 1.5, Close: 3, Volume: 11},
		{Time: at(12, 0), Open: 3, High: 3.5, Low: 2.5, Close: 3.2, Volume: 12},
	}

	once := AggregateDaily(daily, now)
	twice := AggregateDaily(once, now)

	assert.Equal(t, daily, once)
	assert.Equal(t, once, twice)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	in := []entity.Candle{
		tick(at(12, 0), 3, 3, 3, 3),
		tick(at(10, 0), 1, 1, 1, 1),
		tick(at(11, 0), 2, 2, 2, 2),
		tick(at(10, 0), 9, 9, 9, 9), // duplicate, later wins
	}

	got := Normalize(in)

	require.Len(t, got, 3)
	assert.Equal(t, at(10, 0), got[0].Time)
	assert.Equal(t, 9.0, got[0].Close)
	assert.Equal(t, at(11, 0), got[1].Time)
	assert.Equal(t, at(12, 0), got[2].Time)
	assert.Nil(t, Normalize(nil))
}

func TestDropUnclosed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		g    entity.Granularity
		in   []entity.Candle
		now  time.Time
		want int
	}{
		{
			name: "daily open bar dropped",
			g:    entity.Daily,
			in:   []entity.Candle{{Time: at(10, 0)}, {Time: at(11, 0)}, {Time: at(12, 0)}},
			now:  at(12, 5),
			want: 2,
		},
		{
			name: "daily bar closing exactly now is kept",
			g:    entity.Daily,
			in:   []entity.Candle{{Time: at(10, 0)}, {Time: at(11, 0)}},
			now:  at(12, 0),
			want: 2,
		},
		{
			name: "four hour open bar dropped",
			g:    entity.FourHour,
			in:   []entity.Candle{{Time: at(10, 0)}, {Time: at(10, 4)}, {Time: at(10, 8)}},
			now:  at(10, 9),
			want: 2,
		},
		{
			name: "future bar dropped",
			g:    entity.Daily,
			in:   []entity.Candle{{Time: at(20, 0)}},
			now:  at(12, 0),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Len(t, DropUnclosed(tt.in, tt.g, tt.now), tt.want)
		})
	}
}

func TestTail(t *testing.T) {
	t.Parallel()

	in := []entity.Candle{{Close: 1}, {Close: 2}, {Close: 3}}
	assert.Equal(t, []entity.Candle{{Close: 2}, {Close: 3}}, Tail(in, 2))
	assert.Equal(t, in, Tail(in, 5))
	assert.Equal(t, in, Tail(in, 0))
}
