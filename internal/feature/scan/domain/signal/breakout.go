package signal

import (
	"fmt"
	"time"

	"nr_scanner/internal/feature/scan/domain/entity"
)

// Direction of the latest breakout.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// BreakoutEvent is one counted breakout attempt.
type BreakoutEvent struct {
	Index     int
	Time      time.Time
	Direction Direction
	Tag       string
	Close     float64
}

// BreakoutState describes breakouts from the most recent NR candle.
// A zero HasSetup means no NR candle exists in the series.
type BreakoutState struct {
	HasSetup   bool
	SetupIndex int
	SetupTime  time.Time
	SetupFlags Flags
	SetupHigh  float64
	SetupLow   float64
	Mid        float64
	Direction  Direction
	Tag        string
	UpCount    int
	DownCount  int
	Events     []BreakoutEvent
}

// TrackBreakout finds the most recent NR candle and walks forward counting
// independent breakout attempts. An event fires when the previous close was
// inside or at the boundary and the current close is strictly beyond it, and
// only while that side is armed. Firing disarms the side; UP re-arms on a close
// below mid and DOWN re-arms on a close above mid.
// history may be nil, in which case it is computed from candles.
func TrackBreakout(candles []entity.Candle, history []Flags) BreakoutState {
	st := BreakoutState{SetupIndex: -1, Direction: DirectionNone}
	if len(candles) == 0 {
		return st
	}
	if len(history) != len(candles) {
		history = History(candles)
	}

	setup := -1
	for i := len(candles) - 1; i >= 0; i-- {
		if history[i].Any() {
			setup = i
			break
		}
	}
	if setup < 0 {
		return st
	}

	sc := candles[setup]
	st.HasSetup = true
	st.SetupIndex = setup
	st.SetupTime = sc.Time
	st.SetupFlags = history[setup]
	st.SetupHigh = sc.High
	st.SetupLow = sc.Low
	st.Mid = (sc.High + sc.Low) / 2

	armedUp, armedDown := true, true
	prev := sc.Close
	for i := setup + 1; i < len(candles); i++ {
		c := candles[i].Close
		switch {
		case armedUp && prev <= st.SetupHigh && c > st.SetupHigh:
			st.UpCount++
			armedUp = false
			st.record(i, candles[i], DirectionUp, fmt.Sprintf("UP#%d", st.UpCount))
		case armedDown && prev >= st.SetupLow && c < st.SetupLow:
			st.DownCount++
			armedDown = false
			st.record(i, candles[i], DirectionDown, fmt.Sprintf("DOWN#%d", st.DownCount))
		}
		if c < st.Mid {
			armedUp = true
		}
		if c > st.Mid {
			armedDown = true
		}
		prev = c
	}
	return st
}

func (s *BreakoutState) record(i int, c entity.Candle, d Direction, tag string) {
	s.Direction = d
	s.Tag = tag
	s.Events = append(s.Events, BreakoutEvent{Index: i, Time: c.Time, Direction: d, Tag: tag, Close: c.Close})
}

// InRange reports whether close lies within the setup range widened by tol
// on each side: [low*(1-tol), high*(1+tol)].
func (s BreakoutState) InRange(close, tol float64) bool {
	if !s.HasSetup {
		return false
	}
	return close >= s.SetupLow*(1-tol) && close <= s.SetupHigh*(1+tol)
}
