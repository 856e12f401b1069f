// Package signal computes narrow-range flags and breakout state over closed candle series.
package signal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"nr_scanner/internal/feature/scan/domain/entity"
)

// Window is an NR lookback size.
type Window int

const (
	NR4  Window = 4
	NR7  Window = 7
	NR10 Window = 10
)

// AllWindows lists windows by priority, longest first.
var AllWindows = []Window{NR10, NR7, NR4}

func (w Window) String() string { return fmt.Sprintf("NR%d", int(w)) }

// ParseWindows parses names such as "NR4", "nr7" or "10".
func ParseWindows(names []string) ([]Window, error) {
	seen := make(map[Window]bool, len(names))
	out := make([]Window, 0, len(names))
	for _, n := range names {
		s := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(n)), "NR")
		var w Window
		switch s {
		case "4":
			w = NR4
		case "7":
			w = NR7
		case "10":
			w = NR10
		default:
			return nil, fmt.Errorf("unknown NR window %q", n)
		}
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out, nil
}

// Flags are the mutually exclusive NR flags of one candle.
type Flags struct {
	NR4  bool
	NR7  bool
	NR10 bool
}

// Any reports whether any flag is set.
func (f Flags) Any() bool { return f.NR4 || f.NR7 || f.NR10 }

// Has reports whether the flag for w is set.
func (f Flags) Has(w Window) bool {
	switch w {
	case NR4:
		return f.NR4
	case NR7:
		return f.NR7
	case NR10:
		return f.NR10
	}
	return false
}

// HitAny reports whether any flag in ws is set.
func (f Flags) HitAny(ws []Window) bool {
	for _, w := range ws {
		if f.Has(w) {
			return true
		}
	}
	return false
}

// Label returns "NR10", "NR7", "NR4" or "".
func (f Flags) Label() string {
	for _, w := range AllWindows {
		if f.Has(w) {
			return w.String()
		}
	}
	return ""
}

// rangeOf computes high-low in decimal so that equal ranges compare equal
// even when float subtraction would leave noise.
func rangeOf(c entity.Candle) decimal.Decimal {
	r := decimal.NewFromFloat(c.High).Sub(decimal.NewFromFloat(c.Low))
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

func ranges(candles []entity.Candle) []decimal.Decimal {
	out := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		out[i] = rangeOf(c)
	}
	return out
}

func isNR(rs []decimal.Decimal, i int, w Window) bool {
	n := int(w)
	if n <= 0 || i < 0 || i >= len(rs) || i+1 < n {
		return false
	}
	for j := i - n + 1; j < i; j++ {
		if rs[j].LessThan(rs[i]) {
			return false
		}
	}
	return true
}

func flagsAt(rs []decimal.Decimal, i int) Flags {
	switch {
	case isNR(rs, i, NR10):
		return Flags{NR10: true}
	case isNR(rs, i, NR7):
		return Flags{NR7: true}
	case isNR(rs, i, NR4):
		return Flags{NR4: true}
	}
	return Flags{}
}

// IsNR reports whether candle i has the smallest range of the w candles ending at i.
// Ties count. Fewer than w candles available yields false.
func IsNR(candles []entity.Candle, i int, w Window) bool {
	if i < 0 || i >= len(candles) || i+1 < int(w) {
		return false
	}
	return isNR(ranges(candles[i+1-int(w):i+1]), int(w)-1, w)
}

// FlagsAt evaluates the flags of candle i. The longer window wins:
// NR10 clears NR7 and NR4, NR7 clears NR4.
func FlagsAt(candles []entity.Candle, i int) Flags {
	if i < 0 || i >= len(candles) {
		return Flags{}
	}
	lo := i + 1 - int(NR10)
	if lo < 0 {
		lo = 0
	}
	return flagsAt(ranges(candles[lo:i+1]), i-lo)
}

// Latest returns the flags of the last candle.
func Latest(candles []entity.Candle) Flags {
	return FlagsAt(candles, len(candles)-1)
}

// History returns the flags of every candle.
func History(candles []entity.Candle) []Flags {
	rs := ranges(candles)
	out := make([]Flags, len(candles))
	for i := range candles {
		out[i] = flagsAt(rs, i)
	}
	return out
}
