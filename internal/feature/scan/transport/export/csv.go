// Package export はスキャン結果を表形式で書き出します。
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"nr_scanner/internal/feature/scan/domain/entity"
)

// Header is the column order of the results table.
var Header = []string{
	"symbol", "name", "nr4", "nr7", "nr10", "canonical_id",
	"provider", "instrument", "granularity", "last_closed", "last_range",
	"setup_time", "setup_high", "setup_low", "direction", "tag",
	"up_count", "down_count", "in_range",
	"market_cap", "price", "volume_24h",
}

// WriteCSV writes a header row and one row per result.
func WriteCSV(w io.Writer, results []entity.ScanResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row formats one result in Header order.
func Row(r entity.ScanResult) []string {
	setupTime, setupHigh, setupLow := "", "", ""
	if r.HasSetup {
		setupTime = formatTime(r.SetupTime, r.Granularity)
		setupHigh = formatFloat(r.SetupHigh)
		setupLow = formatFloat(r.SetupLow)
	}
	return []string{
		r.Symbol,
		r.Name,
		strconv.FormatBool(r.NR4),
		strconv.FormatBool(r.NR7),
		strconv.FormatBool(r.NR10),
		r.CanonicalID,
		r.Provider,
		r.Instrument,
		string(r.Granularity),
		formatTime(r.LastClosed, r.Granularity),
		formatFloat(r.LastRange),
		setupTime,
		setupHigh,
		setupLow,
		r.Direction,
		r.Tag,
		strconv.Itoa(r.UpCount),
		strconv.Itoa(r.DownCount),
		strconv.FormatBool(r.InRange),
		formatFloat(r.MarketCap),
		formatFloat(r.Price),
		formatFloat(r.Volume24h),
	}
}

// formatTime は日足・週足を日付のみ、4時間足を時刻付きで出力します。
func formatTime(t time.Time, g entity.Granularity) string {
	if t.IsZero() {
		return ""
	}
	if g == entity.FourHour {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return t.UTC().Format("2006-01-02")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
