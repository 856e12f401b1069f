package usecase

import (
	"fmt"
	"strings"

	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/domain/signal"
)

// UniverseMode はスキャン対象の選び方です。
type UniverseMode string

const (
	ModeTop          UniverseMode = "top"          // ランキング上位N
	ModeList         UniverseMode = "list"         // 明示的なティッカー一覧
	ModeIntersection UniverseMode = "intersection" // 上位N ∩ 一覧
)

// CloseMode は足の確定基準です。
type CloseMode string

const (
	// CloseExchange は取引所の足を優先します。
	CloseExchange CloseMode = "exchange"
	// CloseUTC はUTC日単位に集約したランキングソースの足を優先します。
	CloseUTC CloseMode = "utc"
)

// ScanParams は1回のスキャン要求です。
type ScanParams struct {
	Mode           UniverseMode
	TopN           int
	Tickers        []string
	Granularity    entity.Granularity
	Windows        []signal.Window
	CloseMode      CloseMode
	MinVolume      float64
	DropStables    bool
	IncludeInRange bool
}

// Normalize は既定値を補い、ティッカーを大文字化・重複排除します。
func (p ScanParams) Normalize() ScanParams {
	if p.Mode == "" {
		p.Mode = ModeTop
	}
	if p.Granularity == "" {
		p.Granularity = entity.Daily
	}
	if p.CloseMode == "" {
		p.CloseMode = CloseExchange
	}
	p.Tickers = NormalizeTickers(p.Tickers)
	return p
}

// Validate は正規化済みのパラメータを検証します。
func (p ScanParams) Validate() error {
	switch p.Mode {
	case ModeTop, ModeList, ModeIntersection:
	default:
		return fmt.Errorf("%w: unknown universe mode %q", ErrInvalidParams, p.Mode)
	}
	switch p.CloseMode {
	case CloseExchange, CloseUTC:
	default:
		return fmt.Errorf("%w: unknown close mode %q", ErrInvalidParams, p.CloseMode)
	}
	if _, err := entity.ParseGranularity(string(p.Granularity)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if p.Mode != ModeList && p.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive", ErrInvalidParams)
	}
	if p.Mode != ModeTop && len(p.Tickers) == 0 {
		return fmt.Errorf("%w: mode %s requires tickers", ErrInvalidParams, p.Mode)
	}
	if len(p.Windows) == 0 && !p.IncludeInRange {
		return fmt.Errorf("%w: select at least one NR window", ErrInvalidParams)
	}
	if p.MinVolume < 0 {
		return fmt.Errorf("%w: min_volume must not be negative", ErrInvalidParams)
	}
	return nil
}

// NormalizeTickers は区切り文字で分割し、大文字化して重複を除きます。
func NormalizeTickers(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		for _, f := range strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
		}) {
			t := strings.ToUpper(strings.TrimSpace(f))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
