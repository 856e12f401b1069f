// Package dto はscanフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import (
	"time"

	"nr_scanner/internal/feature/scan/domain/entity"
)

// ScanRequest は POST /scans のリクエストボディです。
// tickers は配列の各要素がさらに区切り文字で分割されます。
type ScanRequest struct {
	Mode           string   `json:"mode" binding:"omitempty,oneof=top list intersection"`
	TopN           int      `json:"top_n" binding:"omitempty,min=1,max=1000"`
	Tickers        []string `json:"tickers"`
	Granularity    string   `json:"granularity" binding:"omitempty,oneof=4h 1d 1w"`
	Windows        []string `json:"windows"`
	CloseMode      string   `json:"close_mode" binding:"omitempty,oneof=exchange utc"`
	MinVolume      float64  `json:"min_volume" binding:"min=0"`
	DropStables    bool     `json:"drop_stables"`
	IncludeInRange bool     `json:"include_in_range"`
}

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// ProgressResponse is the progress of a running scan.
type ProgressResponse struct {
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Symbol  string `json:"symbol,omitempty"`
	Scanned int    `json:"scanned"`
	Hits    int    `json:"hits"`
}

// JobResponse はスキャンジョブの状態です。Report は完了後のみ含まれます。
type JobResponse struct {
	ID          string           `json:"id"`
	Status      string           `json:"status"`
	Mode        string           `json:"mode"`
	TopN        int              `json:"top_n,omitempty"`
	Tickers     []string         `json:"tickers,omitempty"`
	Granularity string           `json:"granularity"`
	Windows     []string         `json:"windows"`
	CloseMode   string           `json:"close_mode"`
	Progress    ProgressResponse `json:"progress"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	FinishedAt  *time.Time       `json:"finished_at,omitempty"`
	Report      *ReportResponse  `json:"report,omitempty"`
}

// ReportResponse はスキャン結果の全体です。
type ReportResponse struct {
	Canceled   bool                   `json:"canceled"`
	Results    []ResultItem           `json:"results"`
	Skipped    []entity.SkippedSymbol `json:"skipped"`
	Errors     []entity.SymbolError   `json:"errors"`
	Unresolved []string               `json:"unresolved"`
	Missing    []string               `json:"missing"`
	Counters   entity.ScanCounters    `json:"counters"`
}

// ResultItem はヒットした1銘柄です。
type ResultItem struct {
	Symbol      string                   `json:"symbol"`
	Name        string                   `json:"name"`
	CanonicalID string                   `json:"canonical_id,omitempty"`
	NR4         bool                     `json:"nr4"`
	NR7         bool                     `json:"nr7"`
	NR10        bool                     `json:"nr10"`
	Provider    string                   `json:"provider"`
	Instrument  string                   `json:"instrument"`
	Granularity string                   `json:"granularity"`
	LastClosed  time.Time                `json:"last_closed"`
	LastRange   float64                  `json:"last_range"`
	Setup       *SetupItem               `json:"setup,omitempty"`
	Direction   string                   `json:"direction"`
	Tag         string                   `json:"tag,omitempty"`
	UpCount     int                      `json:"up_count"`
	DownCount   int                      `json:"down_count"`
	InRange     bool                     `json:"in_range"`
	MarketCap   float64                  `json:"market_cap"`
	Price       float64                  `json:"price"`
	Volume24h   float64                  `json:"volume_24h"`
	Attempts    []entity.ProviderAttempt `json:"attempts,omitempty"`
}

// SetupItem is the most recent NR candle.
type SetupItem struct {
	Time time.Time `json:"time"`
	High float64   `json:"high"`
	Low  float64   `json:"low"`
}

// NewResultItem converts a ScanResult.
func NewResultItem(r entity.ScanResult) ResultItem {
	item := ResultItem{
		Symbol:      r.Symbol,
		Name:        r.Name,
		CanonicalID: r.CanonicalID,
		NR4:         r.NR4,
		NR7:         r.NR7,
		NR10:        r.NR10,
		Provider:    r.Provider,
		Instrument:  r.Instrument,
		Granularity: string(r.Granularity),
		LastClosed:  r.LastClosed,
		LastRange:   r.LastRange,
		Direction:   r.Direction,
		Tag:         r.Tag,
		UpCount:     r.UpCount,
		DownCount:   r.DownCount,
		InRange:     r.InRange,
		MarketCap:   r.MarketCap,
		Price:       r.Price,
		Volume24h:   r.Volume24h,
		Attempts:    r.Attempts,
	}
	if r.HasSetup {
		item.Setup = &SetupItem{Time: r.SetupTime, High: r.SetupHigh, Low: r.SetupLow}
	}
	return item
}

// NewReportResponse converts a ScanReport. Nil slices become empty arrays.
func NewReportResponse(r *entity.ScanReport) *ReportResponse {
	if r == nil {
		return nil
	}
	out := &ReportResponse{
		Canceled:   r.Canceled,
		Results:    make([]ResultItem, 0, len(r.Results)),
		Skipped:    nonNil(r.Skipped),
		Errors:     nonNil(r.Errors),
		Unresolved: nonNil(r.Unresolved),
		Missing:    nonNil(r.Missing),
		Counters:   r.Counters,
	}
	for _, res := range r.Results {
		out.Results = append(out.Results, NewResultItem(res))
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
