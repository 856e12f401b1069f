package entity

import "time"

// Outcome is the result of trying one provider for one symbol.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
)

// ProviderAttempt records one (symbol, provider) try, for diagnostics only.
type ProviderAttempt struct {
	Provider   string  `json:"provider"`
	Instrument string  `json:"instrument,omitempty"`
	Outcome    Outcome `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
}

// ScanResult is one hit row of a scan.
type ScanResult struct {
	Symbol      string
	Name        string
	CanonicalID string
	NR4         bool
	NR7         bool
	NR10        bool
	Provider    string
	Instrument  string
	Granularity Granularity
	LastClosed  time.Time
	LastRange   float64
	HasSetup    bool
	SetupTime   time.Time
	SetupHigh   float64
	SetupLow    float64
	Direction   string
	Tag         string
	UpCount     int
	DownCount   int
	InRange     bool
	MarketCap   float64
	Price       float64
	Volume24h   float64
	Attempts    []ProviderAttempt
}

// SkippedSymbol is a symbol that was not evaluated, with a human-readable reason.
type SkippedSymbol struct {
	Symbol   string            `json:"symbol"`
	Reason   string            `json:"reason"`
	Attempts []ProviderAttempt `json:"attempts,omitempty"`
}

// SymbolError is a symbol whose evaluation failed.
type SymbolError struct {
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
}

// ScanCounters summarizes a scan.
type ScanCounters struct {
	Universe        int            `json:"universe"`
	Scanned         int            `json:"scanned"`
	Hits            int            `json:"hits"`
	Skipped         int            `json:"skipped"`
	SkippedByReason map[string]int `json:"skipped_by_reason"`
	Errors          int            `json:"errors"`
	Unresolved      int            `json:"unresolved"`
}

// ScanReport owns everything a scan produced.
type ScanReport struct {
	ID          string
	Granularity Granularity
	StartedAt   time.Time
	FinishedAt  time.Time
	Canceled    bool
	Results     []ScanResult
	Skipped     []SkippedSymbol
	Errors      []SymbolError
	Unresolved  []string
	Missing     []string // list tickers absent from the ranking snapshot
	Counters    ScanCounters
}
