package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"nr_scanner/internal/feature/scan/domain"
	"nr_scanner/internal/feature/scan/domain/entity"
)

// errUpstream はモックと期待値の間で共有されるセンチネルエラーです。
var errUpstream = errors.New("upstream exploded")

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// mockProvider は CandleProvider のモック実装です。
// Candles / Errs は銘柄IDごとの応答を保持します。
type mockProvider struct {
	name        string
	instruments []string
	listErr     error
	candles     map[string][]entity.Candle
	errs        map[string]error
	noDaily     bool // 日足以外のみサポート

	mu         sync.Mutex
	fetchCalls []string
	listCalls  int
	credErr    error
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) ListTradableInstruments(ctx context.Context) (entity.InstrumentSet, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return entity.NewInstrumentSet(m.instruments...), nil
}

// Candidates は SYMBOL+QUOTE をクォート優先順に返します。
func (m *mockProvider) Candidates(req entity.SymbolRequest, quotes []string) []string {
	out := make([]string, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, req.Symbol+q)
	}
	return out
}

func (m *mockProvider) FetchClosedCandles(ctx context.Context, instrument string, g entity.Granularity, limit int) (entity.CandleSeries, error) {
	m.mu.Lock()
	m.fetchCalls = append(m.fetchCalls, instrument)
	m.mu.Unlock()
	if m.noDaily && g == entity.Daily {
		return entity.CandleSeries{}, domain.ErrUnsupportedGranularity
	}
	if err, ok := m.errs[instrument]; ok {
		return entity.CandleSeries{}, err
	}
	return entity.CandleSeries{
		Provider:    m.name,
		Instrument:  instrument,
		Granularity: g,
		Candles:     m.candles[instrument],
	}, nil
}

func (m *mockProvider) CheckCredentials() error { return m.credErr }

func (m *mockProvider) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetchCalls...)
}

// mockRanking は RankingSource のモック実装です。
type mockRanking struct {
	markets []entity.MarketRecord
	err     error
	credErr error
	gotN    int
}

func (m *mockRanking) TopMarkets(ctx context.Context, n int) ([]entity.MarketRecord, error) {
	m.gotN = n
	if m.err != nil {
		return nil, m.err
	}
	if n < len(m.markets) {
		return m.markets[:n], nil
	}
	return m.markets, nil
}

func (m *mockRanking) CheckCredentials() error { return m.credErr }

// mockSymbolMap は SymbolMapRepository のモック実装です。
type mockSymbolMap struct {
	stored   map[string]entity.SymbolMapping
	findErr  error
	upserted []entity.SymbolMapping
}

func (m *mockSymbolMap) FindBySymbols(ctx context.Context, symbols []string) (map[string]entity.SymbolMapping, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := make(map[string]entity.SymbolMapping)
	for _, s := range symbols {
		if v, ok := m.stored[s]; ok {
			out[s] = v
		}
	}
	return out, nil
}

func (m *mockSymbolMap) UpsertBatch(ctx context.Context, mappings []entity.SymbolMapping) error {
	m.upserted = append(m.upserted, mappings...)
	return nil
}

func market(symbol, id string, mcap, volume float64) entity.MarketRecord {
	return entity.MarketRecord{ID: id, Symbol: symbol, Name: id, MarketCap: mcap, Price: 10, Volume24h: volume}
}

// narrowing returns n daily candles whose ranges shrink, so the last one is NR4, NR7 and NR10.
func narrowing(n int) []entity.Candle {
	out := make([]entity.Candle, n)
	for i := range out {
		half := float64(n - i)
		out[i] = entity.Candle{Time: day0.AddDate(0, 0, i), Open: 100, High: 100 + half, Low: 100 - half, Close: 100}
	}
	return out
}

// widening returns n daily candles whose ranges grow, so no candle is ever NR.
func widening(n int) []entity.Candle {
	out := make([]entity.Candle, n)
	for i := range out {
		half := float64(i + 1)
		out[i] = entity.Candle{Time: day0.AddDate(0, 0, i), Open: 100, High: 100 + half, Low: 100 - half, Close: 100}
	}
	return out
}
