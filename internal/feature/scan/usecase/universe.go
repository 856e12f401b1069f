package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"nr_scanner/internal/feature/scan/domain/entity"
)

// Skip reasons reported for symbols that are not evaluated.
const (
	ReasonLowVolume        = "low volume"
	ReasonStablecoin       = "stablecoin"
	ReasonNoInstrument     = "no instrument"
	ReasonInsufficientData = "insufficient data"
	ReasonUnsupported      = "unsupported granularity"
)

// ProviderInstrument is a provider with the instrument resolved for one symbol.
// Instrument is empty when the provider has no matching market.
type ProviderInstrument struct {
	Provider   CandleProvider
	Instrument string
	ListErr    error // instrument list could not be loaded
}

// UniverseEntry is one symbol to scan with its per-provider instruments in priority order.
type UniverseEntry struct {
	Request     entity.SymbolRequest
	Instruments []ProviderInstrument
}

// Universe is the resolved scan universe.
type Universe struct {
	Entries    []UniverseEntry
	Skipped    []entity.SkippedSymbol
	Unresolved []string
	Missing    []string // list tickers absent from the ranking snapshot
}

// UniverseResolver は要求されたシンボル集合を、プロバイダごとの取引可能な銘柄に解決します。
type UniverseResolver struct {
	ranking   RankingSource
	symbolMap SymbolMapRepository
	settings  Settings
}

// NewUniverseResolver は UniverseResolver を生成します。symbolMap は nil でも構いません。
func NewUniverseResolver(ranking RankingSource, symbolMap SymbolMapRepository, settings Settings) *UniverseResolver {
	return &UniverseResolver{ranking: ranking, symbolMap: symbolMap, settings: settings.withDefaults()}
}

type candidate struct {
	req       entity.SymbolRequest
	hasMarket bool
}

// Resolve はユニバースを構築します。ランキング取得の失敗はスキャン全体のエラーです。
func (u *UniverseResolver) Resolve(ctx context.Context, p ScanParams, providers []CandleProvider) (Universe, error) {
	var uni Universe

	cands, missing, err := u.requests(ctx, p)
	if err != nil {
		return Universe{}, err
	}
	uni.Missing = missing

	sets := u.instrumentSets(ctx, providers)

	for _, c := range cands {
		if reason := u.filterReason(c, p); reason != "" {
			uni.Skipped = append(uni.Skipped, entity.SkippedSymbol{Symbol: c.req.Symbol, Reason: reason})
			continue
		}

		entry := UniverseEntry{Request: c.req}
		resolved, listFailed := false, false
		for i, prov := range providers {
			pi := ProviderInstrument{Provider: prov, ListErr: sets[i].err}
			if sets[i].err != nil {
				listFailed = true
			} else {
				for _, id := range prov.Candidates(c.req, u.settings.QuotePreference) {
					if sets[i].set.Has(id) {
						pi.Instrument = id
						resolved = true
						break
					}
				}
			}
			entry.Instruments = append(entry.Instruments, pi)
		}
		// 一覧を取得できなかったプロバイダがある場合はフォールバックチェーンでエラーとして記録する
		if !resolved && !listFailed {
			uni.Unresolved = append(uni.Unresolved, c.req.Symbol)
			continue
		}
		uni.Entries = append(uni.Entries, entry)
	}
	return uni, nil
}

// requests はモードに応じて SymbolRequest を組み立てます。
func (u *UniverseResolver) requests(ctx context.Context, p ScanParams) ([]candidate, []string, error) {
	topN := p.TopN
	if p.Mode == ModeList && topN <= 0 {
		topN = u.settings.ListRankingN
	}
	markets, err := u.ranking.TopMarkets(ctx, topN)
	if err != nil {
		return nil, nil, fmt.Errorf("load ranking: %w", err)
	}

	bySymbol := make(map[string]entity.MarketRecord, len(markets))
	var ranked []entity.MarketRecord
	for _, m := range markets {
		sym := strings.ToUpper(m.Symbol)
		if sym == "" {
			continue
		}
		if _, dup := bySymbol[sym]; dup {
			continue // 同一ティッカーは時価総額が大きい方を採用
		}
		m.Symbol = sym
		bySymbol[sym] = m
		ranked = append(ranked, m)
	}
	u.persistMappings(ctx, ranked)

	switch p.Mode {
	case ModeTop:
		out := make([]candidate, 0, len(ranked))
		for _, m := range ranked {
			out = append(out, candidate{req: fromMarket(m), hasMarket: true})
		}
		return out, nil, nil

	case ModeIntersection:
		want := make(map[string]bool, len(p.Tickers))
		var missing []string
		for _, t := range p.Tickers {
			want[t] = true
			if _, ok := bySymbol[t]; !ok {
				missing = append(missing, t)
			}
		}
		var out []candidate
		for _, m := range ranked {
			if want[m.Symbol] {
				out = append(out, candidate{req: fromMarket(m), hasMarket: true})
			}
		}
		return out, missing, nil

	default: // ModeList
		var missing []string
		for _, t := range p.Tickers {
			if _, ok := bySymbol[t]; !ok {
				missing = append(missing, t)
			}
		}
		mapped := u.lookupMappings(ctx, missing)

		out := make([]candidate, 0, len(p.Tickers))
		for _, t := range p.Tickers {
			if m, ok := bySymbol[t]; ok {
				out = append(out, candidate{req: fromMarket(m), hasMarket: true})
				continue
			}
			req := entity.SymbolRequest{Symbol: t}
			if sm, ok := mapped[t]; ok {
				req.CanonicalID = sm.CanonicalID
				req.Name = sm.Name
			}
			out = append(out, candidate{req: req})
		}
		return out, missing, nil
	}
}

type instrumentSet struct {
	set entity.InstrumentSet
	err error
}

// instrumentSets はスキャンごとに各プロバイダの銘柄一覧を一度だけ取得します。
func (u *UniverseResolver) instrumentSets(ctx context.Context, providers []CandleProvider) []instrumentSet {
	out := make([]instrumentSet, len(providers))
	for i, p := range providers {
		set, err := p.ListTradableInstruments(ctx)
		if err != nil {
			slog.Warn("failed to load instrument list", "provider", p.Name(), "error", err)
		}
		out[i] = instrumentSet{set: set, err: err}
	}
	return out
}

// filterReason はボリュームとステーブルコインのフィルタを適用します。
func (u *UniverseResolver) filterReason(c candidate, p ScanParams) string {
	if p.DropStables && u.IsStablecoin(c.req) {
		return ReasonStablecoin
	}
	if p.MinVolume > 0 && c.hasMarket && c.req.Volume24h < p.MinVolume {
		return ReasonLowVolume
	}
	return ""
}

// IsStablecoin はティッカーが既知のステーブルコインか、USD建て価格が 1.0 の許容幅内かを判定します。
func (u *UniverseResolver) IsStablecoin(req entity.SymbolRequest) bool {
	for _, s := range u.settings.StableSymbols {
		if strings.EqualFold(s, req.Symbol) {
			return true
		}
	}
	if !strings.EqualFold(u.settings.VsCurrency, "usd") || req.Price <= 0 {
		return false
	}
	return math.Abs(req.Price-1.0) <= u.settings.StableTolerance
}

func (u *UniverseResolver) persistMappings(ctx context.Context, ranked []entity.MarketRecord) {
	if u.symbolMap == nil || len(ranked) == 0 {
		return
	}
	ms := make([]entity.SymbolMapping, 0, len(ranked))
	for _, m := range ranked {
		ms = append(ms, entity.SymbolMapping{Symbol: m.Symbol, CanonicalID: m.ID, Name: m.Name})
	}
	if err := u.symbolMap.UpsertBatch(ctx, ms); err != nil {
		slog.Warn("failed to persist symbol map", "error", err)
	}
}

func (u *UniverseResolver) lookupMappings(ctx context.Context, symbols []string) map[string]entity.SymbolMapping {
	if u.symbolMap == nil || len(symbols) == 0 {
		return nil
	}
	m, err := u.symbolMap.FindBySymbols(ctx, symbols)
	if err != nil {
		slog.Warn("failed to load symbol map", "error", err)
		return nil
	}
	return m
}

func fromMarket(m entity.MarketRecord) entity.SymbolRequest {
	return entity.SymbolRequest{
		Symbol:      m.Symbol,
		CanonicalID: m.ID,
		Name:        m.Name,
		MarketCap:   m.MarketCap,
		Price:       m.Price,
		Volume24h:   m.Volume24h,
	}
}
