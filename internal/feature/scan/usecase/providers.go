// Package usecase は NR スキャンのビジネスロジックを実装します。
package usecase

import (
	"context"

	"nr_scanner/internal/feature/scan/domain/entity"
)

// CandleProvider はローソク足の取得元（取引所やランキングソース）を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleProvider interface {
	// Name はプロバイダ識別子（例: "binance"）を返します。
	Name() string
	// ListTradableInstruments は取引可能な銘柄IDの集合を返します。実装はTTLでキャッシュされます。
	ListTradableInstruments(ctx context.Context) (entity.InstrumentSet, error)
	// Candidates は銘柄に対するプロバイダ固有IDの候補を、クォート優先順に返します。
	Candidates(req entity.SymbolRequest, quotes []string) []string
	// FetchClosedCandles は確定済みのローソク足のみを返します。形成中の足は含みません。
	FetchClosedCandles(ctx context.Context, instrument string, g entity.Granularity, limit int) (entity.CandleSeries, error)
}

// RankingSource は時価総額ランキングを提供します。
type RankingSource interface {
	// TopMarkets は時価総額の降順で上位 n 件を返します。
	TopMarkets(ctx context.Context, n int) ([]entity.MarketRecord, error)
}

// CredentialChecker は必須の認証情報が設定済みかを検証します。
// スキャン開始前に呼ばれ、エラーはスキャン全体を中止させます。
type CredentialChecker interface {
	CheckCredentials() error
}

// SymbolMapRepository はティッカーと正規IDの対応を永続化します。
type SymbolMapRepository interface {
	FindBySymbols(ctx context.Context, symbols []string) (map[string]entity.SymbolMapping, error)
	UpsertBatch(ctx context.Context, mappings []entity.SymbolMapping) error
}
