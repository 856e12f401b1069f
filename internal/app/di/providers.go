package di

import (
	"fmt"

	"nr_scanner/internal/feature/scan/usecase"
	"nr_scanner/internal/platform/cache"
	"nr_scanner/internal/platform/clock"
	"nr_scanner/internal/platform/config"
	"nr_scanner/internal/platform/externalapi/binance"
	"nr_scanner/internal/platform/externalapi/coingecko"
	"nr_scanner/internal/platform/externalapi/okx"
	infrahttp "nr_scanner/internal/platform/http"
)

const (
	providerNamespace = "provider"
	rankingNamespace  = "ranking"
)

// Providers are the market-data sources of one process. Each owns its rate limiter.
type Providers struct {
	Ranking  usecase.RankingSource
	Exchange []usecase.CandleProvider
	UTC      []usecase.CandleProvider
}

// NewProviders builds the enabled providers in configured priority order,
// wrapping each in the TTL cache when store is not nil.
func NewProviders(cfg config.Config, store cache.Store, clk clock.Clock) (Providers, error) {
	cg := coingecko.NewClient(cfg.CoinGecko, infrahttp.NewHTTPClient(cfg.CoinGecko.Timeout), clk)

	build := func(name string) (usecase.CandleProvider, error) {
		switch name {
		case coingecko.Name:
			return cg, nil
		case okx.Name:
			return okx.NewClient(cfg.OKX, infrahttp.NewHTTPClient(cfg.OKX.Timeout), clk), nil
		}
		for _, bc := range []binance.Config{cfg.Binance, cfg.Futures, cfg.Aster} {
			if bc.Name == name {
				return binance.NewClient(bc, infrahttp.NewHTTPClient(bc.Timeout), clk), nil
			}
		}
		return nil, fmt.Errorf("unknown provider %q", name)
	}

	ttls := cache.TTLs{Instruments: cfg.Cache.InstrumentsTTL, Ranking: cfg.Cache.RankingTTL}
	wrap := func(names []string) ([]usecase.CandleProvider, error) {
		out := make([]usecase.CandleProvider, 0, len(names))
		for _, name := range names {
			p, err := build(name)
			if err != nil {
				return nil, err
			}
			if store != nil {
				p = cache.NewCachingProvider(p, store, ttls, providerNamespace, clk)
			}
			out = append(out, p)
		}
		return out, nil
	}

	exchange, err := wrap(cfg.Providers.Exchange)
	if err != nil {
		return Providers{}, err
	}
	utc, err := wrap(cfg.Providers.UTC)
	if err != nil {
		return Providers{}, err
	}

	var ranking usecase.RankingSource = cg
	if store != nil {
		ranking = cache.NewCachingRankingSource(cg, store, ttls.Ranking, rankingNamespace)
	}
	return Providers{Ranking: ranking, Exchange: exchange, UTC: utc}, nil
}
