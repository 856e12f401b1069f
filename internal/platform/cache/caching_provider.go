package cache

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/usecase"
	"nr_scanner/internal/platform/clock"
)

// TTLs for cached provider data.
type TTLs struct {
	Instruments time.Duration // tradable instrument lists
	Ranking     time.Duration // market-cap ranking snapshots
}

// DefaultTTLs returns one hour for instrument lists and rankings.
func DefaultTTLs() TTLs {
	return TTLs{Instruments: time.Hour, Ranking: time.Hour}
}

// CachingProvider decorates a CandleProvider with TTL caching.
// Instrument lists use TTLs.Instruments; candle series stay valid until the
// next period boundary so a newly closed bar is never hidden.
type CachingProvider struct {
	inner     usecase.CandleProvider
	store     Store
	ttls      TTLs
	namespace string
	clock     clock.Clock
	group     singleflight.Group
}

var (
	_ usecase.CandleProvider    = (*CachingProvider)(nil)
	_ usecase.CredentialChecker = (*CachingProvider)(nil)
)

// NewCachingProvider decorates inner. If store is nil the decorator bypasses caching.
// If namespace is empty, it uses "provider".
func NewCachingProvider(inner usecase.CandleProvider, store Store, ttls TTLs, namespace string, clk clock.Clock) *CachingProvider {
	if ttls.Instruments <= 0 {
		ttls.Instruments = DefaultTTLs().Instruments
	}
	if namespace == "" {
		namespace = "provider"
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &CachingProvider{inner: inner, store: store, ttls: ttls, namespace: namespace, clock: clk}
}

// Name returns the inner provider's name.
func (c *CachingProvider) Name() string { return c.inner.Name() }

// Candidates delegates to the inner provider.
func (c *CachingProvider) Candidates(req entity.SymbolRequest, quotes []string) []string {
	return c.inner.Candidates(req, quotes)
}

// CheckCredentials delegates when the inner provider requires credentials.
func (c *CachingProvider) CheckCredentials() error {
	if cc, ok := c.inner.(usecase.CredentialChecker); ok {
		return cc.CheckCredentials()
	}
	return nil
}

// ListTradableInstruments returns the cached instrument set.
func (c *CachingProvider) ListTradableInstruments(ctx context.Context) (entity.InstrumentSet, error) {
	if c.store == nil {
		return c.inner.ListTradableInstruments(ctx)
	}
	key := Key(c.namespace, c.inner.Name(), "instruments")
	return GetOrLoad(ctx, c.store, &c.group, key, c.ttls.Instruments, c.inner.ListTradableInstruments)
}

// FetchClosedCandles returns the cached series for (instrument, granularity, limit).
func (c *CachingProvider) FetchClosedCandles(ctx context.Context, instrument string, g entity.Granularity, limit int) (entity.CandleSeries, error) {
	if c.store == nil {
		return c.inner.FetchClosedCandles(ctx, instrument, g, limit)
	}
	key := Key(c.namespace, c.inner.Name(), "candles", instrument, string(g), strconv.Itoa(limit))
	ttl := TimeUntilNextClose(g, c.clock.Now())
	return GetOrLoad(ctx, c.store, &c.group, key, ttl, func(ctx context.Context) (entity.CandleSeries, error) {
		return c.inner.FetchClosedCandles(ctx, instrument, g, limit)
	})
}

// CachingRankingSource decorates a RankingSource with TTL caching.
type CachingRankingSource struct {
	inner     usecase.RankingSource
	store     Store
	ttl       time.Duration
	namespace string
	group     singleflight.Group
}

var (
	_ usecase.RankingSource     = (*CachingRankingSource)(nil)
	_ usecase.CredentialChecker = (*CachingRankingSource)(nil)
)

// NewCachingRankingSource decorates inner. If ttl is 0, it defaults to one hour.
func NewCachingRankingSource(inner usecase.RankingSource, store Store, ttl time.Duration, namespace string) *CachingRankingSource {
	if ttl <= 0 {
		ttl = DefaultTTLs().Ranking
	}
	if namespace == "" {
		namespace = "ranking"
	}
	return &CachingRankingSource{inner: inner, store: store, ttl: ttl, namespace: namespace}
}

// CheckCredentials delegates when the inner source requires credentials.
func (c *CachingRankingSource) CheckCredentials() error {
	if cc, ok := c.inner.(usecase.CredentialChecker); ok {
		return cc.CheckCredentials()
	}
	return nil
}

// TopMarkets returns the cached ranking snapshot for n.
func (c *CachingRankingSource) TopMarkets(ctx context.Context, n int) ([]entity.MarketRecord, error) {
	if c.store == nil {
		return c.inner.TopMarkets(ctx, n)
	}
	key := Key(c.namespace, "top", strconv.Itoa(n))
	return GetOrLoad(ctx, c.store, &c.group, key, c.ttl, func(ctx context.Context) ([]entity.MarketRecord, error) {
		return c.inner.TopMarkets(ctx, n)
	})
}
