package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nr_scanner/internal/feature/scan/domain"
	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/domain/series"
	"nr_scanner/internal/feature/scan/usecase"
	"nr_scanner/internal/platform/clock"
	"nr_scanner/internal/platform/externalapi/coingecko/dto"
	"nr_scanner/internal/platform/fetch"
)

// Name is the provider identifier.
const Name = "coingecko"

const perPage = 250

// Client はCoinGeckoからランキングと日足OHLCを取得します。
// サブデイリーのOHLCはUTC日単位に集約され、当日分は常に除外されます。
type Client struct {
	cfg   Config
	fetch *fetch.Client
	clock clock.Clock
}

// ClientがCandleProvider/RankingSource/CredentialCheckerを実装していることをコンパイル時に検証します。
var (
	_ usecase.CandleProvider    = (*Client)(nil)
	_ usecase.RankingSource     = (*Client)(nil)
	_ usecase.CredentialChecker = (*Client)(nil)
)

// NewClient は指定された設定でClientを生成します。
func NewClient(cfg Config, httpClient *http.Client, clk clock.Clock) *Client {
	if clk == nil {
		clk = clock.Real{}
	}
	fc := fetch.NewClient(fetch.Config{
		Name:        Name,
		BaseURL:     cfg.BaseURL,
		MinInterval: cfg.MinInterval,
		Backoff:     cfg.Backoff,
		MaxRetries:  cfg.MaxRetries,
		Secrets:     []string{cfg.APIKey},
	}, httpClient, clk)
	return &Client{cfg: cfg, fetch: fc, clock: clk}
}

// Name returns "coingecko".
func (c *Client) Name() string { return Name }

// CheckCredentials は API キーが未設定の場合に domain.ErrMissingCredential を返します。
func (c *Client) CheckCredentials() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return fmt.Errorf("%s: COINGECKO_DEMO_API_KEY is not set: %w", Name, domain.ErrMissingCredential)
	}
	return nil
}

// get は API キーを付与してリクエストします。キーが無い場合はネットワーク呼び出しを行いません。
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.CheckCredentials(); err != nil {
		return err
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("x_cg_demo_api_key", c.cfg.APIKey)
	return c.fetch.GetJSON(ctx, path, q, out)
}

// TopMarkets は /coins/markets を250件単位でページングし、時価総額上位 n 件を返します。
func (c *Client) TopMarkets(ctx context.Context, n int) ([]entity.MarketRecord, error) {
	if err := c.CheckCredentials(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	out := make([]entity.MarketRecord, 0, n)
	for page := 1; len(out) < n; page++ {
		q := url.Values{}
		q.Set("vs_currency", c.cfg.VsCurrency)
		q.Set("order", "market_cap_desc")
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))
		q.Set("sparkline", "false")

		var batch []dto.MarketResponse
		if err := c.get(ctx, "/coins/markets", q, &batch); err != nil {
			return nil, fmt.Errorf("coins/markets page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		for _, m := range batch {
			out = append(out, entity.MarketRecord{
				ID:        m.ID,
				Symbol:    strings.ToUpper(m.Symbol),
				Name:      m.Name,
				Rank:      m.MarketCapRank,
				MarketCap: m.MarketCap,
				Price:     m.CurrentPrice,
				Volume24h: m.TotalVolume,
			})
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// ListTradableInstruments は /coins/list のIDを返します。
func (c *Client) ListTradableInstruments(ctx context.Context) (entity.InstrumentSet, error) {
	var items []dto.CoinListItem
	if err := c.get(ctx, "/coins/list", nil, &items); err != nil {
		return nil, fmt.Errorf("coins/list: %w", err)
	}
	set := make(entity.InstrumentSet, len(items))
	for _, it := range items {
		set.Add(it.ID)
	}
	return set, nil
}

// Candidates は正規ID（例: "bitcoin"）をそのまま候補にします。クォートは使用しません。
func (c *Client) Candidates(req entity.SymbolRequest, _ []string) []string {
	if req.CanonicalID == "" {
		return nil
	}
	return []string{req.CanonicalID}
}

// FetchClosedCandles は /coins/{id}/ohlc を取得し、UTC日足に集約します。日足以外は未対応です。
func (c *Client) FetchClosedCandles(ctx context.Context, id string, g entity.Granularity, limit int) (entity.CandleSeries, error) {
	if g != entity.Daily {
		return entity.CandleSeries{}, fmt.Errorf("%s %s: %w", Name, g, domain.ErrUnsupportedGranularity)
	}

	q := url.Values{}
	q.Set("vs_currency", c.cfg.VsCurrency)
	q.Set("days", strconv.Itoa(c.cfg.DaysFetch))

	var rows []dto.OHLCRow
	if err := c.get(ctx, "/coins/"+url.PathEscape(id)+"/ohlc", q, &rows); err != nil {
		return entity.CandleSeries{}, fmt.Errorf("ohlc %s: %w", id, err)
	}

	ticks := make([]entity.Candle, 0, len(rows))
	for _, r := range rows {
		if len(r) < 5 {
			return entity.CandleSeries{}, fmt.Errorf("ohlc %s: malformed row of %d values", id, len(r))
		}
		ticks = append(ticks, entity.Candle{
			Time:  time.UnixMilli(int64(r[0])).UTC(),
			Open:  r[1],
			High:  r[2],
			Low:   r[3],
			Close: r[4],
		})
	}

	return entity.CandleSeries{
		Provider:    Name,
		Instrument:  id,
		Granularity: g,
		Candles:     series.Tail(series.AggregateDaily(ticks, c.clock.Now()), limit),
	}, nil
}
