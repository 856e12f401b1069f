package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/domain/series"
	"nr_scanner/internal/feature/scan/usecase"
	"nr_scanner/internal/platform/clock"
	"nr_scanner/internal/platform/fetch"
)

// maxKlineLimit is the largest page /klines accepts on both surfaces.
const maxKlineLimit = 1000

// Client はBinance互換APIから取引可能銘柄と確定済みローソク足を取得します。
type Client struct {
	cfg   Config
	fetch *fetch.Client
	clock clock.Clock
}

// ClientがCandleProviderを実装していることをコンパイル時に検証します。
var _ usecase.CandleProvider = (*Client)(nil)

// NewClient は指定された設定でClientを生成します。
func NewClient(cfg Config, httpClient *http.Client, clk clock.Clock) *Client {
	if clk == nil {
		clk = clock.Real{}
	}
	fc := fetch.NewClient(fetch.Config{
		Name:        cfg.Name,
		BaseURL:     cfg.BaseURL,
		MinInterval: cfg.MinInterval,
		Backoff:     cfg.Backoff,
		MaxRetries:  cfg.MaxRetries,
	}, httpClient, clk)
	return &Client{cfg: cfg, fetch: fc, clock: clk}
}

// Name returns the configured provider name.
func (c *Client) Name() string { return c.cfg.Name }

// ListTradableInstruments は exchangeInfo から取引中の銘柄を返します。
// 先物では USDT 建ての無期限契約のみを対象にします。
func (c *Client) ListTradableInstruments(ctx context.Context) (entity.InstrumentSet, error) {
	body, err := c.fetch.Get(ctx, c.cfg.apiPrefix()+"/exchangeInfo", nil)
	if err != nil {
		return nil, fmt.Errorf("exchangeInfo: %w", err)
	}
	symbols := gjson.GetBytes(body, "symbols")
	if !symbols.IsArray() {
		return nil, fmt.Errorf("%s exchangeInfo: missing symbols array", c.cfg.Name)
	}

	set := make(entity.InstrumentSet)
	symbols.ForEach(func(_, s gjson.Result) bool {
		if s.Get("status").String() != "TRADING" {
			return true
		}
		if c.cfg.Market == Futures {
			if s.Get("contractType").String() != "PERPETUAL" || s.Get("quoteAsset").String() != "USDT" {
				return true
			}
		}
		set.Add(s.Get("symbol").String())
		return true
	})
	return set, nil
}

// Candidates は "{SYMBOL}{QUOTE}" をクォート優先順に返します。
func (c *Client) Candidates(req entity.SymbolRequest, quotes []string) []string {
	base := strings.ToUpper(req.Symbol)
	if base == "" {
		return nil
	}
	out := make([]string, 0, len(quotes))
	for _, q := range quotes {
		if c.cfg.Market == Futures && q != "USDT" {
			continue
		}
		out = append(out, base+strings.ToUpper(q))
	}
	return out
}

// FetchClosedCandles は /klines を取得し、closeTime が現在時刻以降の足を除外します。
// 行は [openTime, open, high, low, close, volume, closeTime, ...] 形式です。
func (c *Client) FetchClosedCandles(ctx context.Context, symbol string, g entity.Granularity, limit int) (entity.CandleSeries, error) {
	if limit <= 0 || limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", intervalToken(g))
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.fetch.Get(ctx, c.cfg.apiPrefix()+"/klines", q)
	if err != nil {
		return entity.CandleSeries{}, fmt.Errorf("klines %s: %w", symbol, err)
	}
	rows := gjson.ParseBytes(body)
	if !rows.IsArray() {
		return entity.CandleSeries{}, fmt.Errorf("%s klines %s: unexpected payload", c.cfg.Name, symbol)
	}

	nowMs := c.clock.Now().UnixMilli()
	candles := make([]entity.Candle, 0, len(rows.Array()))
	var parseErr error
	rows.ForEach(func(_, k gjson.Result) bool {
		if len(k.Array()) < 7 {
			parseErr = fmt.Errorf("%s klines %s: malformed row %s", c.cfg.Name, symbol, k.Raw)
			return false
		}
		// 形成中の足は closeTime が未来になる
		if k.Get("6").Int() >= nowMs {
			return true
		}
		candles = append(candles, entity.Candle{
			Time:   time.UnixMilli(k.Get("0").Int()).UTC(),
			Open:   k.Get("1").Float(),
			High:   k.Get("2").Float(),
			Low:    k.Get("3").Float(),
			Close:  k.Get("4").Float(),
			Volume: k.Get("5").Float(),
		})
		return true
	})
	if parseErr != nil {
		return entity.CandleSeries{}, parseErr
	}

	return entity.CandleSeries{
		Provider:    c.cfg.Name,
		Instrument:  symbol,
		Granularity: g,
		Candles:     series.Normalize(candles),
	}, nil
}

// intervalToken maps a granularity to the native kline interval.
func intervalToken(g entity.Granularity) string {
	switch g {
	case entity.FourHour:
		return "4h"
	case entity.Weekly:
		return "1w"
	default:
		return "1d"
	}
}
