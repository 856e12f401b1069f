package okx

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

// Name is the provider identifier.
const Name = "okx"

// maxCandleLimit is the page size ceiling of /market/candles.
const maxCandleLimit = 300

// Client はOKXの無期限スワップ（USDT建て・リニア）を扱います。
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
		Name:        Name,
		BaseURL:     cfg.BaseURL,
		MinInterval: cfg.MinInterval,
		Backoff:     cfg.Backoff,
		MaxRetries:  cfg.MaxRetries,
	}, httpClient, clk)
	return &Client{cfg: cfg, fetch: fc, clock: clk}
}

// Name returns "okx".
func (c *Client) Name() string { return Name }

// data はOKXのエンベロープ {"code":"0","msg":"","data":[...]} を検証し data を返します。
func (c *Client) data(ctx context.Context, path string, q url.Values) (gjson.Result, error) {
	body, err := c.fetch.Get(ctx, path, q)
	if err != nil {
		return gjson.Result{}, err
	}
	env := gjson.ParseBytes(body)
	if code := env.Get("code").String(); code != "0" {
		return gjson.Result{}, fmt.Errorf("%s %s: code %s: %s", Name, path, code, env.Get("msg").String())
	}
	return env.Get("data"), nil
}

// ListTradableInstruments は稼働中のUSDT建てリニアスワップの instId を返します。
func (c *Client) ListTradableInstruments(ctx context.Context) (entity.InstrumentSet, error) {
	data, err := c.data(ctx, "/api/v5/public/instruments", url.Values{"instType": {"SWAP"}})
	if err != nil {
		return nil, fmt.Errorf("instruments: %w", err)
	}
	set := make(entity.InstrumentSet)
	data.ForEach(func(_, in gjson.Result) bool {
		if in.Get("ctType").String() == "linear" &&
			in.Get("settleCcy").String() == "USDT" &&
			in.Get("state").String() == "live" {
			set.Add(in.Get("instId").String())
		}
		return true
	})
	return set, nil
}

// Candidates は "{SYMBOL}-USDT-SWAP" を返します。USDT以外のクォートは無視します。
func (c *Client) Candidates(req entity.SymbolRequest, quotes []string) []string {
	base := strings.ToUpper(req.Symbol)
	if base == "" {
		return nil
	}
	for _, q := range quotes {
		if strings.EqualFold(q, "USDT") {
			return []string{base + "-USDT-SWAP"}
		}
	}
	return nil
}

// FetchClosedCandles は /market/candles を取得します。行は新しい順
// [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm] で、confirm=0 は未確定の足です。
func (c *Client) FetchClosedCandles(ctx context.Context, instID string, g entity.Granularity, limit int) (entity.CandleSeries, error) {
	if limit <= 0 || limit > maxCandleLimit {
		limit = maxCandleLimit
	}
	q := url.Values{}
	q.Set("instId", instID)
	q.Set("bar", barToken(g))
	q.Set("limit", strconv.Itoa(limit))

	data, err := c.data(ctx, "/api/v5/market/candles", q)
	if err != nil {
		return entity.CandleSeries{}, fmt.Errorf("candles %s: %w", instID, err)
	}

	candles := make([]entity.Candle, 0, len(data.Array()))
	var parseErr error
	data.ForEach(func(_, row gjson.Result) bool {
		if len(row.Array()) < 9 {
			parseErr = fmt.Errorf("%s candles %s: malformed row %s", Name, instID, row.Raw)
			return false
		}
		if row.Get("8").String() != "1" {
			return true
		}
		candles = append(candles, entity.Candle{
			Time:   time.UnixMilli(row.Get("0").Int()).UTC(),
			Open:   row.Get("1").Float(),
			High:   row.Get("2").Float(),
			Low:    row.Get("3").Float(),
			Close:  row.Get("4").Float(),
			Volume: row.Get("5").Float(),
		})
		return true
	})
	if parseErr != nil {
		return entity.CandleSeries{}, parseErr
	}

	// confirm フラグに加えて時刻でも確定判定する
	closed := series.DropUnclosed(series.Normalize(candles), g, c.clock.Now())
	return entity.CandleSeries{
		Provider:    Name,
		Instrument:  instID,
		Granularity: g,
		Candles:     closed,
	}, nil
}

// barToken maps a granularity to the OKX bar with UTC alignment.
func barToken(g entity.Granularity) string {
	switch g {
	case entity.FourHour:
		return "4H"
	case entity.Weekly:
		return "1Wutc"
	default:
		return "1Dutc"
	}
}
