package okx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/platform/clock"
)

var now = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.MinInterval = 0
	cfg.Backoff = time.Millisecond
	return NewClient(cfg, &http.Client{Timeout: 5 * time.Second}, clock.NewFake(now))
}

func row(ts time.Time, o, h, l, c, confirm string) string {
	return fmt.Sprintf(`["%d","%s","%s","%s","%s","10","20","30","%s"]`, ts.UnixMilli(), o, h, l, c, confirm)
}

func TestClient_ListTradableInstruments(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/public/instruments", r.URL.Path)
		assert.Equal(t, "SWAP", r.URL.Query().Get("instType"))
		_, _ = w.Write([]byte(`{"code":"0","msg":"","data":[
			{"instId":"BTC-USDT-SWAP","ctType":"linear","settleCcy":"USDT","state":"live"},
			{"instId":"BTC-USD-SWAP","ctType":"inverse","settleCcy":"BTC","state":"live"},
			{"instId":"ETH-USDC-SWAP","ctType":"linear","settleCcy":"USDC","state":"live"},
			{"instId":"NEW-USDT-SWAP","ctType":"linear","settleCcy":"USDT","state":"preopen"}
		]}`))
	}))
	defer srv.Close()

	set, err := newTestClient(t, srv.URL).ListTradableInstruments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.NewInstrumentSet("BTC-USDT-SWAP"), set)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchClosedCandles(context.Background(), "NOPE-USDT-SWAP", entity.Daily, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "51001")
}

func TestClient_Candidates(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "http://unused")
	assert.Equal(t, []string{"SOL-USDT-SWAP"}, c.Candidates(entity.SymbolRequest{Symbol: "sol"}, []string{"USDC", "USDT"}))
	assert.Nil(t, c.Candidates(entity.SymbolRequest{Symbol: "SOL"}, []string{"BTC"}))
}

func TestClient_FetchClosedCandles(t *testing.T) {
	t.Parallel()

	d := func(n int) time.Time { return time.Date(2025, 1, n, 0, 0, 0, 0, time.UTC) }

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/market/candles", r.URL.Path)
		assert.Equal(t, "BTC-USDT-SWAP", r.URL.Query().Get("instId"))
		assert.Equal(t, "1Dutc", r.URL.Query().Get("bar"))
		// newest first
		_, _ = fmt.Fprintf(w, `{"code":"0","msg":"","data":[%s,%s,%s]}`,
			row(d(15), "111", "120", "108", "119", "0"),
			row(d(14), "105", "112", "101", "111", "1"),
			row(d(13), "100", "110", "90", "105", "1"),
		)
	}))
	defer srv.Close()

	s, err := newTestClient(t, srv.URL).FetchClosedCandles(context.Background(), "BTC-USDT-SWAP", entity.Daily, 100)
	require.NoError(t, err)

	assert.Equal(t, Name, s.Provider)
	require.Len(t, s.Candles, 2)
	assert.Equal(t, entity.Candle{Time: d(13), Open: 100, High: 110, Low: 90, Close: 105, Volume: 10}, s.Candles[0])
	assert.Equal(t, d(14), s.Candles[1].Time)
}

func TestClient_FetchClosedCandles_ConfirmedButStillOpenIsDropped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4H", r.URL.Query().Get("bar"))
		_, _ = fmt.Fprintf(w, `{"code":"0","msg":"","data":[%s,%s]}`,
			row(time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC), "1", "2", "0.5", "1.5", "1"),
			row(time.Date(2025, 1, 15, 4, 0, 0, 0, time.UTC), "1", "2", "0.5", "1.5", "1"),
		)
	}))
	defer srv.Close()

	s, err := newTestClient(t, srv.URL).FetchClosedCandles(context.Background(), "BTC-USDT-SWAP", entity.FourHour, 100)
	require.NoError(t, err)
	require.Len(t, s.Candles, 1)
	assert.Equal(t, time.Date(2025, 1, 15, 4, 0, 0, 0, time.UTC), s.Candles[0].Time)
}
