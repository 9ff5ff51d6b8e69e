package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinanceFetchKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			[1767312000000, "100.0", "101.0", "99.0", "100.5", "12.5", 1767312059999],
			[1767312060000, "100.5", "102.0", "100.0", "101.5", "8.0", 1767312119999],
			["bad row"]
		]`))
	}))
	defer srv.Close()

	c := newBinance(srv.URL, "/api/v3/klines", "binance")
	bars, err := c.FetchKlines(context.Background(), "BTCUSDT", "1m", 500)
	require.NoError(t, err)
	require.Len(t, bars, 2, "malformed rows are skipped")

	assert.Equal(t, time.UnixMilli(1767312000000).UTC(), bars[0].Time)
	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 101.0, bars[0].High)
	assert.Equal(t, 99.0, bars[0].Low)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 12.5, bars[0].Volume)
}

func TestBinanceFetchKlinesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newBinance(srv.URL, "/api/v3/klines", "binance")
	_, err := c.FetchKlines(context.Background(), "NOPEUSDT", "1m", 10)
	assert.Error(t, err)
}

func TestMEXCFetchKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "SOLUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			[1767312000000, "150.0", "151.0", "149.0", "150.5", "20.0", 1767312059999, "3010.0"],
			["bad row"]
		]`))
	}))
	defer srv.Close()

	c := &mexcClient{base: srv.URL}
	bars, err := c.FetchKlines(context.Background(), "SOLUSDT", "1m", 500)
	require.NoError(t, err)
	require.Len(t, bars, 1, "malformed rows are skipped")

	assert.Equal(t, time.UnixMilli(1767312000000).UTC(), bars[0].Time)
	assert.Equal(t, 150.0, bars[0].Open)
	assert.Equal(t, 151.0, bars[0].High)
	assert.Equal(t, 149.0, bars[0].Low)
	assert.Equal(t, 150.5, bars[0].Close)
	assert.Equal(t, 20.0, bars[0].Volume)
}

func TestMEXCTopSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"symbol": "SOLUSDT", "quoteVolume": "900.0", "priceChangePercent": "1.5"},
			{"symbol": "BTCUSDT", "quoteVolume": "5000.0", "priceChangePercent": "-0.2"},
			{"symbol": "ETHBTC", "quoteVolume": "9999.0", "priceChangePercent": "4.0"},
			{"symbol": "DOGEUSDT", "quoteVolume": "10.0", "priceChangePercent": "30.0"}
		]`))
	}))
	defer srv.Close()

	c := &mexcClient{base: srv.URL}
	got, err := c.TopSymbols(context.Background(), 5, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "SOLUSDT"}, got, "non-USDT pairs and thin volume are dropped")
}

func TestSpotPerpFactories(t *testing.T) {
	for _, venue := range SpotVenues() {
		assert.NotNil(t, Spot(venue), "spot %s", venue)
	}
	for _, venue := range PerpVenues() {
		assert.NotNil(t, Perp(venue), "perp %s", venue)
	}
	assert.Nil(t, Spot("nope"))
	assert.Nil(t, Perp("kucoin"), "kucoin has no perp market")
}

func TestRankSymbols(t *testing.T) {
	rows := []tickerRow{
		{Symbol: "AUSDT", VolUSDT: 100, AbsChange: 1},
		{Symbol: "BUSDT", VolUSDT: 300, AbsChange: 2},
		{Symbol: "CUSDT", VolUSDT: 300, AbsChange: 9},
		{Symbol: "DUSDT", VolUSDT: 5, AbsChange: 50},
	}

	got := rankSymbols(rows, 3, 50)
	assert.Equal(t, []string{"CUSDT", "BUSDT", "AUSDT"}, got, "volume first, abs change breaks ties, floor drops the rest")

	got = rankSymbols(rows, 2, 0)
	assert.Equal(t, []string{"CUSDT", "BUSDT"}, got)
}

func TestIsUSDTPair(t *testing.T) {
	assert.True(t, isUSDTPair("BTCUSDT"))
	assert.False(t, isUSDTPair("USDT"))
	assert.False(t, isUSDTPair("BTCUSDC"))
}

func TestOKXInstID(t *testing.T) {
	assert.Equal(t, "BTC-USDT", newOKX(false).okxInstID("BTCUSDT"))
	assert.Equal(t, "BTC-USDT-SWAP", newOKX(true).okxInstID("BTCUSDT"))
}
