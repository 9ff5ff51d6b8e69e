package exchange

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"quickcap/internal/model"
)

const mexcBaseURL = "https://api.mexc.com"

var mexcIntervals = map[string]string{
	"1m": "1m", "3m": "3m", "5m": "5m", "15m": "15m", "1h": "1h",
}

// mexcClient speaks MEXC's v3 REST API, which mirrors Binance's wire format
// for both klines and 24h tickers.
type mexcClient struct {
	base string
}

func newMEXC() *mexcClient { return &mexcClient{base: mexcBaseURL} }

func (c *mexcClient) Name() string { return "mexc" }

// FetchKlines parses rows shaped like Binance's: [openTimeMs, "o", "h", "l", "c", "v", ...].
func (c *mexcClient) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", mexcIntervals[interval])
	params.Set("limit", strconv.Itoa(limit))

	var rows [][]interface{}
	if err := getJSON(ctx, c.base, "/api/v3/klines", params, &rows); err != nil {
		return nil, err
	}

	bars := make([]model.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		ts, ok := row[0].(float64)
		if !ok {
			continue
		}
		vals, ok := parseStringFloats(row[1:6])
		if !ok {
			continue
		}
		bars = append(bars, model.Bar{
			Time:   time.UnixMilli(int64(ts)).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return bars, nil
}

// TopSymbols ranks USDT pairs by 24h quote volume.
func (c *mexcClient) TopSymbols(ctx context.Context, topN int, minVolUSDT float64) ([]string, error) {
	var data []struct {
		Symbol             string `json:"symbol"`
		QuoteVolume        string `json:"quoteVolume"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := getJSON(ctx, c.base, "/api/v3/ticker/24hr", nil, &data); err != nil {
		return nil, err
	}

	rows := make([]tickerRow, 0, len(data))
	for _, d := range data {
		if !isUSDTPair(d.Symbol) {
			continue
		}
		vol, err1 := strconv.ParseFloat(d.QuoteVolume, 64)
		chg, err2 := strconv.ParseFloat(d.PriceChangePercent, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		rows = append(rows, tickerRow{Symbol: d.Symbol, VolUSDT: vol, AbsChange: abs(chg)})
	}
	return rankSymbols(rows, topN, minVolUSDT), nil
}
