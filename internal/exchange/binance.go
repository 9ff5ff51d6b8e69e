package exchange

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"quickcap/internal/model"
)

const (
	binanceSpotURL = "https://api.binance.com"
	binancePerpURL = "https://fapi.binance.com"
)

var binanceIntervals = map[string]string{
	"1m": "1m", "3m": "3m", "5m": "5m", "15m": "15m", "1h": "1h",
}

type binanceClient struct {
	base string
	path string
	name string
}

func newBinance(base, path, name string) *binanceClient {
	return &binanceClient{base: base, path: path, name: name}
}

func (c *binanceClient) Name() string { return c.name }

// FetchKlines parses Binance kline rows: [openTimeMs, "o", "h", "l", "c", "v", ...].
// Error payloads come back as a JSON object, which fails the array decode and
// surfaces as an error like any other bad response.
func (c *binanceClient) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", binanceIntervals[interval])
	params.Set("limit", strconv.Itoa(limit))

	var rows [][]interface{}
	if err := getJSON(ctx, c.base, c.path, params, &rows); err != nil {
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
func (c *binanceClient) TopSymbols(ctx context.Context, topN int, minVolUSDT float64) ([]string, error) {
	var data []struct {
		Symbol             string `json:"symbol"`
		QuoteVolume        string `json:"quoteVolume"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := getJSON(ctx, binanceSpotURL, "/api/v3/ticker/24hr", nil, &data); err != nil {
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

func parseStringFloats(cells []interface{}) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, cell := range cells {
		s, ok := cell.(string)
		if !ok {
			return nil, false
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func isUSDTPair(symbol string) bool {
	return len(symbol) > 4 && symbol[len(symbol)-4:] == "USDT"
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
