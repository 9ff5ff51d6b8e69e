package exchange

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"quickcap/internal/model"
)

const bybitURL = "https://api.bybit.com"

var bybitIntervals = map[string]string{
	"1m": "1", "3m": "3", "5m": "5", "15m": "15", "1h": "60",
}

type bybitClient struct {
	category string // "spot" or "linear"
}

func newBybit(category string) *bybitClient { return &bybitClient{category: category} }

func (c *bybitClient) Name() string {
	if c.category == "linear" {
		return "bybit-perp"
	}
	return "bybit"
}

// FetchKlines returns bars from Bybit v5 klines (newest-first string rows).
func (c *bybitClient) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error) {
	if limit > 1000 {
		limit = 1000
	}
	params := url.Values{}
	params.Set("category", c.category)
	params.Set("symbol", symbol)
	params.Set("interval", bybitIntervals[interval])
	params.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Result struct {
			List [][]string `json:"list"`
		} `json:"result"`
	}
	if err := getJSON(ctx, bybitURL, "/v5/market/kline", params, &resp); err != nil {
		return nil, err
	}

	bars := make([]model.Bar, 0, len(resp.Result.List))
	for i := len(resp.Result.List) - 1; i >= 0; i-- {
		row := resp.Result.List[i]
		if len(row) < 6 {
			continue
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		vals := make([]float64, 5)
		ok := true
		for j := 0; j < 5; j++ {
			if vals[j], err = strconv.ParseFloat(row[j+1], 64); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		bars = append(bars, model.Bar{
			Time:   time.UnixMilli(ts).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return bars, nil
}

// TopSymbols ranks Bybit spot USDT pairs by 24h turnover.
func (c *bybitClient) TopSymbols(ctx context.Context, topN int, minVolUSDT float64) ([]string, error) {
	params := url.Values{}
	params.Set("category", "spot")

	var resp struct {
		Result struct {
			List []struct {
				Symbol       string `json:"symbol"`
				Turnover24h  string `json:"turnover24h"`
				Price24hPcnt string `json:"price24hPcnt"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := getJSON(ctx, bybitURL, "/v5/market/tickers", params, &resp); err != nil {
		return nil, err
	}

	rows := make([]tickerRow, 0, len(resp.Result.List))
	for _, d := range resp.Result.List {
		if !isUSDTPair(d.Symbol) {
			continue
		}
		vol, err := strconv.ParseFloat(d.Turnover24h, 64)
		if err != nil {
			continue
		}
		chg, _ := strconv.ParseFloat(d.Price24hPcnt, 64)
		rows = append(rows, tickerRow{Symbol: d.Symbol, VolUSDT: vol, AbsChange: abs(chg) * 100})
	}
	return rankSymbols(rows, topN, minVolUSDT), nil
}
