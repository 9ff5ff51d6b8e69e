package exchange

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quickcap/internal/model"
)

const kucoinURL = "https://api.kucoin.com"

var kucoinIntervals = map[string]string{
	"1m": "1min", "3m": "3min", "5m": "5min", "15m": "15min", "1h": "1hour",
}

type kucoinClient struct{}

func newKuCoin() *kucoinClient { return &kucoinClient{} }

func (c *kucoinClient) Name() string { return "kucoin" }

// FetchKlines returns bars from KuCoin candles. Rows are newest-first string
// arrays [tsSec, open, close, high, low, volume, turnover]. Note the
// close-before-high ordering and second-resolution timestamps.
func (c *kucoinClient) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error) {
	params := url.Values{}
	params.Set("symbol", strings.Replace(symbol, "USDT", "-USDT", 1))
	params.Set("type", kucoinIntervals[interval])

	var resp struct {
		Data [][]string `json:"data"`
	}
	if err := getJSON(ctx, kucoinURL, "/api/v1/market/candles", params, &resp); err != nil {
		return nil, err
	}

	data := resp.Data
	if len(data) > limit {
		data = data[:limit]
	}
	bars := make([]model.Bar, 0, len(data))
	for i := len(data) - 1; i >= 0; i-- {
		row := data[i]
		if len(row) < 6 {
			continue
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		o, err1 := strconv.ParseFloat(row[1], 64)
		cl, err2 := strconv.ParseFloat(row[2], 64)
		h, err3 := strconv.ParseFloat(row[3], 64)
		l, err4 := strconv.ParseFloat(row[4], 64)
		v, err5 := strconv.ParseFloat(row[5], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: v,
		})
	}
	return bars, nil
}

// TopSymbols ranks KuCoin USDT pairs by 24h quote volume.
func (c *kucoinClient) TopSymbols(ctx context.Context, topN int, minVolUSDT float64) ([]string, error) {
	var resp struct {
		Data struct {
			Ticker []struct {
				Symbol     string `json:"symbol"`
				VolValue   string `json:"volValue"`
				ChangeRate string `json:"changeRate"`
			} `json:"ticker"`
		} `json:"data"`
	}
	if err := getJSON(ctx, kucoinURL, "/api/v1/market/allTickers", nil, &resp); err != nil {
		return nil, err
	}

	rows := make([]tickerRow, 0, len(resp.Data.Ticker))
	for _, d := range resp.Data.Ticker {
		if !strings.HasSuffix(d.Symbol, "-USDT") {
			continue
		}
		vol, err := strconv.ParseFloat(d.VolValue, 64)
		if err != nil {
			continue
		}
		chg, _ := strconv.ParseFloat(d.ChangeRate, 64)
		sym := strings.ReplaceAll(d.Symbol, "-", "")
		rows = append(rows, tickerRow{Symbol: sym, VolUSDT: vol, AbsChange: abs(chg) * 100})
	}
	return rankSymbols(rows, topN, minVolUSDT), nil
}
