package exchange

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quickcap/internal/model"
)

const okxURL = "https://www.okx.com"

var okxIntervals = map[string]string{
	"1m": "1m", "3m": "3m", "5m": "5m", "15m": "15m", "1h": "1H",
}

type okxClient struct {
	perp bool
}

func newOKX(perp bool) *okxClient { return &okxClient{perp: perp} }

func (c *okxClient) Name() string {
	if c.perp {
		return "okx-perp"
	}
	return "okx"
}

// okxInstID converts a venue-agnostic symbol to an OKX instrument id:
// BTCUSDT -> BTC-USDT (spot) or BTC-USDT-SWAP (perp).
func (c *okxClient) okxInstID(symbol string) string {
	inst := strings.Replace(symbol, "USDT", "-USDT", 1)
	if c.perp {
		inst += "-SWAP"
	}
	return inst
}

// FetchKlines returns bars from OKX candles, which arrive newest-first as
// string arrays: [tsMs, o, h, l, c, vol, ...].
func (c *okxClient) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error) {
	params := url.Values{}
	params.Set("instId", c.okxInstID(symbol))
	params.Set("bar", okxIntervals[interval])
	params.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Data [][]string `json:"data"`
	}
	if err := getJSON(ctx, okxURL, "/api/v5/market/candles", params, &resp); err != nil {
		return nil, err
	}

	bars := make([]model.Bar, 0, len(resp.Data))
	for i := len(resp.Data) - 1; i >= 0; i-- {
		row := resp.Data[i]
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

// TopSymbols ranks OKX spot USDT pairs by 24h quote-currency volume.
func (c *okxClient) TopSymbols(ctx context.Context, topN int, minVolUSDT float64) ([]string, error) {
	params := url.Values{}
	params.Set("instType", "SPOT")

	var resp struct {
		Data []struct {
			InstID   string `json:"instId"`
			VolCcy   string `json:"volCcy24h"`
			Change   string `json:"change24h"`
		} `json:"data"`
	}
	if err := getJSON(ctx, okxURL, "/api/v5/market/tickers", params, &resp); err != nil {
		return nil, err
	}

	rows := make([]tickerRow, 0, len(resp.Data))
	for _, d := range resp.Data {
		if !strings.HasSuffix(d.InstID, "-USDT") {
			continue
		}
		vol, err := strconv.ParseFloat(d.VolCcy, 64)
		if err != nil {
			continue
		}
		chg, _ := strconv.ParseFloat(d.Change, 64)
		sym := strings.ReplaceAll(d.InstID, "-", "")
		rows = append(rows, tickerRow{Symbol: sym, VolUSDT: vol, AbsChange: abs(chg)})
	}
	return rankSymbols(rows, topN, minVolUSDT), nil
}
