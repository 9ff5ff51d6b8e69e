// Package exchange provides public-market-data clients for the venues the
// scanner watches. All clients are read-only and unauthenticated.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"quickcap/internal/model"
)

// Client fetches candlestick data for one market (spot or perp) of a venue.
type Client interface {
	// FetchKlines returns up to limit bars for the symbol/interval, oldest
	// last or first; callers sanitize ordering. Transient failures should
	// surface as errors; callers degrade them to empty series.
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error)
	Name() string
}

// Lister enumerates the venue's most active USDT symbols.
type Lister interface {
	TopSymbols(ctx context.Context, topN int, minVolUSDT float64) ([]string, error)
}

// Spot returns a spot-market client for the venue, or nil when unsupported.
func Spot(venue string) Client {
	switch venue {
	case "binance":
		return newBinance(binanceSpotURL, "/api/v3/klines", "binance")
	case "mexc":
		return newMEXC()
	case "okx":
		return newOKX(false)
	case "bybit":
		return newBybit("spot")
	case "kucoin":
		return newKuCoin()
	}
	return nil
}

// Perp returns a perpetual-market client for the venue, or nil when the
// venue has no perp market we support.
func Perp(venue string) Client {
	switch venue {
	case "binance":
		return newBinance(binancePerpURL, "/fapi/v1/klines", "binance-perp")
	case "okx":
		return newOKX(true)
	case "bybit":
		return newBybit("linear")
	}
	return nil
}

// SpotVenues lists the venues Spot supports, in scan order.
func SpotVenues() []string { return []string{"kucoin", "mexc", "binance", "okx", "bybit"} }

// PerpVenues lists the venues with both spot and perp support.
func PerpVenues() []string { return []string{"binance", "okx", "bybit"} }

// httpClient is shared across adapters: one connection pool, a uniform
// timeout, and a per-process rate limit so a wide symbol scan cannot hammer
// any venue.
var (
	httpClient = &http.Client{Timeout: 15 * time.Second}
	limiter    = rate.NewLimiter(rate.Limit(8), 16)
)

// getJSON performs a rate-limited GET and decodes the JSON body into dst.
func getJSON(ctx context.Context, base, path string, params url.Values, dst interface{}) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	u := base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("get %s: status %d, body: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// tickerRow is one symbol's 24h stats used for hot-symbol ranking.
type tickerRow struct {
	Symbol    string
	VolUSDT   float64
	AbsChange float64
}

// rankSymbols sorts by quote volume then absolute 24h change and applies the
// volume floor and count cap.
func rankSymbols(rows []tickerRow, topN int, minVolUSDT float64) []string {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].VolUSDT != rows[j].VolUSDT {
			return rows[i].VolUSDT > rows[j].VolUSDT
		}
		return rows[i].AbsChange > rows[j].AbsChange
	})
	out := make([]string, 0, topN)
	for _, r := range rows {
		if r.VolUSDT >= minVolUSDT {
			out = append(out, r.Symbol)
		}
		if len(out) >= topN {
			break
		}
	}
	return out
}
