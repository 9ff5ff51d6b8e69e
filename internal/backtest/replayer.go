// Package backtest replays historical bar series through the live trigger
// and scoring rules without lookahead, recording signals and paper fills.
package backtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"quickcap/internal/exchange"
	"quickcap/internal/model"
	"quickcap/internal/policy"
	"quickcap/internal/store"
	"quickcap/internal/strategy"
)

// Config parameterizes one backtest run.
type Config struct {
	Venue       string
	Symbols     []string
	Interval    string
	Lookback    int
	MinScore    float64
	Cooldown    time.Duration
	MinBars     int // series shorter than this short-circuit to zero counts
	Concurrency int // symbols replayed in parallel
	Features    strategy.Params
}

// DefaultConfig mirrors the production backtester settings.
func DefaultConfig() Config {
	return Config{
		Interval:    "1m",
		Lookback:    1000,
		MinScore:    2.3,
		Cooldown:    180 * time.Second,
		MinBars:     50,
		Concurrency: 4,
		Features:    strategy.DefaultParams(),
	}
}

// Totals summarizes a run.
type Totals struct {
	Signals    int `json:"signals"`
	Executions int `json:"executions"`
}

// Replayer walks pre-fetched bar series forward bar-by-bar.
type Replayer struct {
	cfg   Config
	fetch exchange.Client
	sink  store.Store
	cool  *policy.CooldownStore
}

// NewReplayer builds a replayer. The cooldown store is per-run state: two
// runs never share alert timing.
func NewReplayer(cfg Config, client exchange.Client, sink store.Store) *Replayer {
	if cfg.MinBars <= 0 {
		cfg.MinBars = 50
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Replayer{cfg: cfg, fetch: client, sink: sink, cool: policy.NewCooldownStore()}
}

// warmupIndex picks the first replay step: enough history for indicator
// warmup, scaled mildly with series length.
func warmupIndex(n int) int {
	w := n / 50
	if w > 200 {
		w = 200
	}
	if w < 50 {
		w = 50
	}
	return w
}

// Run replays every configured symbol. Distinct symbols operate on
// independent data, so they run concurrently up to the configured limit.
// Cancellation is cooperative between symbols: a symbol already replaying
// finishes and keeps its counts, symbols not yet started are abandoned.
// Per-symbol failures are logged and skipped, never aborting the whole run.
func (r *Replayer) Run(ctx context.Context) Totals {
	var (
		mu     sync.Mutex
		totals Totals
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, r.cfg.Concurrency)

	for _, symbol := range r.cfg.Symbols {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}

			nSig, nExec, err := r.RunSymbol(ctx, symbol)
			if err != nil {
				log.Warn().Err(err).Str("venue", r.cfg.Venue).Str("symbol", symbol).Msg("replay failed, skipping symbol")
				return
			}
			mu.Lock()
			totals.Signals += nSig
			totals.Executions += nExec
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()
	return totals
}

// RunSymbol replays one symbol and returns signal/execution counts.
//
// Every step recomputes features over bars[0:i+1] only; appending future
// bars can never change a past decision. An accepted signal is priced at the
// current bar and filled at the next bar's open; when no next bar exists the
// fill is dropped.
func (r *Replayer) RunSymbol(ctx context.Context, symbol string) (nSig, nExec int, err error) {
	bars, err := r.fetch.FetchKlines(ctx, symbol, r.cfg.Interval, r.cfg.Lookback)
	if err != nil {
		// Degrade to an empty series: insufficient data, not a hard failure.
		log.Debug().Err(err).Str("symbol", symbol).Msg("fetch degraded to empty series")
		bars = nil
	}
	bars = model.Sanitize(bars)
	if len(bars) < r.cfg.MinBars {
		return 0, 0, nil
	}

	for i := warmupIndex(len(bars)); i < len(bars); i++ {
		window := bars[:i+1]
		row, ok := strategy.LatestFeature(window, r.cfg.Features)
		if !ok {
			continue
		}
		triggers, side, cat := strategy.AssembleTriggers(row)
		if len(triggers) == 0 || row.Score < r.cfg.MinScore {
			continue
		}

		barTime := row.Bar.Time
		key := r.cfg.Venue + "::" + symbol
		if !r.cool.OK(key, barTime, r.cfg.Cooldown) {
			continue
		}

		sig := &model.Signal{
			Time:     barTime,
			Type:     model.SignalSpot,
			Venue:    r.cfg.Venue,
			Symbol:   symbol,
			Interval: r.cfg.Interval,
			Side:     side,
			Price:    row.Bar.Close,
			VWAP:     row.VWAP,
			RSI:      row.RSI,
			Score:    row.Score,
			Triggers: triggers,
			Category: cat,
		}
		if _, err := r.sink.InsertSignal(sig); err != nil {
			return nSig, nExec, fmt.Errorf("insert signal: %w", err)
		}
		nSig++

		if i+1 < len(bars) {
			next := bars[i+1]
			exec := &model.Execution{
				Time:    next.Time,
				Venue:   "PAPER",
				Symbol:  symbol,
				Side:    side,
				Price:   next.Open,
				Score:   row.Score,
				Reason:  strings.Join(triggers, ", "),
				IsPaper: true,
			}
			if err := r.sink.InsertExecution(exec); err != nil {
				return nSig, nExec, fmt.Errorf("insert execution: %w", err)
			}
			nExec++
		}
	}
	return nSig, nExec, nil
}
