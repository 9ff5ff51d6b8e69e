// Package outcome computes after-the-fact performance metrics for recorded
// signals: directional return plus maximum favorable and adverse excursion
// at fixed forward horizons.
package outcome

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"quickcap/internal/exchange"
	"quickcap/internal/model"
	"quickcap/internal/store"
)

// ErrInvalidHorizon flags a non-positive horizon in configuration, a config
// bug, not a market condition.
var ErrInvalidHorizon = errors.New("outcome: horizon minutes must be positive")

// ErrBadInterval flags an interval string the evaluator cannot convert to a
// bar step.
var ErrBadInterval = errors.New("outcome: unsupported interval")

// DefaultHorizons are the forward windows, in minutes, evaluated per signal.
var DefaultHorizons = []int{15, 30, 60}

// intervalMinutes converts a bar interval to its step in minutes.
func intervalMinutes(interval string) (int, error) {
	switch interval {
	case "1m":
		return 1, nil
	case "3m":
		return 3, nil
	case "5m":
		return 5, nil
	case "15m":
		return 15, nil
	case "1h":
		return 60, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadInterval, interval)
}

// Evaluator walks signals forward through refreshed bar data.
type Evaluator struct {
	horizons []int
	lookback int
	sink     store.Store
}

// NewEvaluator validates the horizon set up front so a misconfigured job
// fails loudly instead of producing garbage rows.
func NewEvaluator(horizons []int, lookback int, sink store.Store) (*Evaluator, error) {
	if len(horizons) == 0 {
		horizons = DefaultHorizons
	}
	for _, h := range horizons {
		if h <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, h)
		}
	}
	if lookback <= 0 {
		lookback = 500
	}
	return &Evaluator{horizons: horizons, lookback: lookback, sink: sink}, nil
}

// Group identifies one batch of signals sharing bar data.
type Group struct {
	Venue    string
	Symbol   string
	Interval string
}

// EvaluateGroup computes and upserts outcomes for every stored signal of one
// (venue, symbol, interval) key. Returns the number of rows written.
func (e *Evaluator) EvaluateGroup(ctx context.Context, client exchange.Client, g Group) (int, error) {
	step, err := intervalMinutes(g.Interval)
	if err != nil {
		return 0, err
	}

	signals, err := e.sink.SignalsFor(g.Venue, g.Symbol, g.Interval)
	if err != nil {
		return 0, fmt.Errorf("load signals: %w", err)
	}
	if len(signals) == 0 {
		return 0, nil
	}

	bars, err := client.FetchKlines(ctx, g.Symbol, g.Interval, e.lookback)
	if err != nil {
		log.Debug().Err(err).Str("symbol", g.Symbol).Msg("outcome fetch degraded to empty series")
		bars = nil
	}
	bars = model.Sanitize(bars)
	if len(bars) == 0 {
		return 0, nil
	}

	rows := make([]model.Outcome, 0, len(signals)*len(e.horizons))
	for _, sig := range signals {
		rows = append(rows, e.evaluateSignal(bars, &sig, step)...)
	}
	if err := e.sink.UpsertOutcomes(rows); err != nil {
		return 0, fmt.Errorf("upsert outcomes: %w", err)
	}
	return len(rows), nil
}

// evaluateSignal locates the signal's entry bar and derives one outcome per
// horizon. A signal timestamped after the last bar is skipped entirely; a
// horizon reaching past the series end uses the truncated window.
func (e *Evaluator) evaluateSignal(bars []model.Bar, sig *model.Signal, stepMin int) []model.Outcome {
	n := len(bars)
	sigMs := sig.Time.UnixMilli()
	idx := sort.Search(n, func(i int) bool { return bars[i].Time.UnixMilli() >= sigMs })
	if idx == n {
		return nil
	}

	// Next-bar-open entry: the close that produced the signal is not a
	// tradable price.
	entryIdx := idx + 1
	if entryIdx > n-1 {
		entryIdx = n - 1
	}
	entry := bars[entryIdx].Open
	dir := sig.Side.Dir()

	out := make([]model.Outcome, 0, len(e.horizons))
	for _, h := range e.horizons {
		span := h / stepMin
		if span < 1 {
			span = 1
		}
		exitIdx := entryIdx + span
		if exitIdx > n-1 {
			exitIdx = n - 1
		}

		exit := bars[exitIdx].Close
		ret := (exit/entry - 1) * dir

		hi, lo := math.Inf(-1), math.Inf(1)
		for i := entryIdx; i <= exitIdx; i++ {
			if bars[i].High > hi {
				hi = bars[i].High
			}
			if bars[i].Low < lo {
				lo = bars[i].Low
			}
		}
		var mfe, mae float64
		if dir > 0 {
			mfe = hi/entry - 1
			mae = entry/lo - 1
		} else {
			mfe = entry/lo - 1
			mae = hi/entry - 1
		}

		out = append(out, model.Outcome{
			SignalID:   sig.ID,
			HorizonMin: h,
			EntryPrice: entry,
			ExitPrice:  exit,
			Ret:        ret,
			MaxFav:     math.Max(0, mfe),
			MaxAdv:     math.Max(0, mae),
		})
	}
	return out
}

// Run evaluates many groups, in parallel up to concurrency, finishing the
// current group on cancellation and abandoning the rest. Returns total rows
// written. Upsert writes serialize inside the store per run, so concurrent
// groups cannot race on the (signal, horizon) key.
func (e *Evaluator) Run(ctx context.Context, clients map[string]exchange.Client, groups []Group, concurrency int) int {
	if concurrency <= 0 {
		concurrency = 1
	}
	var (
		mu    sync.Mutex
		total int
		wg    sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for _, g := range groups {
		if ctx.Err() != nil {
			break
		}
		client := clients[g.Venue]
		if client == nil {
			log.Warn().Str("venue", g.Venue).Msg("no client for venue, skipping outcomes")
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(g Group) {
			defer wg.Done()
			defer func() { <-sem }()

			n, err := e.EvaluateGroup(ctx, client, g)
			if err != nil {
				log.Warn().Err(err).Str("venue", g.Venue).Str("symbol", g.Symbol).Msg("outcome evaluation failed")
				return
			}
			mu.Lock()
			total += n
			mu.Unlock()
		}(g)
	}
	wg.Wait()
	return total
}
