// Package paper simulates trade execution. Nothing here touches a real
// exchange account.
package paper

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"quickcap/internal/model"
)

// Executor records paper fills, capping the simulated exposure carried per
// symbol so a noisy symbol cannot dominate the book.
type Executor struct {
	mu         sync.Mutex
	maxPosUSDT float64
	exposure   map[string]float64 // symbol -> notional currently held
}

// NewExecutor creates a paper executor with a per-symbol notional cap.
func NewExecutor(maxPosUSDT float64) *Executor {
	if maxPosUSDT <= 0 {
		maxPosUSDT = 200
	}
	return &Executor{maxPosUSDT: maxPosUSDT, exposure: make(map[string]float64)}
}

// Submit produces a paper execution record, sized at the smaller of the
// per-symbol cap and the remaining headroom. Returns nil when the symbol is
// already at its cap.
func (e *Executor) Submit(symbol string, side model.Side, price, score float64, reason string) *model.Execution {
	e.mu.Lock()
	defer e.mu.Unlock()

	headroom := e.maxPosUSDT - e.exposure[symbol]
	if headroom <= 0 {
		log.Debug().Str("symbol", symbol).Msg("paper position cap reached, skipping fill")
		return nil
	}
	e.exposure[symbol] += headroom

	rec := &model.Execution{
		Time:    time.Now().UTC(),
		Venue:   "PAPER",
		Symbol:  symbol,
		Side:    side,
		Price:   price,
		Score:   score,
		Reason:  reason,
		IsPaper: true,
	}
	log.Info().
		Str("symbol", symbol).
		Str("side", string(side)).
		Float64("price", price).
		Float64("score", score).
		Str("reason", reason).
		Msg("paper execution")
	return rec
}

// Release frees a symbol's simulated exposure, e.g. when a horizon expires.
func (e *Executor) Release(symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.exposure, symbol)
}

// Exposure reports the notional currently held for a symbol.
func (e *Executor) Exposure(symbol string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exposure[symbol]
}
