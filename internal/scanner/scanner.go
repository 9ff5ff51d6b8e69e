// Package scanner runs the live scan loop: fetch fresh bars per venue and
// symbol, evaluate triggers and score, then gate, persist, notify, and paper
// trade the survivors.
package scanner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"quickcap/internal/basis"
	"quickcap/internal/config"
	"quickcap/internal/exchange"
	"quickcap/internal/model"
	"quickcap/internal/notifier"
	"quickcap/internal/outcome"
	"quickcap/internal/paper"
	"quickcap/internal/policy"
	"quickcap/internal/store"
	"quickcap/internal/strategy"
)

// Scanner orchestrates one scanning session. Cooldown and policy state are
// scoped to the scanner instance, not the process.
type Scanner struct {
	cfg      *config.Config
	sink     store.Store
	notify   *notifier.DiscordNotifier
	gate     *policy.TradingPolicy
	executor *paper.Executor
	cool     *policy.CooldownStore
	features strategy.Params
}

// New wires a scanner from configuration.
func New(cfg *config.Config, sink store.Store, notify *notifier.DiscordNotifier) *Scanner {
	features := strategy.DefaultParams()
	features.MomentumZ = cfg.Scan.MomentumZ

	gate := policy.NewTradingPolicy(policy.Config{
		Event:         policy.Limits{MinScore: cfg.Policy.MinEventScore, Cooldown: time.Duration(cfg.Policy.EventCooldown) * time.Second},
		MeanReversion: policy.Limits{MinScore: cfg.Policy.MinRSIScore, Cooldown: time.Duration(cfg.Policy.RSICooldown) * time.Second},
		Momentum:      policy.Limits{MinScore: cfg.Policy.MinMomoScore, Cooldown: time.Duration(cfg.Policy.MomoCooldown) * time.Second},
		FlipBonus:     cfg.Policy.FlipBonus,
	})

	return &Scanner{
		cfg:      cfg,
		sink:     sink,
		notify:   notify,
		gate:     gate,
		executor: paper.NewExecutor(cfg.MaxPosUSDT),
		cool:     policy.NewCooldownStore(),
		features: features,
	}
}

// ScanOnce runs one full pass over all venues and symbols.
func (s *Scanner) ScanOnce(ctx context.Context) {
	symbolsByVenue := s.resolveSymbols(ctx)

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.Scan.Concurrency)

	for _, venue := range s.cfg.Exchanges {
		client := exchange.Spot(venue)
		if client == nil {
			log.Warn().Str("venue", venue).Msg("unsupported venue, skipping")
			continue
		}
		for _, symbol := range symbolsByVenue[venue] {
			if ctx.Err() != nil {
				wg.Wait()
				return
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(venue, symbol string, client exchange.Client) {
				defer wg.Done()
				defer func() { <-sem }()
				s.processSpot(ctx, venue, client, symbol)
			}(venue, symbol, client)
		}
	}
	wg.Wait()

	if s.cfg.SpotPerp.Enabled {
		for _, venue := range s.cfg.SpotPerp.Exchanges {
			for _, symbol := range symbolsByVenue[venue] {
				if ctx.Err() != nil {
					return
				}
				s.processBasis(ctx, venue, symbol)
			}
		}
	}
}

// resolveSymbols returns the per-venue symbol lists, from the hotlist when
// enabled and from static config otherwise (or when a venue's hotlist is
// empty).
func (s *Scanner) resolveSymbols(ctx context.Context) map[string][]string {
	out := make(map[string][]string)
	var hot map[string][]string
	if s.cfg.Hotlist.Enabled {
		hot = exchange.BuildHotmap(ctx, s.cfg.Exchanges, exchange.HotlistOptions{
			TopN:       s.cfg.Hotlist.TopN,
			MinVolUSDT: s.cfg.Hotlist.MinVolUSDT,
			Force:      s.cfg.Hotlist.Force,
			Exclude:    s.cfg.Hotlist.Exclude,
		})
	}
	venues := append([]string{}, s.cfg.Exchanges...)
	venues = append(venues, s.cfg.SpotPerp.Exchanges...)
	for _, venue := range venues {
		if syms := hot[venue]; len(syms) > 0 {
			out[venue] = syms
		} else {
			out[venue] = s.cfg.Symbols
		}
	}
	return out
}

func (s *Scanner) fetchBars(ctx context.Context, client exchange.Client, symbol string) []model.Bar {
	bars, err := client.FetchKlines(ctx, symbol, s.cfg.Interval, s.cfg.Lookback)
	if err != nil {
		log.Debug().Err(err).Str("venue", client.Name()).Str("symbol", symbol).Msg("fetch failed, treating as empty")
		return nil
	}
	return model.Sanitize(bars)
}

func (s *Scanner) processSpot(ctx context.Context, venue string, client exchange.Client, symbol string) {
	bars := s.fetchBars(ctx, client, symbol)
	if len(bars) < 50 {
		return
	}
	if s.cfg.Scan.RiskOff {
		return
	}

	row, ok := strategy.LatestFeature(bars, s.features)
	if !ok {
		return
	}
	triggers, side, cat := strategy.AssembleTriggers(row)
	if len(triggers) == 0 || row.Score < s.cfg.Scan.MinScore {
		return
	}

	now := time.Now()
	cooldown := time.Duration(s.cfg.Scan.CooldownSec) * time.Second
	if !s.cool.OK(venue+"::"+symbol, now, cooldown) {
		return
	}

	sig := &model.Signal{
		Time:     row.Bar.Time,
		Type:     model.SignalSpot,
		Venue:    venue,
		Symbol:   symbol,
		Interval: s.cfg.Interval,
		Side:     side,
		Price:    row.Bar.Close,
		VWAP:     row.VWAP,
		RSI:      row.RSI,
		Score:    row.Score,
		Triggers: triggers,
		Category: cat,
	}
	s.emit(ctx, sig)
}

func (s *Scanner) processBasis(ctx context.Context, venue, symbol string) {
	spotClient, perpClient := exchange.Spot(venue), exchange.Perp(venue)
	if spotClient == nil || perpClient == nil {
		return
	}
	spotBars := s.fetchBars(ctx, spotClient, symbol)
	perpBars := s.fetchBars(ctx, perpClient, symbol)

	res := basis.Compute(spotBars, perpBars, basis.Params{
		ToleranceSec: s.cfg.SpotPerp.TolSec,
		ZWindow:      s.cfg.SpotPerp.ZWindow,
		ZThreshold:   s.cfg.SpotPerp.ZThreshold,
		RSIPeriod:    s.features.RSIPeriod,
	})
	if !res.OK || len(res.Triggers) == 0 {
		return
	}

	sig := &model.Signal{
		Time:     time.Now().UTC(),
		Type:     model.SignalBasis,
		Venue:    venue,
		Symbol:   symbol,
		Interval: s.cfg.Interval,
		Side:     res.FallbackSide(),
		Price:    res.SpotClose,
		VWAP:     res.SpotVWAP,
		RSI:      res.SpotRSI,
		Score:    res.Score,
		Triggers: res.Triggers,
		Category: res.Category,
		BasisPct: res.BasisPct,
		BasisZ:   res.BasisZ,
	}
	s.emit(ctx, sig)
}

// emit persists a signal, notifies, and routes it through the policy gate to
// the paper executor. Sink and notifier failures are logged, never fatal:
// the scan loop's correctness does not depend on them.
func (s *Scanner) emit(ctx context.Context, sig *model.Signal) {
	id, err := s.sink.InsertSignal(sig)
	if err != nil {
		log.Warn().Err(err).Str("symbol", sig.Symbol).Msg("signal persist failed")
	} else {
		sig.ID = id
	}

	log.Info().
		Str("venue", sig.Venue).
		Str("symbol", sig.Symbol).
		Str("side", string(sig.Side)).
		Str("type", string(sig.Type)).
		Float64("score", sig.Score).
		Strs("triggers", sig.Triggers).
		Msg("signal")

	s.notify.TrySignal(ctx, sig)

	if s.gate.ShouldTrade(sig, time.Now()) {
		reason := strings.Join(sig.Triggers, ", ")
		if sig.Type == model.SignalBasis {
			reason = "Basis:" + strings.Join(sig.Triggers, ",")
		}
		if exec := s.executor.Submit(sig.Symbol, sig.Side, sig.Price, sig.Score, reason); exec != nil {
			if err := s.sink.InsertExecution(exec); err != nil {
				log.Warn().Err(err).Str("symbol", sig.Symbol).Msg("execution persist failed")
			}
		}
	}
}

// RunOutcomes refreshes forward metrics for every stored signal stream and
// settles the paper book for the symbols covered. Streams come from the
// store, not the configured symbol list, so hotlist discoveries get outcome
// rows too.
func (s *Scanner) RunOutcomes(ctx context.Context) {
	ev, err := outcome.NewEvaluator(s.cfg.Outcomes.HorizonsMin, s.cfg.Lookback, s.sink)
	if err != nil {
		log.Error().Err(err).Msg("outcome evaluator init")
		return
	}
	keys, err := s.sink.SignalGroups()
	if err != nil {
		log.Error().Err(err).Msg("load signal groups")
		return
	}
	if len(keys) == 0 {
		log.Debug().Msg("no stored signals, skipping outcome refresh")
		return
	}

	clients, groups := outcomeTargets(keys)
	rows := ev.Run(ctx, clients, groups, s.cfg.Scan.Concurrency)
	freed := s.releaseSettled(groups)

	log.Info().
		Int("rows", rows).
		Int("groups", len(groups)).
		Float64("freed_usdt", freed).
		Msg("outcome refresh complete")

	if rows > 0 {
		s.notify.TrySummary(ctx, fmt.Sprintf(
			"Outcomes refreshed: %d rows across %d signal streams, %.0f USDT paper exposure settled",
			rows, len(groups), freed))
	}
}

// outcomeTargets derives evaluator groups and spot clients from the stored
// signal keys. Venues without a spot client are skipped; outcomes always use
// spot bars, including for basis signals.
func outcomeTargets(keys []store.SignalGroup) (map[string]exchange.Client, []outcome.Group) {
	clients := make(map[string]exchange.Client)
	groups := make([]outcome.Group, 0, len(keys))
	for _, k := range keys {
		client, seen := clients[k.Venue]
		if !seen {
			client = exchange.Spot(k.Venue)
			if client == nil {
				log.Warn().Str("venue", k.Venue).Msg("no spot client for stored venue, skipping outcomes")
			}
			clients[k.Venue] = client
		}
		if client == nil {
			continue
		}
		groups = append(groups, outcome.Group{Venue: k.Venue, Symbol: k.Symbol, Interval: k.Interval})
	}
	return clients, groups
}

// releaseSettled frees paper exposure for the symbols whose outcomes were
// just refreshed and returns the total notional released.
func (s *Scanner) releaseSettled(groups []outcome.Group) float64 {
	var freed float64
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if seen[g.Symbol] {
			continue
		}
		seen[g.Symbol] = true
		if v := s.executor.Exposure(g.Symbol); v > 0 {
			freed += v
			s.executor.Release(g.Symbol)
		}
	}
	return freed
}
