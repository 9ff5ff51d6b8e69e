package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quickcap/internal/backtest"
	"quickcap/internal/exchange"
	"quickcap/internal/outcome"
	"quickcap/internal/store"
)

type summary struct {
	RunID       string `json:"run_id"`
	Venue       string `json:"venue"`
	Interval    string `json:"interval"`
	Signals     int    `json:"signals"`
	Executions  int    `json:"executions"`
	OutcomeRows int    `json:"outcome_rows"`
}

func main() {
	var (
		venue       = flag.String("venue", "kucoin", "spot venue (kucoin, mexc, binance, okx, bybit)")
		symbols     = flag.String("symbols", "BTCUSDT,ETHUSDT", "comma-separated symbols")
		interval    = flag.String("interval", "1m", "candle interval")
		lookback    = flag.Int("lookback", 1000, "bars to fetch per symbol")
		minScore    = flag.Float64("min-score", 2.3, "minimum score to record a signal")
		cooldownSec = flag.Int("cooldown-sec", 180, "per venue/symbol signal spacing in seconds")
		concurrency = flag.Int("concurrency", 4, "symbols replayed in parallel")
		horizons    = flag.String("horizons", "15,30,60", "outcome horizons in minutes")
		dbPath      = flag.String("db", "data/backtest.db", "sqlite path, empty disables persistence")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	runID := uuid.NewString()

	var sink store.Store
	if *dbPath != "" {
		st, err := store.NewSQLiteStore(*dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("sqlite store init")
		}
		defer st.Close()
		sink = st
	} else {
		sink = store.NewNoopStore()
	}

	client := exchange.Spot(*venue)
	if client == nil {
		log.Fatal().Str("venue", *venue).Msg("unsupported venue")
	}

	hs, err := parseHorizons(*horizons)
	if err != nil {
		log.Fatal().Err(err).Msg("parse horizons")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg := backtest.DefaultConfig()
	cfg.Venue = *venue
	cfg.Symbols = splitCSV(*symbols)
	cfg.Interval = *interval
	cfg.Lookback = *lookback
	cfg.MinScore = *minScore
	cfg.Cooldown = time.Duration(*cooldownSec) * time.Second
	cfg.Concurrency = *concurrency

	log.Info().
		Str("run_id", runID).
		Str("venue", *venue).
		Strs("symbols", cfg.Symbols).
		Str("interval", *interval).
		Msg("backtest starting")

	totals := backtest.NewReplayer(cfg, client, sink).Run(ctx)

	ev, err := outcome.NewEvaluator(hs, *lookback, sink)
	if err != nil {
		log.Fatal().Err(err).Msg("outcome evaluator init")
	}

	// Stored signals drive the outcome pass, so earlier runs sharing the
	// database get refreshed alongside this one.
	keys, err := sink.SignalGroups()
	if err != nil {
		log.Fatal().Err(err).Msg("load signal groups")
	}
	clients := make(map[string]exchange.Client)
	groups := make([]outcome.Group, 0, len(keys))
	for _, k := range keys {
		if _, ok := clients[k.Venue]; !ok {
			clients[k.Venue] = exchange.Spot(k.Venue)
		}
		if clients[k.Venue] == nil {
			continue
		}
		groups = append(groups, outcome.Group{Venue: k.Venue, Symbol: k.Symbol, Interval: k.Interval})
	}
	rows := ev.Run(ctx, clients, groups, *concurrency)

	out, err := json.MarshalIndent(summary{
		RunID:       runID,
		Venue:       *venue,
		Interval:    *interval,
		Signals:     totals.Signals,
		Executions:  totals.Executions,
		OutcomeRows: rows,
	}, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("marshal summary")
	}
	fmt.Println(string(out))
}

func parseHorizons(csv string) ([]int, error) {
	var out []int
	for _, part := range splitCSV(csv) {
		var h int
		if _, err := fmt.Sscanf(part, "%d", &h); err != nil {
			return nil, fmt.Errorf("bad horizon %q: %w", part, err)
		}
		out = append(out, h)
	}
	return out, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
