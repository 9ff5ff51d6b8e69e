package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quickcap/internal/config"
	"quickcap/internal/notifier"
	"quickcap/internal/scanner"
	"quickcap/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	runID := uuid.NewString()
	log.Info().Str("run_id", runID).Msg("quickcap scanner starting")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	var sink store.Store
	if cfg.Database.SQLitePath != "" {
		st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("sqlite store init failed, using noop")
			sink = store.NewNoopStore()
		} else {
			sink = st
			defer st.Close()
		}
	} else {
		sink = store.NewNoopStore()
	}

	notify := notifier.NewDiscordNotifier(cfg.Discord.WebhookURL)
	scan := scanner.New(cfg, sink, notify)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(fmt.Sprintf("@every %ds", cfg.Scan.PeriodSec), func() {
		scan.ScanOnce(ctx)
	}); err != nil {
		log.Fatal().Err(err).Msg("register scan job")
	}
	if _, err := c.AddFunc(cfg.Outcomes.Cron, func() {
		scan.RunOutcomes(ctx)
	}); err != nil {
		log.Fatal().Err(err).Msg("register outcomes job")
	}
	c.Start()
	defer c.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, scanning now")
		go scan.ScanOnce(ctx)
	}

	log.Info().
		Strs("exchanges", cfg.Exchanges).
		Str("interval", cfg.Interval).
		Int("period_sec", cfg.Scan.PeriodSec).
		Msg("scanner running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
}
