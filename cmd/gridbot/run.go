package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridsim/gridbot/internal/engine"
	"github.com/gridsim/gridbot/internal/exchange"
	"github.com/gridsim/gridbot/internal/journal"
	"github.com/gridsim/gridbot/internal/monitoring"
	"github.com/gridsim/gridbot/internal/report"
	"github.com/gridsim/gridbot/internal/server"
	"github.com/gridsim/gridbot/internal/state"
)

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)

	ex, err := exchange.New(cfg.Exchange)
	if err != nil {
		return fmt.Errorf("create exchange: %w", err)
	}

	var jrnl journal.Journal = journal.Noop{}
	if cfg.Journal.Type == "sqlite" {
		sqlite, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open deal journal: %w", err)
		}
		defer sqlite.Close()
		jrnl = sqlite
	}

	var sink engine.StateSink
	if cfg.State.Path != "" {
		sink = state.NewFileWriter(cfg.State.Path)
	}

	health := monitoring.NewHealthChecker()
	eng := engine.New(cfg, ex, jrnl, health, sink, log)
	api := server.New(cfg.Server.Addr, eng, health, log)

	mode := "paper"
	if cfg.Trading.Live {
		mode = "LIVE"
	}
	log.Info().
		Str("exchange", ex.Name()).
		Str("mode", mode).
		Str("timeframe", cfg.Trading.Timeframe).
		Int("max_grids", cfg.Trading.MaxGrids).
		Msg("starting gridbot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eng.Start()

	engineDone := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(engineDone)
	}()

	// Run blocks until the context is cancelled or the listener fails.
	err = api.Run(ctx)
	cancel()
	<-engineDone

	// Shutdown report: console summary plus CSV and XLSX deal exports.
	snap := eng.Snapshot()
	deals, listErr := jrnl.ListDeals()
	if listErr != nil {
		log.Warn().Err(listErr).Msg("deal list unavailable for session report")
	}
	report.WriteSummary(os.Stdout, snap, deals)
	if cfg.Report.Dir != "" && len(deals) > 0 {
		csvPath, xlsxPath, repErr := report.Save(cfg.Report.Dir, deals)
		if repErr != nil {
			log.Warn().Err(repErr).Msg("report export failed")
		} else {
			log.Info().Str("csv", csvPath).Str("xlsx", xlsxPath).Msg("session reports written")
		}
	}

	return err
}
