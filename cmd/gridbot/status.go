package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridsim/gridbot/internal/config"
	"github.com/gridsim/gridbot/internal/state"
)

// showStatus reads the state file the engine writes after every cycle and
// prints a terse one-screen view. It needs no exchange credentials.
func showStatus(cmd *cobra.Command, args []string) error {
	var statePath string
	if flagConfig != "" {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		statePath = cfg.State.Path
	} else {
		statePath = config.Default().State.Path
	}

	snap, err := state.Read(statePath)
	if err != nil {
		return fmt.Errorf("no engine state at %s (is the bot running?): %w", statePath, err)
	}

	mode := "paper"
	if snap.Live {
		mode = "LIVE"
	}
	running := "stopped"
	if snap.Running {
		running = "running"
	}

	fmt.Printf("gridbot %s (%s), uptime %s\n", running, mode, snap.Uptime)
	fmt.Printf("deposit %.2f  equity %.2f  realized pnl %+.4f  deals %d\n",
		snap.Deposit, snap.Equity, snap.TotalPnL, snap.Deals)

	if len(snap.Grids) == 0 {
		fmt.Println("no active grids")
	}
	for _, g := range snap.Grids {
		fmt.Printf("%-12s center %.6f  range [%.6f, %.6f]  step %.6f  open %d/%d  last %.6f\n",
			g.Pair, g.Center, g.Low, g.High, g.Step, g.OpenOrders, g.Levels, g.LastPrice)
	}

	for pair, reason := range snap.RejectReasons {
		fmt.Printf("skipped %-12s %s\n", pair, reason)
	}
	return nil
}
