package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gridsim/gridbot/internal/config"
)

var version = "dev"

var (
	flagConfig  string
	flagPreset  string
	flagEnvFile string
	flagLive    bool
)

func main() {
	root := &cobra.Command{
		Use:   "gridbot",
		Short: "Multi-pair futures grid trading engine",
		Long: "gridbot runs a ladder of conditional long and short levels around\n" +
			"the current price of each selected pair, harvesting oscillation\n" +
			"inside a volatility band.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to YAML or JSON config file")
	root.PersistentFlags().StringVarP(&flagPreset, "preset", "p", "default", "parameter preset (default, conservative, aggressive)")
	root.PersistentFlags().StringVar(&flagEnvFile, "env", ".env", "path to env file with exchange credentials")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the grid engine and the control API",
		RunE:  runEngine,
	}
	runCmd.Flags().BoolVar(&flagLive, "live", false, "place real orders instead of paper trading")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the last written state snapshot",
		RunE:  showStatus,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("gridbot", version)
		},
	}

	root.AddCommand(runCmd, statusCmd, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves preset, file, and environment in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(flagEnvFile); err != nil && flagEnvFile != ".env" {
		return nil, fmt.Errorf("load env file %s: %w", flagEnvFile, err)
	}

	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.Preset(flagPreset)
		if err == nil {
			cfg.ApplyEnv()
		}
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("live") {
		cfg.Trading.Live = flagLive
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().Timestamp().Logger()
}
