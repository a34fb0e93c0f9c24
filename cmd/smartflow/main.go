package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "smartflow"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Real-time market intelligence for one perpetual-futures instrument",
		Version: version,
		Long: `smartflow watches a single perpetual-futures instrument and folds market
structure, technicals, liquidity, smart-volume dynamics and trap evidence
into one BUY/SELL/WAIT signal per tick.`,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to YAML configuration file")

	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newHealthCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
