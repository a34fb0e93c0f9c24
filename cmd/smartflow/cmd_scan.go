package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/smartflow/internal/feed"
	"github.com/sawpanic/smartflow/internal/pipeline"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single analysis tick and print the signal",
		RunE:  runScan,
	}
	cmd.Flags().Int("warmup", 15, "Seconds to buffer websocket data before the tick")
	cmd.Flags().String("output", "table", "Output format (table|json)")
	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	warmup, _ := cmd.Flags().GetInt("warmup")
	output, _ := cmd.Flags().GetString("output")

	source := feed.NewSource(cfg.Feed, nil)
	pipe, err := buildPipeline(cfg, source, nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	source.Start(ctx)
	log.Info().Int("warmup_seconds", warmup).Msg("buffering stream data before tick")
	select {
	case <-time.After(time.Duration(warmup) * time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}

	res, err := pipe.RunTick(ctx)
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Signal)
	}
	printSignalTable(res)
	return nil
}

func printSignalTable(res pipeline.Result) {
	sig := res.Signal
	fmt.Printf("Signal      %s\n", sig.Direction)
	fmt.Printf("Confidence  %.1f/10\n", sig.Confidence)
	fmt.Printf("Price       %.2f\n", sig.Price)
	fmt.Printf("Phase       %s\n", res.SVD.Phase)
	fmt.Printf("Intent      %s\n", res.SVD.Intent)
	fmt.Printf("Quality     %.2f\n", res.Quality.Overall)
	if sig.VetoReason != "" {
		fmt.Printf("Veto        %s\n", sig.VetoReason)
	}
	if len(sig.Levels.Targets) > 0 {
		for i, tg := range sig.Levels.Targets {
			fmt.Printf("Target %d    %.2f (%s)\n", i+1, tg.Price, tg.Source)
		}
		fmt.Printf("Invalidate  %.2f\n", sig.Levels.Invalidation)
	}
	fmt.Printf("\n%s\n", sig.Explanation)
	fmt.Printf("\nMain: %s\nAlt:  %s\n", sig.Scenario.Main, sig.Scenario.Alternative)
}
