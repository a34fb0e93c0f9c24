package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/smartflow/internal/app"
	"github.com/sawpanic/smartflow/internal/config"
	"github.com/sawpanic/smartflow/internal/feed"
	"github.com/sawpanic/smartflow/internal/httpapi"
	"github.com/sawpanic/smartflow/internal/metrics"
	"github.com/sawpanic/smartflow/internal/pipeline"
)

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the supervisor: streams, tick loop and HTTP surface",
		RunE:  runMonitor,
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	source := feed.NewSource(cfg.Feed, func(stream string) {
		reg.WSReconnects.WithLabelValues(stream).Inc()
	})
	pipe, err := buildPipeline(cfg, source, reg)
	if err != nil {
		return err
	}

	sup := app.New(app.Options{
		Pipeline: pipe,
		Streams:  source,
		Registry: reg,
		Interval: cfg.TickInterval(),
		Addr:     cfg.ListenAddr,
		Handler:  httpapi.NewServer(pipe, reg).Router(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("symbol", cfg.Feed.REST.Symbol).
		Str("timeframe", cfg.Pipeline.Timeframe).
		Dur("interval", cfg.TickInterval()).
		Msg("supervisor starting")

	if err := sup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	log.Info().Msg("supervisor stopped")
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	return config.Load(path)
}

func buildPipeline(cfg config.Config, source pipeline.DataSource, reg *metrics.Registry) (*pipeline.Pipeline, error) {
	return pipeline.New(pipeline.Options{
		Pipeline:  cfg.Pipeline,
		Quality:   cfg.Quality,
		Technical: cfg.Technical,
		Structure: cfg.Structure,
		Liquidity: cfg.Liquidity,
		Trap:      cfg.Trap,
		Decision:  cfg.Decision,
		Alerts:    cfg.Alerts,
	}, source, reg)
}
