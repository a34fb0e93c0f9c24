// Package config loads the YAML configuration tree for the whole process.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/smartflow/internal/alerts"
	"github.com/sawpanic/smartflow/internal/decision"
	"github.com/sawpanic/smartflow/internal/feed"
	"github.com/sawpanic/smartflow/internal/liquidity"
	"github.com/sawpanic/smartflow/internal/pipeline"
	"github.com/sawpanic/smartflow/internal/quality"
	"github.com/sawpanic/smartflow/internal/structure"
	"github.com/sawpanic/smartflow/internal/technical"
	"github.com/sawpanic/smartflow/internal/trap"
)

// Config is the root configuration tree.
type Config struct {
	Pipeline            pipeline.Config  `yaml:"pipeline"`
	Quality             quality.Config   `yaml:"quality"`
	Technical           technical.Config `yaml:"technical"`
	Structure           structure.Config `yaml:"structure"`
	Liquidity           liquidity.Config `yaml:"liquidity"`
	Trap                trap.Config      `yaml:"trap"`
	Decision            decision.Config  `yaml:"decision"`
	Alerts              alerts.Config    `yaml:"alerts"`
	Feed                feed.Config      `yaml:"feed"`
	TickIntervalSeconds int              `yaml:"tick_interval_seconds"`
	ListenAddr          string           `yaml:"listen_addr"`
}

// TickInterval converts the configured seconds to a duration.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// Default returns the full default tree.
func Default() Config {
	return Config{
		Pipeline:            pipeline.DefaultConfig(),
		Quality:             quality.DefaultConfig(),
		Technical:           technical.DefaultConfig(),
		Structure:           structure.DefaultConfig(),
		Liquidity:           liquidity.DefaultConfig(),
		Trap:                trap.DefaultConfig(),
		Decision:            decision.DefaultConfig(),
		Alerts:              alerts.DefaultConfig(),
		Feed:                feed.DefaultConfig(),
		TickIntervalSeconds: 180,
		ListenAddr:          ":8089",
	}
}

// Load reads the YAML file over the defaults and validates the result. An
// empty path returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the supervisor cannot run with.
func (c Config) Validate() error {
	if c.Pipeline.Timeframe == "" {
		return fmt.Errorf("%w: pipeline.timeframe is required", pipeline.ErrConfig)
	}
	if c.Pipeline.CandleLimit <= 0 {
		return fmt.Errorf("%w: pipeline.candle_limit must be positive", pipeline.ErrConfig)
	}
	if c.TickIntervalSeconds <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive", pipeline.ErrConfig)
	}
	if c.Feed.REST.Symbol == "" {
		return fmt.Errorf("%w: feed.rest.symbol is required", pipeline.ErrConfig)
	}
	if c.Quality.MinDataQuality < 0 || c.Quality.MinDataQuality > 1 {
		return fmt.Errorf("%w: quality.min_data_quality must be within [0,1]", pipeline.ErrConfig)
	}
	return nil
}
