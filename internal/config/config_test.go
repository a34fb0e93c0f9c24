package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/smartflow/internal/pipeline"
)

func TestLoadDefaultsWithoutPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "1h", cfg.Pipeline.Timeframe)
	assert.Equal(t, 180*time.Second, cfg.TickInterval())
	assert.Equal(t, "BTC-USDT", cfg.Feed.REST.Symbol)
}

func TestLoadOverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smartflow.yaml")
	body := []byte(`
pipeline:
  timeframe: 15m
  candle_limit: 300
tick_interval_seconds: 60
feed:
  rest:
    symbol: ETH-USDT
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "15m", cfg.Pipeline.Timeframe)
	assert.Equal(t, 300, cfg.Pipeline.CandleLimit)
	assert.Equal(t, time.Minute, cfg.TickInterval())
	assert.Equal(t, "ETH-USDT", cfg.Feed.REST.Symbol)
	// untouched sections keep their defaults
	assert.Equal(t, 3.0, cfg.Trap.ScoreThreshold)
}

func TestValidateRejectsBrokenConfig(t *testing.T) {
	cfg := Default()
	cfg.TickIntervalSeconds = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrConfig))

	cfg = Default()
	cfg.Quality.MinDataQuality = 1.4
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/smartflow.yaml")
	assert.Error(t, err)
}
