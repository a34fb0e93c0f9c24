// Package technical derives the indicator snapshot used by the decision
// layer: EMAs, Wilder RSI, ATR and candle patterns.
package technical

import "github.com/sawpanic/smartflow/internal/domain"

// Trend is the indicator-based trend classification.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// Config selects the indicator periods.
type Config struct {
	EMAFast   int `yaml:"ema_fast"`
	EMASlow   int `yaml:"ema_slow"`
	RSIPeriod int `yaml:"rsi_period"`
	ATRPeriod int `yaml:"atr_period"`
}

// DefaultConfig returns EMA 20/50, RSI 14, ATR 14.
func DefaultConfig() Config {
	return Config{EMAFast: 20, EMASlow: 50, RSIPeriod: 14, ATRPeriod: 14}
}

// Snapshot is the per-tick indicator readout.
type Snapshot struct {
	EMAFast    float64
	EMASlow    float64
	RSI        float64
	ATR        float64
	ATRPct     float64
	Trend      Trend
	Overbought bool
	Oversold   bool
	Patterns   []Pattern
}

// Engine computes indicator snapshots from OHLCV windows.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine; a zero config selects defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.EMAFast == 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// Analyze computes the snapshot for the candle window. Degenerate input
// yields a neutral zero-valued snapshot.
func (e *Engine) Analyze(candles []domain.Candle) Snapshot {
	if len(candles) == 0 {
		return Snapshot{Trend: TrendNeutral, RSI: 50}
	}

	closes := domain.Closes(candles)
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
	}

	fast := EMA(closes, e.cfg.EMAFast)
	slow := EMA(closes, e.cfg.EMASlow)
	rsi := RSI(closes, e.cfg.RSIPeriod)
	atr := ATR(highs, lows, closes, e.cfg.ATRPeriod)

	last := len(closes) - 1
	snap := Snapshot{
		EMAFast:  fast[last],
		EMASlow:  slow[last],
		RSI:      rsi[last],
		ATR:      atr[last],
		Patterns: DetectPatterns(candles),
	}
	if closes[last] > 0 {
		snap.ATRPct = snap.ATR / closes[last] * 100
	}

	price := closes[last]
	switch {
	case snap.EMAFast > snap.EMASlow && price > snap.EMAFast:
		snap.Trend = TrendBullish
	case snap.EMAFast < snap.EMASlow && price < snap.EMAFast:
		snap.Trend = TrendBearish
	default:
		snap.Trend = TrendNeutral
	}
	snap.Overbought = snap.RSI > 70
	snap.Oversold = snap.RSI < 30
	return snap
}
