// Package structure reads raw OHLCV into market-structure primitives:
// swings, trend, trading range, fair value gaps and order blocks.
package structure

import "github.com/sawpanic/smartflow/internal/domain"

// Trend is the structural trend classification.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendRange   Trend = "range"
	TrendUnknown Trend = "unknown"
)

// GapKind tags a fair value gap's direction.
type GapKind string

const (
	GapBullish GapKind = "bullish"
	GapBearish GapKind = "bearish"
)

// Gap is a fair value gap between candles i-1 and i+1.
type Gap struct {
	Index int
	Kind  GapKind
	Low   float64
	High  float64
}

// OrderBlock is the last opposite candle before an impulsive move.
type OrderBlock struct {
	Index int
	Kind  GapKind
	Low   float64
	High  float64
}

// RangeInfo describes a confirmed trading range.
type RangeInfo struct {
	InRange bool
	Top     float64
	Bottom  float64
}

// Snapshot is the per-tick structural readout.
type Snapshot struct {
	Trend       Trend
	Swings      Swings
	Range       RangeInfo
	Gaps        []Gap
	OrderBlocks []OrderBlock
}

// Config holds structural detection parameters.
type Config struct {
	SwingLookback     int     `yaml:"swing_lookback"`
	RangeTolerancePct float64 `yaml:"range_tolerance_pct"`
	ImpulseRangeRatio float64 `yaml:"impulse_range_ratio"`
}

// DefaultConfig returns lookback 2, range tolerance 1.5%, impulse 1.5x.
func DefaultConfig() Config {
	return Config{SwingLookback: 2, RangeTolerancePct: 1.5, ImpulseRangeRatio: 1.5}
}

// Engine is stateless; one instance serves every timeframe.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine; a zero config selects defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.SwingLookback == 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// Analyze computes the full structural snapshot for the window.
func (e *Engine) Analyze(candles []domain.Candle) Snapshot {
	snap := Snapshot{Trend: TrendUnknown}
	if len(candles) == 0 {
		return snap
	}
	snap.Swings = detectSwings(candles, e.cfg.SwingLookback)
	snap.Trend, snap.Range = e.classifyTrend(snap.Swings)
	snap.Gaps = detectGaps(candles)
	snap.OrderBlocks = e.detectOrderBlocks(candles)
	return snap
}

// classifyTrend uses the last two retained highs and lows. Higher highs with
// higher lows is bullish, the mirror bearish. A range needs both pairs to sit
// within the tolerance.
func (e *Engine) classifyTrend(sw Swings) (Trend, RangeInfo) {
	if len(sw.Highs) < 2 || len(sw.Lows) < 2 {
		return TrendUnknown, RangeInfo{}
	}
	h1, h2 := sw.Highs[len(sw.Highs)-2], sw.Highs[len(sw.Highs)-1]
	l1, l2 := sw.Lows[len(sw.Lows)-2], sw.Lows[len(sw.Lows)-1]

	if h2.Price > h1.Price && l2.Price > l1.Price {
		return TrendBullish, RangeInfo{}
	}
	if h2.Price < h1.Price && l2.Price < l1.Price {
		return TrendBearish, RangeInfo{}
	}

	tol := e.cfg.RangeTolerancePct / 100
	if h1.Price > 0 && l1.Price > 0 &&
		abs(h2.Price-h1.Price)/h1.Price < tol &&
		abs(l2.Price-l1.Price)/l1.Price < tol {
		top := h1.Price
		if h2.Price > top {
			top = h2.Price
		}
		bottom := l1.Price
		if l2.Price < bottom {
			bottom = l2.Price
		}
		return TrendRange, RangeInfo{InRange: true, Top: top, Bottom: bottom}
	}
	return TrendRange, RangeInfo{}
}

// detectGaps finds three-candle fair value gaps.
func detectGaps(candles []domain.Candle) []Gap {
	var out []Gap
	for i := 1; i < len(candles)-1; i++ {
		if candles[i-1].High < candles[i+1].Low {
			out = append(out, Gap{Index: i, Kind: GapBullish, Low: candles[i-1].High, High: candles[i+1].Low})
		}
		if candles[i-1].Low > candles[i+1].High {
			out = append(out, Gap{Index: i, Kind: GapBearish, Low: candles[i+1].High, High: candles[i-1].Low})
		}
	}
	return out
}

// detectOrderBlocks marks the last opposite-direction candle immediately
// before an impulsive candle (range above ImpulseRangeRatio x average).
func (e *Engine) detectOrderBlocks(candles []domain.Candle) []OrderBlock {
	avgRng := domain.AvgRange(candles)
	if avgRng <= 0 {
		return nil
	}
	var out []OrderBlock
	for i := 1; i < len(candles); i++ {
		impulse := candles[i]
		if impulse.Range() < avgRng*e.cfg.ImpulseRangeRatio {
			continue
		}
		prev := candles[i-1]
		if impulse.Bullish() && !prev.Bullish() {
			out = append(out, OrderBlock{Index: i - 1, Kind: GapBullish, Low: prev.Low, High: prev.High})
		}
		if !impulse.Bullish() && prev.Bullish() {
			out = append(out, OrderBlock{Index: i - 1, Kind: GapBearish, Low: prev.Low, High: prev.High})
		}
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
