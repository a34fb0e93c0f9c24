// Package liquidity maps where resting stops sit around price and how
// recent bars interacted with them: clusters, sweeps, touches, breakouts,
// the volume profile and a net directional pull. The engine owns the
// process-lifetime swept-level registry.
package liquidity

import (
	"time"

	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/structure"
)

// Config holds liquidity detection parameters.
type Config struct {
	SweepLookback    int     `yaml:"sweep_lookback"`
	HalfLifeSeconds  float64 `yaml:"half_life_seconds"`
	SweptExpiryHours float64 `yaml:"swept_level_expiry_hours"`
}

// DefaultConfig returns lookback 50, half-life 24h, expiry 24h.
func DefaultConfig() Config {
	return Config{SweepLookback: 50, HalfLifeSeconds: domain.DefaultHalfLifeSeconds, SweptExpiryHours: 24}
}

// Snapshot is the per-tick liquidity readout.
type Snapshot struct {
	StopClusters   []domain.LiquidityLevel
	SwingLiquidity []domain.LiquidityLevel
	ATH            domain.LiquidityLevel
	ATL            domain.LiquidityLevel
	HasExtremes    bool
	Sweep          SweepReport
	Historical     []SweptRecord
	Touched        []TouchedLevel
	Breakout       BreakoutReport
	Profile        ProfileReport
	Direction      DirectionReport
}

// AllLevels concatenates clusters, swing liquidity and extremes.
func (s Snapshot) AllLevels() []domain.LiquidityLevel {
	out := make([]domain.LiquidityLevel, 0, len(s.StopClusters)+len(s.SwingLiquidity)+2)
	out = append(out, s.StopClusters...)
	out = append(out, s.SwingLiquidity...)
	if s.HasExtremes {
		out = append(out, s.ATH, s.ATL)
	}
	return out
}

// Engine derives the liquidity snapshot and feeds the swept tracker.
type Engine struct {
	cfg     Config
	tracker *SweptTracker
}

// NewEngine builds an engine with its own tracker; zero config selects
// defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.SweepLookback == 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg, tracker: NewSweptTracker(cfg.SweptExpiryHours)}
}

// Tracker exposes the swept-level registry for the decision layer.
func (e *Engine) Tracker() *SweptTracker { return e.tracker }

// Analyze computes the liquidity snapshot from the candle window and the
// structural snapshot of the same window.
func (e *Engine) Analyze(candles []domain.Candle, st structure.Snapshot, now time.Time) Snapshot {
	snap := Snapshot{
		Direction: DirectionReport{Direction: domain.DirectionNeutral},
		Breakout:  BreakoutReport{Direction: domain.DirectionNeutral},
	}
	if len(candles) == 0 {
		return snap
	}
	price := candles[len(candles)-1].Close

	snap.StopClusters = stopClusters(candles, e.cfg.HalfLifeSeconds, now)
	snap.SwingLiquidity = swingLiquidity(st.Swings, e.cfg.HalfLifeSeconds, now)
	snap.ATH, snap.ATL, snap.HasExtremes = extremes(candles)

	snap.Sweep = detectSweep(candles, e.cfg.SweepLookback)
	if snap.Sweep.SweepUp {
		e.tracker.MarkSwept(snap.Sweep.Level, domain.DirectionUp, "sweep_reversal", 0, now)
	}
	if snap.Sweep.SweepDown {
		e.tracker.MarkSwept(snap.Sweep.Level, domain.DirectionDown, "sweep_reversal", 0, now)
	}
	snap.Historical = historicalSweeps(candles, st.Swings, e.tracker, now)
	snap.Touched = detectTouches(candles, snap.AllLevels(), e.tracker, now)

	snap.Breakout = e.breakout(candles, st, price)
	snap.Profile = buildProfile(candles, price)
	snap.Direction = directionHint(snap.AllLevels(), price)
	return snap
}

// breakout picks the reference level: the confirmed range boundary when in
// a range, otherwise the last swing in the direction of the last close.
func (e *Engine) breakout(candles []domain.Candle, st structure.Snapshot, price float64) BreakoutReport {
	if st.Range.InRange {
		if price > st.Range.Top {
			return detectBreakout(candles, st.Range.Top, true)
		}
		if price < st.Range.Bottom {
			return detectBreakout(candles, st.Range.Bottom, false)
		}
		return BreakoutReport{Direction: domain.DirectionNeutral}
	}
	if n := len(st.Swings.Highs); n > 0 && price > st.Swings.Highs[n-1].Price {
		return detectBreakout(candles, st.Swings.Highs[n-1].Price, true)
	}
	if n := len(st.Swings.Lows); n > 0 && price < st.Swings.Lows[n-1].Price {
		return detectBreakout(candles, st.Swings.Lows[n-1].Price, false)
	}
	return BreakoutReport{Direction: domain.DirectionNeutral}
}
