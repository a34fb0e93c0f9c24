package liquidity

import (
	"time"

	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/structure"
)

// SweepReport flags a liquidity grab over the last three bars.
type SweepReport struct {
	SweepUp      bool
	SweepDown    bool
	PostReversal bool
	Level        float64
}

const (
	sweepReversalPct = 0.2
	retestGapBars    = 5
	retestProxPct    = 0.5
)

// detectSweep compares the last three bars against the preceding lookback
// window. A sweep up pierces the historical high while at least one of the
// three closes back >= 0.2% below it; mirror for sweep down. PostReversal
// marks a last close decisively back inside the historical range.
func detectSweep(candles []domain.Candle, lookback int) SweepReport {
	rep := SweepReport{}
	if len(candles) < lookback+3 {
		return rep
	}
	hist := candles[len(candles)-3-lookback : len(candles)-3]
	last3 := candles[len(candles)-3:]

	histHigh, histLow := hist[0].High, hist[0].Low
	for _, c := range hist {
		if c.High > histHigh {
			histHigh = c.High
		}
		if c.Low < histLow {
			histLow = c.Low
		}
	}

	piercedUp, closedBackDown := false, false
	piercedDown, closedBackUp := false, false
	for _, c := range last3 {
		if c.High > histHigh {
			piercedUp = true
		}
		if c.Close <= histHigh*(1-sweepReversalPct/100) {
			closedBackDown = true
		}
		if c.Low < histLow {
			piercedDown = true
		}
		if c.Close >= histLow*(1+sweepReversalPct/100) {
			closedBackUp = true
		}
	}
	if piercedUp && closedBackDown {
		rep.SweepUp = true
		rep.Level = histHigh
	}
	if piercedDown && closedBackUp {
		rep.SweepDown = true
		rep.Level = histLow
	}

	lastClose := last3[2].Close
	if (rep.SweepUp && lastClose < histHigh*(1-sweepReversalPct/100)) ||
		(rep.SweepDown && lastClose > histLow*(1+sweepReversalPct/100)) {
		rep.PostReversal = true
	}
	return rep
}

// historicalSweeps scans prior swings for completed sweep-and-recover
// sequences: a bar pierces the swing, price closes back across by >= 0.2%,
// and no re-test within 0.5% occurs for at least five bars afterwards.
// Confirmed sweeps are pushed to the tracker with their bar age.
func historicalSweeps(candles []domain.Candle, sw structure.Swings, tracker *SweptTracker, now time.Time) []SweptRecord {
	if len(candles) == 0 {
		return nil
	}
	price := candles[len(candles)-1].Close
	var out []SweptRecord

	for _, h := range sw.Highs {
		if h.Price <= price {
			continue
		}
		if age, ok := confirmSweep(candles, h.Index, h.Price, true); ok {
			tracker.MarkSwept(h.Price, domain.DirectionUp, "historical_sweep", age, now)
			out = append(out, SweptRecord{Price: h.Price, Direction: domain.DirectionUp, CandlesAgo: age})
		}
	}
	for _, l := range sw.Lows {
		if l.Price >= price {
			continue
		}
		if age, ok := confirmSweep(candles, l.Index, l.Price, false); ok {
			tracker.MarkSwept(l.Price, domain.DirectionDown, "historical_sweep", age, now)
			out = append(out, SweptRecord{Price: l.Price, Direction: domain.DirectionDown, CandlesAgo: age})
		}
	}
	return out
}

// confirmSweep finds the first pierce of level after swing index i and
// validates the recover-then-no-retest sequence. Returns bars since pierce.
func confirmSweep(candles []domain.Candle, i int, level float64, above bool) (int, bool) {
	for j := i + 1; j < len(candles); j++ {
		pierced := (above && candles[j].High > level) || (!above && candles[j].Low < level)
		if !pierced {
			continue
		}
		recovered := false
		if above {
			recovered = candles[j].Close <= level*(1-sweepReversalPct/100)
		} else {
			recovered = candles[j].Close >= level*(1+sweepReversalPct/100)
		}
		if !recovered && j+1 < len(candles) {
			next := candles[j+1]
			if above {
				recovered = next.Close <= level*(1-sweepReversalPct/100)
			} else {
				recovered = next.Close >= level*(1+sweepReversalPct/100)
			}
		}
		if !recovered {
			return 0, false
		}
		if len(candles)-1-j < retestGapBars {
			return 0, false
		}
		for k := j + 1; k < len(candles); k++ {
			ref := candles[k].High
			if !above {
				ref = candles[k].Low
			}
			if proximityPct(level, ref) < retestProxPct && crossed(candles[k], level, above) {
				return 0, false
			}
		}
		return len(candles) - 1 - j, true
	}
	return 0, false
}

func crossed(c domain.Candle, level float64, above bool) bool {
	if above {
		return c.High >= level*(1-retestProxPct/100)
	}
	return c.Low <= level*(1+retestProxPct/100)
}

// TouchedLevel is a liquidity level tagged in the recent touch window.
type TouchedLevel struct {
	Level domain.LiquidityLevel
	Index int
}

const (
	touchWindowBars = 20
	touchTolPct     = 0.2
)

// detectTouches marks liquidity levels touched within tolerance in the last
// 20 bars and records them on the tracker.
func detectTouches(candles []domain.Candle, levels []domain.LiquidityLevel, tracker *SweptTracker, now time.Time) []TouchedLevel {
	if len(candles) == 0 {
		return nil
	}
	start := len(candles) - touchWindowBars
	if start < 0 {
		start = 0
	}
	var out []TouchedLevel
	for _, l := range levels {
		for i := start; i < len(candles); i++ {
			ref := candles[i].High
			dir := domain.DirectionUp
			if l.Kind == domain.SellStops {
				ref = candles[i].Low
				dir = domain.DirectionDown
			}
			if proximityPct(l.Price, ref) <= touchTolPct {
				tracker.MarkSwept(l.Price, dir, "recent_touch", len(candles)-1-i, now)
				out = append(out, TouchedLevel{Level: l, Index: i})
				break
			}
		}
	}
	return out
}

// BreakoutReport distinguishes a held breakout from a sweep/spike through
// the same level.
type BreakoutReport struct {
	Direction domain.Direction
	Strong    bool
	Weak      bool
	Level     float64
}

// detectBreakout checks the last three closes against a level. All three on
// the far side is a strong breakout, two of three a weak one.
func detectBreakout(candles []domain.Candle, level float64, up bool) BreakoutReport {
	rep := BreakoutReport{Direction: domain.DirectionNeutral, Level: level}
	if len(candles) < 3 || level <= 0 {
		return rep
	}
	last3 := candles[len(candles)-3:]
	beyond := 0
	for _, c := range last3 {
		if (up && c.Close > level) || (!up && c.Close < level) {
			beyond++
		}
	}
	switch {
	case beyond == 3:
		rep.Strong = true
	case beyond == 2:
		rep.Weak = true
	default:
		return rep
	}
	if up {
		rep.Direction = domain.DirectionUp
	} else {
		rep.Direction = domain.DirectionDown
	}
	return rep
}
