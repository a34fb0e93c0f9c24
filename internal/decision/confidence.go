package decision

import (
	"math"

	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/liquidity"
	"github.com/sawpanic/smartflow/internal/structure"
	"github.com/sawpanic/smartflow/internal/svd"
	"github.com/sawpanic/smartflow/internal/technical"
)

const (
	agreementStep  = 1.5
	agreementCap   = 6.0
	htfTrendBonus  = 0.5
	htfGlobalBonus = 0.3
	blendModules   = 0.6
	blendBase      = 0.4
)

// buildConfidence runs the full arithmetic: agreement base plus HTF bias,
// blended with the module confidence readings, then contradiction
// penalties and the itemized adjustments.
func (e *Engine) buildConfidence(in Inputs, signal domain.SignalDirection) float64 {
	base := agreementScore(in) * agreementStep
	if base > agreementCap {
		base = agreementCap
	}
	base += htfBonus(in, signal)

	conf := base
	if in.SVD.Confidence > 0 {
		conf = blendModules*in.SVD.Confidence + blendBase*base
	}

	conf -= contradictionPenalty(in)
	conf += phaseAdjustment(in.SVD.Phase)
	conf += cvdAdjustment(in.SVD)
	conf += rsiAdjustment(in.Technical.RSI)
	conf += crowdAdjustment(in.SVD.Crowd)
	conf += spoofAdjustment(in.SVD.Spoof, signal)
	conf += sweepAdjustment(in.Liquidity, signal)
	conf += breakoutAdjustment(in.Liquidity.Breakout, signal)
	conf += qualityPenalty(in.Quality.Overall)
	conf += profileAdjustment(in.Liquidity.Profile, signal)
	conf += pathAdjustment(in, signal)
	return conf
}

// agreementScore counts module alignments: liquidity with SVD intent,
// structure with liquidity (half credit when structure reads a range),
// and indicators with structure.
func agreementScore(in Inputs) float64 {
	score := 0.0
	liqDir := in.Liquidity.Direction.Direction
	if (liqDir == domain.DirectionUp && in.SVD.Intent == domain.IntentAccumulating) ||
		(liqDir == domain.DirectionDown && in.SVD.Intent == domain.IntentDistributing) {
		score += 2.0
	}
	switch {
	case (in.Structure.Trend == structure.TrendBullish && liqDir == domain.DirectionUp) ||
		(in.Structure.Trend == structure.TrendBearish && liqDir == domain.DirectionDown):
		score += 2.0
	case in.Structure.Trend == structure.TrendRange && liqDir != domain.DirectionNeutral:
		score += 1.0
	}
	if (in.Structure.Trend == structure.TrendBullish && in.Technical.Trend == technical.TrendBullish) ||
		(in.Structure.Trend == structure.TrendBearish && in.Technical.Trend == technical.TrendBearish) {
		score += 1.0
	}
	return score
}

// htfBonus rewards each higher timeframe whose trend backs the signal and
// penalizes each one fighting it, with a smaller term for the combined
// phase-trend bias.
func htfBonus(in Inputs, signal domain.SignalDirection) float64 {
	if in.HTF == nil || signal == domain.SignalWait {
		return 0
	}
	bonus := 0.0
	for _, tr := range []structure.Trend{in.HTF.HTF1.Trend, in.HTF.HTF2.Trend} {
		switch {
		case (signal == domain.SignalBuy && tr == structure.TrendBullish) ||
			(signal == domain.SignalSell && tr == structure.TrendBearish):
			bonus += htfTrendBonus
		case (signal == domain.SignalBuy && tr == structure.TrendBearish) ||
			(signal == domain.SignalSell && tr == structure.TrendBullish):
			bonus -= htfTrendBonus
		}
	}
	switch {
	case (signal == domain.SignalBuy && in.HTF.Bias.Direction == domain.DirectionUp) ||
		(signal == domain.SignalSell && in.HTF.Bias.Direction == domain.DirectionDown):
		bonus += htfGlobalBonus
	case (signal == domain.SignalBuy && in.HTF.Bias.Direction == domain.DirectionDown) ||
		(signal == domain.SignalSell && in.HTF.Bias.Direction == domain.DirectionUp):
		bonus -= htfGlobalBonus
	}
	return bonus
}

// contradictionPenalty charges 1.5 per opposing module pair. A structural
// contradiction is waived when the tape shows a live reversal: detected
// reversal in the execution phase with RSI at an extreme or a post-reversal
// sweep on the board.
func contradictionPenalty(in Inputs) float64 {
	liq := directionOf(in.Liquidity.Direction.Direction)
	smart := intentDirection(in.SVD.Intent)
	struc := trendDirection(in.Structure.Trend)

	waive := reversalWaiver(in)
	pen := 0.0
	if opposing(liq, smart) {
		pen += contradictionPen
	}
	if opposing(liq, struc) && !waive {
		pen += contradictionPen
	}
	if opposing(smart, struc) && !waive {
		pen += contradictionPen
	}
	return pen
}

func reversalWaiver(in Inputs) bool {
	if !in.SVD.ReversalDetected || in.SVD.Phase != domain.PhaseExecution {
		return false
	}
	if in.Technical.RSI < 25 || in.Technical.RSI > 75 {
		return true
	}
	sw := in.Liquidity.Sweep
	return (sw.SweepUp || sw.SweepDown) && sw.PostReversal
}

func directionOf(d domain.Direction) int {
	switch d {
	case domain.DirectionUp:
		return 1
	case domain.DirectionDown:
		return -1
	}
	return 0
}

func intentDirection(i domain.Intent) int {
	switch i {
	case domain.IntentAccumulating:
		return 1
	case domain.IntentDistributing:
		return -1
	}
	return 0
}

func trendDirection(t structure.Trend) int {
	switch t {
	case structure.TrendBullish:
		return 1
	case structure.TrendBearish:
		return -1
	}
	return 0
}

func opposing(a, b int) bool { return a*b < 0 }

func phaseAdjustment(p domain.Phase) float64 {
	switch p {
	case domain.PhaseExecution:
		return 0.5
	case domain.PhaseDistribution:
		return 0.2
	case domain.PhaseManipulation:
		return -0.5
	}
	return 0
}

func cvdAdjustment(sv svd.Snapshot) float64 {
	adj := 0.0
	if sv.CVDConfirms {
		adj += 0.4
	}
	if sv.Divergence {
		adj -= 0.3
	}
	if sv.ReversalDetected {
		adj += 1.5
	}
	return adj
}

func rsiAdjustment(rsi float64) float64 {
	dist := math.Abs(rsi - 50)
	switch {
	case dist >= 25:
		return 1.5
	case dist >= 20:
		return 1.0
	}
	return 0
}

func crowdAdjustment(c svd.CrowdReport) float64 {
	adj := 0.0
	if c.FOMO || c.StrongFOMO {
		adj -= 0.2
	}
	if c.Panic || c.StrongPanic {
		adj -= 0.3
	}
	return adj
}

// spoofAdjustment reads a confirmed bid spoof as fake support (bearish) and
// a confirmed ask spoof as fake resistance (bullish).
func spoofAdjustment(sp svd.SpoofReport, signal domain.SignalDirection) float64 {
	if !sp.Confirmed || len(sp.Events) == 0 || signal == domain.SignalWait {
		return 0
	}
	side := sp.Events[len(sp.Events)-1].Side
	bearish := side == svd.BookBid
	if (signal == domain.SignalBuy && bearish) || (signal == domain.SignalSell && !bearish) {
		return -0.3
	}
	return 0.1
}

func sweepAdjustment(liq liquidity.Snapshot, signal domain.SignalDirection) float64 {
	adj := 0.0
	if (signal == domain.SignalBuy && liq.Sweep.SweepDown) ||
		(signal == domain.SignalSell && liq.Sweep.SweepUp) {
		adj += 0.3
	}
	if len(liq.Touched) > 0 {
		adj += 0.2
	}
	if liq.Sweep.PostReversal {
		adj += 0.2
	}
	return adj
}

func breakoutAdjustment(b liquidity.BreakoutReport, signal domain.SignalDirection) float64 {
	aligned := (signal == domain.SignalBuy && b.Direction == domain.DirectionUp) ||
		(signal == domain.SignalSell && b.Direction == domain.DirectionDown)
	if !aligned {
		return 0
	}
	if b.Strong {
		return 1.0
	}
	if b.Weak {
		return 0.5
	}
	return 0
}

func qualityPenalty(overall float64) float64 {
	if overall >= 0.8 || overall == 0 {
		return 0
	}
	return -(0.8 - overall) * 5
}

func profileAdjustment(p liquidity.ProfileReport, signal domain.SignalDirection) float64 {
	if !p.Valid || signal == domain.SignalWait {
		return 0
	}
	adj := 0.0
	switch p.Position {
	case liquidity.AboveValueArea:
		if signal == domain.SignalBuy {
			adj += 0.3
		} else {
			adj -= 0.3
		}
	case liquidity.BelowValueArea:
		if signal == domain.SignalSell {
			adj += 0.3
		} else {
			adj -= 0.3
		}
	}
	switch p.Role {
	case liquidity.PoCMagnet:
		adj -= 0.2
	case liquidity.PoCSupport:
		if signal == domain.SignalBuy {
			adj += 0.2
		}
	case liquidity.PoCResistance:
		if signal == domain.SignalSell {
			adj += 0.2
		}
	}
	return adj
}

// pathAdjustment rewards a signal pointed at the cheaper side of the book.
// A near-tie means neither side is the path of least resistance.
func pathAdjustment(in Inputs, signal domain.SignalDirection) float64 {
	up, down := in.SVD.PathCost.Up, in.SVD.PathCost.Down
	if signal == domain.SignalWait || (up == 0 && down == 0) {
		return 0
	}
	hi := math.Max(up, down)
	if hi > 0 && math.Abs(up-down)/hi < 0.1 {
		return -0.1
	}
	cheaperUp := up < down
	aligned := (signal == domain.SignalBuy && cheaperUp) ||
		(signal == domain.SignalSell && !cheaperUp)
	if !aligned {
		return 0
	}
	adj := 0.3
	liqDir := in.Liquidity.Direction.Direction
	if (cheaperUp && liqDir == domain.DirectionUp) || (!cheaperUp && liqDir == domain.DirectionDown) {
		adj += 0.2
	}
	return adj
}
