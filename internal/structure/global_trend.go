package structure

import "github.com/sawpanic/smartflow/internal/domain"

// GlobalBias combines two higher timeframes into one directional context for
// the decision layer. HTF2 (the slower frame) carries more weight.
type GlobalBias struct {
	Direction domain.Direction
	Strength  float64
	HTF1Trend Trend
	HTF2Trend Trend
	HTF1Phase HTFPhase
	HTF2Phase HTFPhase
	Alignment float64
}

const (
	htf1Weight = 0.4
	htf2Weight = 0.6
)

// CombineHTF blends the two structural trends (70%) with the phase-analysis
// global trends (30%) into a single up/down/neutral bias.
func CombineHTF(htf1, htf2 Snapshot, phases1, phases2 PhaseReport) GlobalBias {
	bias := GlobalBias{
		HTF1Trend: htf1.Trend,
		HTF2Trend: htf2.Trend,
		HTF1Phase: phases1.GlobalTrend,
		HTF2Phase: phases2.GlobalTrend,
	}

	trendScore := trendSign(htf2.Trend)*htf2Weight + trendSign(htf1.Trend)*htf1Weight
	phaseScore := phaseSign(phases2.GlobalTrend)*htf2Weight*0.5 + phaseSign(phases1.GlobalTrend)*htf1Weight*0.5
	total := trendScore*0.7 + phaseScore*0.3

	switch {
	case total > 0.2:
		bias.Direction = domain.DirectionUp
	case total < -0.2:
		bias.Direction = domain.DirectionDown
	default:
		bias.Direction = domain.DirectionNeutral
	}
	bias.Strength = abs(total)
	bias.Alignment = alignmentScore(htf1.Trend, htf2.Trend, phases1.GlobalTrend, phases2.GlobalTrend)
	return bias
}

func trendSign(t Trend) float64 {
	switch t {
	case TrendBullish:
		return 1
	case TrendBearish:
		return -1
	}
	return 0
}

func phaseSign(p HTFPhase) float64 {
	switch p {
	case HTFAccumulation, HTFExecutionUp:
		return 1
	case HTFDistribution, HTFExecutionDown:
		return -1
	}
	return 0
}

func alignmentScore(t1, t2 Trend, p1, p2 HTFPhase) float64 {
	signs := []float64{trendSign(t1), trendSign(t2), phaseSign(p1), phaseSign(p2)}
	pos, neg, active := 0, 0, 0
	for _, s := range signs {
		switch {
		case s > 0:
			pos++
			active++
		case s < 0:
			neg++
			active++
		}
	}
	if active == 0 {
		return 0
	}
	major := pos
	if neg > major {
		major = neg
	}
	return float64(major) / float64(active)
}
