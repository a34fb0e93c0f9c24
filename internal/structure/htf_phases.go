package structure

import "github.com/sawpanic/smartflow/internal/domain"

// HTFPhase classifies a rolling higher-timeframe window by what volume and
// price did inside it.
type HTFPhase string

const (
	HTFAccumulation  HTFPhase = "accumulation"
	HTFDistribution  HTFPhase = "distribution"
	HTFExecutionUp   HTFPhase = "execution_up"
	HTFExecutionDown HTFPhase = "execution_down"
	HTFNeutral       HTFPhase = "neutral"
)

// PhaseSpan is one contiguous stretch of a single HTF phase.
type PhaseSpan struct {
	Phase         HTFPhase
	StartIndex    int
	EndIndex      int
	StartPrice    float64
	EndPrice      float64
	DurationHours float64
	Active        bool
}

// PhaseReport summarizes the phase history of one higher timeframe.
type PhaseReport struct {
	GlobalTrend     HTFPhase
	TrendStrength   float64
	History         []PhaseSpan
	CurrentPhase    HTFPhase
	CurrentDuration float64
	Consistency     float64
}

const phaseWindow = 10

// PhaseAnalyzer classifies higher-timeframe candles into
// accumulation/distribution/execution phases. Stateless.
type PhaseAnalyzer struct{}

// NewPhaseAnalyzer builds the analyzer.
func NewPhaseAnalyzer() *PhaseAnalyzer { return &PhaseAnalyzer{} }

// Analyze walks the window classifying each rolling block.
// candleHours is the bar duration in hours (1 for 1h, 4 for 4h).
func (a *PhaseAnalyzer) Analyze(candles []domain.Candle, candleHours float64) PhaseReport {
	rep := PhaseReport{GlobalTrend: HTFNeutral, CurrentPhase: HTFNeutral}
	if len(candles) < phaseWindow*2 {
		return rep
	}
	if candleHours <= 0 {
		candleHours = 1
	}

	avgVol := domain.AvgVolume(candles)
	current := HTFNeutral
	start := 0
	for i := phaseWindow; i <= len(candles); i++ {
		phase := classifyBlock(candles[i-phaseWindow:i], avgVol)
		if phase != current {
			if i > phaseWindow {
				rep.History = append(rep.History, span(candles, current, start, i-1, candleHours, false))
			}
			current = phase
			start = i - phaseWindow
		}
	}
	rep.History = append(rep.History, span(candles, current, start, len(candles)-1, candleHours, true))

	rep.CurrentPhase = current
	rep.CurrentDuration = rep.History[len(rep.History)-1].DurationHours
	rep.GlobalTrend, rep.TrendStrength = dominantTrend(rep.History)
	rep.Consistency = consistency(rep.History, rep.GlobalTrend)
	return rep
}

// classifyBlock labels a 10-bar block. Elevated volume with flat price is
// accumulation or distribution depending on drift sign; a >3% move is an
// execution leg.
func classifyBlock(block []domain.Candle, avgVol float64) HTFPhase {
	first, last := block[0].Close, block[len(block)-1].Close
	if first <= 0 {
		return HTFNeutral
	}
	change := (last - first) / first * 100

	low, high := block[0].Low, block[0].High
	vol := 0.0
	for _, c := range block {
		if c.Low < low {
			low = c.Low
		}
		if c.High > high {
			high = c.High
		}
		vol += c.Volume
	}
	rangePct := 0.0
	if low > 0 {
		rangePct = (high - low) / low * 100
	}
	blockAvg := vol / float64(len(block))

	switch {
	case change > 3:
		return HTFExecutionUp
	case change < -3:
		return HTFExecutionDown
	case avgVol > 0 && blockAvg > avgVol*1.2 && abs(change) < 2 && rangePct < 3:
		if change >= 0 {
			return HTFAccumulation
		}
		return HTFDistribution
	}
	return HTFNeutral
}

func span(candles []domain.Candle, phase HTFPhase, start, end int, candleHours float64, active bool) PhaseSpan {
	return PhaseSpan{
		Phase:         phase,
		StartIndex:    start,
		EndIndex:      end,
		StartPrice:    candles[start].Close,
		EndPrice:      candles[end].Close,
		DurationHours: float64(end-start+1) * candleHours,
		Active:        active,
	}
}

// dominantTrend weighs time spent accumulating (plus up legs) against time
// distributing (plus down legs); above 60% share wins.
func dominantTrend(history []PhaseSpan) (HTFPhase, float64) {
	var up, down, total float64
	for _, s := range history {
		total += s.DurationHours
		switch s.Phase {
		case HTFAccumulation, HTFExecutionUp:
			up += s.DurationHours
		case HTFDistribution, HTFExecutionDown:
			down += s.DurationHours
		}
	}
	if total == 0 {
		return HTFNeutral, 0
	}
	upRatio, downRatio := up/total, down/total
	switch {
	case upRatio > 0.6:
		return HTFAccumulation, upRatio
	case downRatio > 0.6:
		return HTFDistribution, downRatio
	}
	return HTFNeutral, abs(upRatio - downRatio)
}

func consistency(history []PhaseSpan, trend HTFPhase) float64 {
	if len(history) == 0 || trend == HTFNeutral {
		return 0
	}
	match := 0
	for _, s := range history {
		aligned := (trend == HTFAccumulation && (s.Phase == HTFAccumulation || s.Phase == HTFExecutionUp)) ||
			(trend == HTFDistribution && (s.Phase == HTFDistribution || s.Phase == HTFExecutionDown))
		if aligned {
			match++
		}
	}
	return float64(match) / float64(len(history))
}
