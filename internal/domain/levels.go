package domain

import "math"

// LevelKind tags which kind of resting stops a liquidity level implies.
type LevelKind string

const (
	BuyStops  LevelKind = "buy_stops"
	SellStops LevelKind = "sell_stops"
)

// LevelSource names the detector that produced a liquidity level.
type LevelSource string

const (
	SourceStopCluster    LevelSource = "stop_cluster"
	SourceSwingLiquidity LevelSource = "swing_liquidity"
	SourceExtreme        LevelSource = "extreme"
)

// SwingPoint is a local extremum retained by the structure engine.
// Significance = (volume_ratio + range_ratio) / 2 against window averages.
type SwingPoint struct {
	Index        int
	Price        float64
	Timestamp    int64
	Significance float64
}

// LiquidityLevel is a price where stops are assumed to rest. Weight is the
// time-decayed relevance in [0,1]; extremes (ATH/ATL) always carry 1.0.
type LiquidityLevel struct {
	Price     float64
	Kind      LevelKind
	Source    LevelSource
	Timestamp int64
	Weight    float64
}

// DefaultHalfLifeSeconds is the decay half-life for liquidity levels.
const DefaultHalfLifeSeconds = 86400.0

// DecayWeight returns 0.5^(age/halfLife) clamped to [0,1]. Zero or negative
// age yields full weight.
func DecayWeight(ageSeconds, halfLifeSeconds float64) float64 {
	if ageSeconds <= 0 || halfLifeSeconds <= 0 {
		return 1.0
	}
	w := math.Pow(0.5, ageSeconds/halfLifeSeconds)
	if w > 1 {
		return 1
	}
	if w < 0 {
		return 0
	}
	return w
}
