package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/smartflow/internal/domain"
)

// flat builds a baseline window of small identical candles.
func flat(n int, price float64) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{
			Open: price, High: price + 0.5, Low: price - 0.5, Close: price,
			Volume: 10, Timestamp: int64(i) * 60000,
		}
	}
	return out
}

// spike plants a high-volume wide-range bar at index i.
func spikeHigh(candles []domain.Candle, i int, high float64) {
	candles[i].High = high
	candles[i].Volume = 30
}

func spikeLow(candles []domain.Candle, i int, low float64) {
	candles[i].Low = low
	candles[i].Volume = 30
}

func TestSwingHighStrictDominance(t *testing.T) {
	candles := flat(30, 100)
	spikeHigh(candles, 10, 104)
	spikeLow(candles, 20, 96)

	sw := detectSwings(candles, 2)
	require.Len(t, sw.Highs, 1)
	require.Len(t, sw.Lows, 1)
	assert.Equal(t, 10, sw.Highs[0].Index)
	assert.Equal(t, 104.0, sw.Highs[0].Price)
	assert.Equal(t, 20, sw.Lows[0].Index)

	// Strict dominance over the +-lookback window.
	for j := 8; j <= 12; j++ {
		if j == 10 {
			continue
		}
		assert.Greater(t, sw.Highs[0].Price, candles[j].High)
	}
}

func TestInsignificantSwingDropped(t *testing.T) {
	candles := flat(30, 100)
	// Barely a local high, no volume and no range expansion.
	candles[10].High = 100.55

	sw := detectSwings(candles, 2)
	assert.Empty(t, sw.Highs)
}

func TestTrendBullishFromHigherHighsLows(t *testing.T) {
	candles := flat(60, 100)
	spikeHigh(candles, 10, 104)
	spikeLow(candles, 18, 97)
	spikeHigh(candles, 30, 106)
	spikeLow(candles, 40, 98.5)

	e := NewEngine(Config{})
	snap := e.Analyze(candles)
	assert.Equal(t, TrendBullish, snap.Trend)
}

func TestTrendRangeConfirmed(t *testing.T) {
	candles := flat(60, 100)
	spikeHigh(candles, 10, 104)
	spikeLow(candles, 18, 96)
	spikeHigh(candles, 30, 103.8)
	spikeLow(candles, 40, 96.3)

	e := NewEngine(Config{})
	snap := e.Analyze(candles)
	assert.Equal(t, TrendRange, snap.Trend)
	require.True(t, snap.Range.InRange)
	assert.Equal(t, 104.0, snap.Range.Top)
	assert.Equal(t, 96.0, snap.Range.Bottom)
}

func TestFairValueGaps(t *testing.T) {
	candles := []domain.Candle{
		{Open: 100, High: 101, Low: 99, Close: 100.5},
		{Open: 100.5, High: 104, Low: 100.4, Close: 103.8},
		{Open: 103.8, High: 105, Low: 102.5, Close: 104},
	}
	gaps := detectGaps(candles)
	require.Len(t, gaps, 1)
	assert.Equal(t, GapBullish, gaps[0].Kind)
	assert.Equal(t, 101.0, gaps[0].Low)
	assert.Equal(t, 102.5, gaps[0].High)
}

func TestOrderBlockBeforeImpulse(t *testing.T) {
	candles := flat(20, 100)
	// Bearish bar followed by a wide bullish impulse.
	candles[10] = domain.Candle{Open: 100.5, High: 100.8, Low: 99.6, Close: 99.8, Volume: 12, Timestamp: 600000}
	candles[11] = domain.Candle{Open: 99.8, High: 104, Low: 99.7, Close: 103.8, Volume: 40, Timestamp: 660000}

	e := NewEngine(Config{})
	blocks := e.detectOrderBlocks(candles)
	require.NotEmpty(t, blocks)
	assert.Equal(t, 10, blocks[0].Index)
	assert.Equal(t, GapBullish, blocks[0].Kind)
}

func TestPhaseAnalyzerExecutionLeg(t *testing.T) {
	candles := make([]domain.Candle, 40)
	price := 100.0
	for i := range candles {
		if i >= 20 {
			price *= 1.01
		}
		candles[i] = domain.Candle{
			Open: price, High: price * 1.002, Low: price * 0.998, Close: price,
			Volume: 10, Timestamp: int64(i) * 3600000,
		}
	}
	rep := NewPhaseAnalyzer().Analyze(candles, 1)
	assert.Equal(t, HTFExecutionUp, rep.CurrentPhase)
	assert.NotEmpty(t, rep.History)
}

func TestCombineHTFBullish(t *testing.T) {
	htf1 := Snapshot{Trend: TrendBullish}
	htf2 := Snapshot{Trend: TrendBullish}
	p1 := PhaseReport{GlobalTrend: HTFAccumulation}
	p2 := PhaseReport{GlobalTrend: HTFAccumulation}

	bias := CombineHTF(htf1, htf2, p1, p2)
	assert.Equal(t, domain.DirectionUp, bias.Direction)
	assert.Greater(t, bias.Strength, 0.5)
	assert.Equal(t, 1.0, bias.Alignment)
}

func TestCombineHTFConflictNeutralizes(t *testing.T) {
	bias := CombineHTF(
		Snapshot{Trend: TrendBullish}, Snapshot{Trend: TrendBearish},
		PhaseReport{GlobalTrend: HTFNeutral}, PhaseReport{GlobalTrend: HTFNeutral},
	)
	assert.Equal(t, domain.DirectionNeutral, bias.Direction)
}
