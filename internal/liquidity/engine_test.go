package liquidity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/structure"
)

func bars(n int, price float64, now time.Time) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		ts := now.Add(-time.Duration(n-1-i) * time.Minute).UnixMilli()
		out[i] = domain.Candle{Open: price, High: price + 0.5, Low: price - 0.5, Close: price, Volume: 10, Timestamp: ts}
	}
	return out
}

func TestStopClustersFromWicks(t *testing.T) {
	now := time.Now()
	candles := bars(10, 100, now)
	// Long upper wick: body 100->100.1, high 103.
	candles[5] = domain.Candle{Open: 100, High: 103, Low: 99.9, Close: 100.1, Volume: 10, Timestamp: candles[5].Timestamp}
	// Long lower wick: body 100->99.9, low 97.
	candles[7] = domain.Candle{Open: 100, High: 100.1, Low: 97, Close: 99.9, Volume: 10, Timestamp: candles[7].Timestamp}

	levels := stopClusters(candles, domain.DefaultHalfLifeSeconds, now)
	require.Len(t, levels, 2)
	assert.Equal(t, domain.BuyStops, levels[0].Kind)
	assert.Equal(t, 103.0, levels[0].Price)
	assert.Equal(t, domain.SellStops, levels[1].Kind)
	assert.Equal(t, 97.0, levels[1].Price)
	assert.InDelta(t, 1.0, levels[0].Weight, 0.01)
}

func TestDirectionHintHysteresis(t *testing.T) {
	up := []domain.LiquidityLevel{
		{Price: 105, Kind: domain.BuyStops, Weight: 1},
		{Price: 107, Kind: domain.BuyStops, Weight: 1},
	}
	down := []domain.LiquidityLevel{{Price: 95, Kind: domain.SellStops, Weight: 1}}

	rep := directionHint(append(up, down...), 100)
	assert.Equal(t, domain.DirectionUp, rep.Direction)
	assert.Equal(t, 2.0, rep.UpWeight)
	assert.Equal(t, 1.0, rep.DownWeight)

	// 1.05 vs 1.0 sits inside the 10% hysteresis band.
	near := []domain.LiquidityLevel{
		{Price: 105, Kind: domain.BuyStops, Weight: 1.05},
		{Price: 95, Kind: domain.SellStops, Weight: 1},
	}
	assert.Equal(t, domain.DirectionNeutral, directionHint(near, 100).Direction)
}

func TestDetectSweepUp(t *testing.T) {
	now := time.Now()
	candles := bars(60, 100, now)
	// History high is 100.5. Bar 58 pierces to 101.5 and closes back at 100.1.
	candles[58].High = 101.5
	candles[58].Close = 100.1

	rep := detectSweep(candles, 50)
	assert.True(t, rep.SweepUp)
	assert.False(t, rep.SweepDown)
	assert.True(t, rep.PostReversal)
	assert.Equal(t, 100.5, rep.Level)
}

func TestDetectSweepRequiresReversalClose(t *testing.T) {
	now := time.Now()
	candles := bars(60, 100, now)
	// Pierce and hold above: all three last closes above the old high.
	for i := 57; i < 60; i++ {
		candles[i].High = 102
		candles[i].Close = 101.5
		candles[i].Open = 101.4
		candles[i].Low = 101.2
	}
	rep := detectSweep(candles, 50)
	assert.False(t, rep.SweepUp)
}

func TestDetectBreakout(t *testing.T) {
	now := time.Now()
	candles := bars(30, 100, now)
	for i := 27; i < 30; i++ {
		candles[i].Close = 102
	}
	rep := detectBreakout(candles, 101, true)
	assert.True(t, rep.Strong)
	assert.Equal(t, domain.DirectionUp, rep.Direction)

	candles[27].Close = 100.5
	rep = detectBreakout(candles, 101, true)
	assert.True(t, rep.Weak)
	assert.False(t, rep.Strong)
}

func TestVolumeProfileValueAreaInvariant(t *testing.T) {
	now := time.Now()
	candles := bars(100, 100, now)
	// Concentrate volume around 100, tails toward 95 and 105.
	candles[10].Low, candles[10].High, candles[10].Volume = 94, 96, 5
	candles[20].Low, candles[20].High, candles[20].Volume = 104, 106, 5

	rep := buildProfile(candles, 100)
	require.True(t, rep.Valid)
	assert.LessOrEqual(t, rep.VAL, rep.PoC)
	assert.GreaterOrEqual(t, rep.VAH, rep.PoC)
	assert.Equal(t, InsideValueArea, rep.Position)
	assert.Equal(t, PoCMagnet, rep.Role)

	// Value area must cover at least 70% of total volume.
	var covered float64
	for _, c := range candles {
		mid := (c.High + c.Low) / 2
		if mid >= rep.VAL && mid <= rep.VAH {
			covered += c.Volume
		}
	}
	assert.GreaterOrEqual(t, covered, rep.TotalVolume*0.7)
}

func TestEngineAnalyzeComposes(t *testing.T) {
	now := time.Now()
	e := NewEngine(Config{})
	st := structure.NewEngine(structure.Config{})

	candles := bars(80, 100, now)
	candles[40].High = 104
	candles[40].Volume = 30
	candles[50].Low = 96
	candles[50].Volume = 30

	snap := e.Analyze(candles, st.Analyze(candles), now)
	assert.True(t, snap.HasExtremes)
	assert.Equal(t, 104.0, snap.ATH.Price)
	assert.Equal(t, 96.0, snap.ATL.Price)
	assert.NotNil(t, e.Tracker())
}

func TestHistoricalSweepConfirmed(t *testing.T) {
	now := time.Now()
	candles := bars(60, 100, now)
	// Swing high at 30 (price 104), pierced at 40 with a reversal close,
	// then ten quiet bars with no retest.
	candles[30].High = 104
	candles[30].Volume = 30
	candles[40].High = 104.5
	candles[40].Close = 103.5

	st := structure.NewEngine(structure.Config{})
	sw := st.Analyze(candles).Swings
	require.NotEmpty(t, sw.Highs)

	tr := NewSweptTracker(24)
	recs := historicalSweeps(candles, sw, tr, now)
	require.Len(t, recs, 1)
	assert.Equal(t, 104.0, recs[0].Price)
	assert.Equal(t, 19, recs[0].CandlesAgo)
	assert.True(t, tr.IsSwept(104, 0.5, now))
}
