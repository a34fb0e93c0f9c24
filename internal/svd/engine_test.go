package svd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/smartflow/internal/domain"
)

func depth(bidSizes, askSizes []float64) *domain.OrderBook {
	bids := make([]domain.BookLevel, len(bidSizes))
	asks := make([]domain.BookLevel, len(askSizes))
	for i, s := range bidSizes {
		bids[i] = domain.BookLevel{Price: 100 - 0.01*float64(i+1), Size: s}
	}
	for i, s := range askSizes {
		asks[i] = domain.BookLevel{Price: 100 + 0.01*float64(i+1), Size: s}
	}
	return domain.NewOrderBook(bids, asks, time.Now().UnixMilli())
}

func flow(n int, buyShare float64, vol float64) []domain.Trade {
	out := make([]domain.Trade, n)
	for i := range out {
		side := domain.SideSell
		if float64(i%10) < buyShare*10 {
			side = domain.SideBuy
		}
		out[i] = domain.Trade{Price: 100, Volume: vol, Side: side, Timestamp: int64(i) * 200}
	}
	return out
}

func TestDOMImbalance(t *testing.T) {
	book := depth([]float64{12, 12, 12, 12, 12}, []float64{6, 6, 6, 6, 6})
	rep := domImbalance(book)
	assert.Equal(t, BookBid, rep.Side)
	assert.InDelta(t, 2.0, rep.Ratio, 1e-9)

	book = depth([]float64{5, 5, 5, 5, 5}, []float64{5, 5, 5, 5, 5})
	assert.Equal(t, BookNeutral, domImbalance(book).Side)
}

func TestThinZones(t *testing.T) {
	asks := []float64{5, 5, 1, 5, 5}
	book := depth([]float64{5, 5, 5, 5, 5}, asks)
	rep := thinZones(book)
	require.NotNil(t, rep.Above)
	assert.Equal(t, 1.0, rep.Above.Size)
	assert.Nil(t, rep.Below)
}

func TestPathCostThinDiscount(t *testing.T) {
	thinBook := depth([]float64{5, 5, 5, 5, 5}, []float64{5, 5, 1, 5, 5})
	evenBook := depth([]float64{5, 5, 5, 5, 5}, []float64{5, 5, 5, 5, 5})

	thin := thinZones(thinBook)
	rep := pathCost(thinBook, 100, thin)
	even := pathCost(evenBook, 100, thinZones(evenBook))
	assert.Less(t, rep.Up, even.Up)
	assert.InDelta(t, even.Down, rep.Down, 1e-9)
}

func TestSpoofConfirmation(t *testing.T) {
	e := NewEngine()
	now := time.Now()

	// Tick 1: a 4x+ wall on the ask within 0.2% of price.
	walled := depth([]float64{5, 5, 5, 5, 5}, []float64{5, 100, 5, 5, 5})
	snap := e.Analyze(flow(20, 0.5, 1), walled, 1.0, now)
	require.NotNil(t, snap.Spoof.Wall)
	assert.Equal(t, BookAsk, snap.Spoof.Wall.Side)

	// Tick 2, 10s later: wall gone, price unchanged.
	clean := depth([]float64{5, 5, 5, 5, 5}, []float64{5, 5, 5, 5, 5})
	snap = e.Analyze(flow(20, 0.5, 1), clean, 1.0, now.Add(10*time.Second))
	assert.True(t, snap.Spoof.Confirmed)
	require.Len(t, snap.Spoof.Events, 1)
	assert.Equal(t, BookAsk, snap.Spoof.Events[0].Side)
}

func TestSpoofNotConfirmedAfterLongLife(t *testing.T) {
	e := NewEngine()
	now := time.Now()
	walled := depth([]float64{5, 5, 5, 5, 5}, []float64{5, 100, 5, 5, 5})
	clean := depth([]float64{5, 5, 5, 5, 5}, []float64{5, 5, 5, 5, 5})

	e.Analyze(flow(20, 0.5, 1), walled, 1.0, now)
	// Wall survives a second observation 20s in, so its lifetime exceeds 15s.
	e.Analyze(flow(20, 0.5, 1), walled, 1.0, now.Add(20*time.Second))
	snap := e.Analyze(flow(20, 0.5, 1), clean, 1.0, now.Add(30*time.Second))
	assert.False(t, snap.Spoof.Confirmed)
	assert.Empty(t, snap.Spoof.Events)
}

func TestAbsorptionFlatTapeHeavyFlow(t *testing.T) {
	book := depth([]float64{5, 5, 5, 5, 5}, []float64{2, 2, 2, 2, 2})
	// Flat prices, all buys, 10-trade volume 50 > 4 x avg ask (2).
	trades := flow(10, 1.0, 5)
	rep := detectAbsorption(trades, book, 1.0)
	assert.True(t, rep.Absorbing)
	assert.Equal(t, domain.SideBuy, rep.Side)
}

func TestAbsorptionRejectedOnDrift(t *testing.T) {
	book := depth([]float64{5, 5, 5, 5, 5}, []float64{2, 2, 2, 2, 2})
	trades := flow(10, 1.0, 5)
	for i := range trades {
		trades[i].Price = 100 + float64(i)*0.1
	}
	rep := detectAbsorption(trades, book, 1.0)
	assert.False(t, rep.Absorbing)
}

func TestIntentLadderCVDMagnitude(t *testing.T) {
	e := NewEngine()
	now := time.Now()
	book := depth([]float64{8, 8, 8, 8, 8}, []float64{5, 5, 5, 5, 5})

	var snap Snapshot
	for i := 0; i < 5; i++ {
		snap = e.Analyze(flow(30, 0.7, 10), book, 1.0, now.Add(time.Duration(i)*time.Second))
	}
	assert.Equal(t, domain.IntentAccumulating, snap.Intent)
	assert.True(t, snap.CVDConfirms)
	assert.Greater(t, snap.CVD.Value, 5.0)
}

func TestIntentReversalDetection(t *testing.T) {
	c := NewCVDCalculator()
	// Deep negative CVD, then a sharply rising tail.
	for i := 0; i < 30; i++ {
		c.Update([]domain.Trade{{Price: 100, Volume: 10, Side: domain.SideSell}})
	}
	for i := 0; i < 25; i++ {
		c.Update([]domain.Trade{{Price: 100, Volume: 8, Side: domain.SideBuy}})
	}
	require.Less(t, c.Value(), -cvdIntentMagnitude)
	require.Greater(t, c.Slope(), 1.5)

	snap := Snapshot{CVD: CVDReport{Value: c.Value(), Slope: c.Slope()}}
	intent, reversal := classifyIntent(snap, domain.PhaseDiscovery)
	assert.Equal(t, domain.IntentAccumulating, intent)
	assert.True(t, reversal)
}

func TestExecutionPhaseSlopeOverride(t *testing.T) {
	snap := Snapshot{CVD: CVDReport{Value: 50, Slope: -1.2}}
	intent, _ := classifyIntent(snap, domain.PhaseExecution)
	assert.Equal(t, domain.IntentDistributing, intent)

	// Outside execution the CVD magnitude wins.
	intent, _ = classifyIntent(snap, domain.PhaseDiscovery)
	assert.Equal(t, domain.IntentAccumulating, intent)
}

func TestPhaseDetectionPriority(t *testing.T) {
	execution := Snapshot{Absorption: AbsorptionReport{Absorbing: true}}
	assert.Equal(t, domain.PhaseExecution, detectPhase(execution))

	manipulation := Snapshot{Spoof: SpoofReport{Wall: &Wall{Side: BookAsk}}}
	assert.Equal(t, domain.PhaseManipulation, detectPhase(manipulation))

	distribution := Snapshot{Intent: domain.IntentDistributing, DOM: DOMReport{Side: BookAsk}}
	assert.Equal(t, domain.PhaseDistribution, detectPhase(distribution))

	assert.Equal(t, domain.PhaseDiscovery, detectPhase(Snapshot{Intent: domain.IntentUnclear}))
}

func TestPhaseTrackerTransitions(t *testing.T) {
	p := NewPhaseTracker()
	now := time.Now()

	up := p.Observe(domain.PhaseManipulation, now)
	assert.True(t, up.Changed)
	assert.True(t, up.ValidTransition)

	up = p.Observe(domain.PhaseExecution, now.Add(time.Second))
	assert.True(t, up.ValidTransition)

	// Execution -> manipulation is off-cycle.
	up = p.Observe(domain.PhaseManipulation, now.Add(2*time.Second))
	assert.False(t, up.ValidTransition)
	assert.Len(t, up.History, 3)
}

func TestPhaseHistoryBounded(t *testing.T) {
	p := NewPhaseTracker()
	now := time.Now()
	phases := []domain.Phase{domain.PhaseManipulation, domain.PhaseExecution, domain.PhaseDistribution, domain.PhaseDiscovery}
	for i := 0; i < 20; i++ {
		now = now.Add(time.Second)
		p.Observe(phases[i%4], now)
	}
	up := p.Observe(domain.PhaseManipulation, now.Add(time.Second))
	assert.LessOrEqual(t, len(up.History), phaseHistoryCap)
}

func TestPhaseConfidenceDurationBonus(t *testing.T) {
	p := NewPhaseTracker()
	now := time.Now()
	first := p.Observe(domain.PhaseDiscovery, now)
	later := p.Observe(domain.PhaseDiscovery, now.Add(2*time.Minute))
	assert.Greater(t, later.Confidence, first.Confidence)
}

func TestScoreConfidenceBounds(t *testing.T) {
	loud := Snapshot{
		Delta:      150000,
		Absorption: AbsorptionReport{Absorbing: true},
		Aggression: AggressionReport{BuyVolume: 100, SellVolume: 10},
		Velocity:   120,
		DOM:        DOMReport{Ratio: 2, Side: BookBid},
		Buckets:    BucketReport{LastDelta: 10, LastVelocity: 5, MeanVelocity: 1},
	}
	assert.Equal(t, 10.0, scoreConfidence(loud))
	assert.Equal(t, 0.0, scoreConfidence(Snapshot{}))
}

func TestVelocity(t *testing.T) {
	trades := flow(21, 0.5, 1) // spans 4s
	assert.InDelta(t, 5.25, velocity(trades), 0.01)
}
