// Package svd reads the tape and the book for smart-volume dynamics:
// who is hitting, who is absorbing, where the walls and thin spots are,
// and which market-maker phase the flow implies. The engine owns the
// process-lifetime CVD accumulator, phase tracker and spoof memory.
package svd

import (
	"time"

	"github.com/sawpanic/smartflow/internal/domain"
)

// AbsorptionReport flags passive size soaking market orders.
type AbsorptionReport struct {
	Absorbing bool
	Side      domain.Side
}

// AggressionReport totals market-order volume per side.
type AggressionReport struct {
	BuyVolume  float64
	SellVolume float64
}

// Snapshot is the full SVD readout for one tick.
type Snapshot struct {
	Delta            float64
	NormalizedDelta  float64
	CVD              CVDReport
	Divergence       bool
	Absorption       AbsorptionReport
	Aggression       AggressionReport
	Velocity         float64
	DOM              DOMReport
	Thin             ThinReport
	Spoof            SpoofReport
	Chasing          ChasingReport
	Buckets          BucketReport
	Crowd            CrowdReport
	PathCost         PathCostReport
	Intent           domain.Intent
	ReversalDetected bool
	CVDConfirms      bool
	PullbackOrBounce bool
	Phase            domain.Phase
	PhaseInfo        PhaseUpdate
	Confidence       float64
}

// Engine owns the stateful trackers and derives the snapshot each tick.
type Engine struct {
	cvd    *CVDCalculator
	phases *PhaseTracker
	spoofs spoofTracker
	quotes quoteTracker
}

// NewEngine builds an engine with fresh state.
func NewEngine() *Engine {
	return &Engine{
		cvd:    NewCVDCalculator(),
		phases: NewPhaseTracker(),
	}
}

// CVD exposes the accumulator for tests and the HTTP surface.
func (e *Engine) CVD() *CVDCalculator { return e.cvd }

// Analyze consumes the tick's trades and book. atrPct adapts thresholds to
// current volatility; trades must be ascending by timestamp.
func (e *Engine) Analyze(trades []domain.Trade, book *domain.OrderBook, atrPct float64, now time.Time) Snapshot {
	snap := Snapshot{Intent: domain.IntentUnclear, Phase: domain.PhaseDiscovery}

	for _, t := range trades {
		snap.Delta += t.SignedVolume()
		if t.Side == domain.SideBuy {
			snap.Aggression.BuyVolume += t.Volume
		} else {
			snap.Aggression.SellVolume += t.Volume
		}
	}
	snap.NormalizedDelta = snap.Delta * deltaNormFactor(atrPct)
	snap.Velocity = velocity(trades)

	snap.CVD = e.cvd.Update(trades)
	snap.Divergence = e.cvd.Divergence(trades)
	snap.CVD.Divergence = snap.Divergence

	price := 0.0
	if len(trades) > 0 {
		price = trades[len(trades)-1].Price
	} else if book != nil {
		if mid, ok := book.MidPrice(); ok {
			price = mid
		}
	}

	snap.Absorption = detectAbsorption(trades, book, atrPct)
	snap.DOM = domImbalance(book)
	snap.Thin = thinZones(book)
	snap.Spoof = e.spoofs.observe(book, price, now)
	snap.Chasing = e.quotes.observe(book)
	snap.Buckets = bucketTrades(trades)
	snap.Crowd = detectCrowd(snap.Buckets, trades)
	snap.PathCost = pathCost(book, price, snap.Thin)
	if f := pathNormFactor(atrPct); f != 1 {
		snap.PathCost.Up *= f
		snap.PathCost.Down *= f
	}

	snap.Intent, snap.ReversalDetected = classifyIntent(snap, e.phases.Current())
	snap.CVDConfirms, snap.PullbackOrBounce = cvdConfirmation(snap)

	snap.Phase = detectPhase(snap)
	snap.PhaseInfo = e.phases.Observe(snap.Phase, now)
	snap.Confidence = scoreConfidence(snap)
	return snap
}

// velocity is prints per second across the buffer's time span.
func velocity(trades []domain.Trade) float64 {
	if len(trades) < 2 {
		return 0
	}
	spanMs := trades[len(trades)-1].Timestamp - trades[0].Timestamp
	if spanMs <= 0 {
		return 0
	}
	return float64(len(trades)) / (float64(spanMs) / 1000.0)
}

// detectAbsorption flags a flat tape under heavy one-sided flow: the
// 10-trade price drift stays under the ATR-adaptive threshold while the
// 10-trade volume exceeds 4x the opposing side's average depth.
func detectAbsorption(trades []domain.Trade, book *domain.OrderBook, atrPct float64) AbsorptionReport {
	rep := AbsorptionReport{}
	if len(trades) < 10 || book == nil {
		return rep
	}
	recent := trades[len(trades)-10:]
	first, last := recent[0].Price, recent[len(recent)-1].Price
	if first <= 0 {
		return rep
	}
	driftPct := (last - first) / first * 100
	if driftPct < 0 {
		driftPct = -driftPct
	}
	if driftPct > absorptionThresholdPct(atrPct) {
		return rep
	}

	buy, sell, vol := 0.0, 0.0, 0.0
	for _, t := range recent {
		vol += t.Volume
		if t.Side == domain.SideBuy {
			buy += t.Volume
		} else {
			sell += t.Volume
		}
	}
	dominant := domain.SideBuy
	opposing := book.AvgAsk
	if sell > buy {
		dominant = domain.SideSell
		opposing = book.AvgBid
	}
	if opposing > 0 && vol > opposing*4 {
		rep.Absorbing = true
		rep.Side = dominant
	}
	return rep
}

// classifyIntent runs the priority ladder: reversal, CVD magnitude, CVD
// slope, then snapshot delta vs aggression. In execution phase the slope
// overrides everything.
func classifyIntent(s Snapshot, phase domain.Phase) (domain.Intent, bool) {
	cvd, slope := s.CVD.Value, s.CVD.Slope
	reversal := (cvd < -cvdIntentMagnitude && slope > 1.5) ||
		(cvd > cvdIntentMagnitude && slope < -1.5)

	if phase == domain.PhaseExecution {
		if slope > 1 {
			return domain.IntentAccumulating, reversal
		}
		if slope < -1 {
			return domain.IntentDistributing, reversal
		}
	}

	if cvd < -cvdIntentMagnitude && slope > 1.5 {
		return domain.IntentAccumulating, true
	}
	if cvd > cvdIntentMagnitude && slope < -1.5 {
		return domain.IntentDistributing, true
	}

	if cvd > cvdIntentMagnitude {
		return domain.IntentAccumulating, false
	}
	if cvd < -cvdIntentMagnitude {
		return domain.IntentDistributing, false
	}

	if slope > 0.5 {
		return domain.IntentAccumulating, false
	}
	if slope < -0.5 {
		return domain.IntentDistributing, false
	}

	if s.Delta > 0 && s.Aggression.BuyVolume > s.Aggression.SellVolume {
		return domain.IntentAccumulating, false
	}
	if s.Delta < 0 && s.Aggression.SellVolume > s.Aggression.BuyVolume {
		return domain.IntentDistributing, false
	}
	return domain.IntentUnclear, false
}

// cvdConfirmation checks whether the CVD sign backs the intent and whether
// a temporary counter-slope reads as a pullback rather than a flip.
func cvdConfirmation(s Snapshot) (confirms, pullback bool) {
	switch s.Intent {
	case domain.IntentAccumulating:
		if s.CVD.Value > 0 && s.CVD.Slope >= 0 {
			confirms = true
		}
		if s.CVD.Value > 0 && s.CVD.Slope < 0 && s.CVD.Slope > -1.5 {
			pullback = true
		}
	case domain.IntentDistributing:
		if s.CVD.Value < 0 && s.CVD.Slope <= 0 {
			confirms = true
		}
		if s.CVD.Value < 0 && s.CVD.Slope > 0 && s.CVD.Slope < 1.5 {
			pullback = true
		}
	}
	return confirms, pullback
}

const executionVelocity = 20.0

// detectPhase applies the priority order: execution, manipulation,
// distribution, discovery.
func detectPhase(s Snapshot) domain.Phase {
	switch {
	case s.Absorption.Absorbing || s.Velocity > executionVelocity:
		return domain.PhaseExecution
	case s.Spoof.Wall != nil || s.Spoof.Confirmed:
		return domain.PhaseManipulation
	case s.Intent != domain.IntentUnclear && domAligned(s.Intent, s.DOM.Side):
		return domain.PhaseDistribution
	}
	return domain.PhaseDiscovery
}

func domAligned(intent domain.Intent, side BookSide) bool {
	return (intent == domain.IntentAccumulating && side == BookBid) ||
		(intent == domain.IntentDistributing && side == BookAsk)
}

// scoreConfidence grades how loudly the tape is speaking, 0..10.
func scoreConfidence(s Snapshot) float64 {
	score := 0.0

	absDelta := s.Delta
	if absDelta < 0 {
		absDelta = -absDelta
	}
	switch {
	case absDelta > 100000:
		score += 3
	case absDelta > 50000:
		score += 2.5
	case absDelta > 20000:
		score += 2
	case absDelta > 5000:
		score += 1
	case absDelta > 0:
		score += 0.5
	}

	if s.Absorption.Absorbing {
		score += 3
	}

	buy, sell := s.Aggression.BuyVolume, s.Aggression.SellVolume
	hi, lo := buy, sell
	if sell > buy {
		hi, lo = sell, buy
	}
	if lo > 0 {
		switch ratio := hi / lo; {
		case ratio > 1.5:
			score += 2
		case ratio > 1.2:
			score += 1
		}
	} else if hi > 0 {
		score += 2
	}

	switch {
	case s.Velocity > 100:
		score += 3
	case s.Velocity > 50:
		score += 2
	case s.Velocity > 20:
		score += 1.5
	case s.Velocity > 5:
		score += 1
	case s.Velocity > 0:
		score += 0.5
	}

	switch {
	case s.DOM.Ratio > 1.5 || (s.DOM.Ratio < 0.67 && s.DOM.Ratio > 0):
		score += 1
	case s.DOM.Side == BookBid || s.DOM.Side == BookAsk:
		score += 0.5
	}

	if s.Buckets.LastDelta != 0 && s.Buckets.LastVelocity > s.Buckets.MeanVelocity {
		score += 0.5
	}

	if score > 10 {
		score = 10
	}
	return score
}
