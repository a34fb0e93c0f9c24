// Package trap scores bull- and bear-trap setups: configurations where the
// crowd is being led one way while flow and book evidence point the other.
package trap

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/liquidity"
	"github.com/sawpanic/smartflow/internal/svd"
)

// Type tags the trapped crowd direction.
type Type string

const (
	BullTrap Type = "bull_trap"
	BearTrap Type = "bear_trap"
)

// Report is the trap readout for one tick.
type Report struct {
	IsTrap           bool
	Type             Type
	Score            float64
	Reasons          []string
	ExpectedReversal domain.Direction
}

// Adjustment reroutes a prevailing signal in light of a detected trap.
type Adjustment struct {
	Signal          domain.SignalDirection
	ConfidenceDelta float64
	Reason          string
}

const flipScore = 5.0

// Config holds the detection threshold.
type Config struct {
	ScoreThreshold float64 `yaml:"trap_score_threshold"`
}

// DefaultConfig returns the 3.0 threshold.
func DefaultConfig() Config { return Config{ScoreThreshold: 3.0} }

// Engine is stateless; evidence comes from the SVD and liquidity snapshots.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine; a zero threshold selects the default.
func NewEngine(cfg Config) *Engine {
	if cfg.ScoreThreshold == 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// Analyze accumulates the additive rule catalogue.
func (e *Engine) Analyze(sv svd.Snapshot, liq liquidity.Snapshot) Report {
	rep := Report{ExpectedReversal: domain.DirectionNeutral}
	liqDir := liq.Direction.Direction
	confirmedSide := lastConfirmedSpoofSide(sv)

	bull := func(pts float64, reason string) {
		rep.Score += pts
		rep.Reasons = append(rep.Reasons, reason)
		rep.Type = BullTrap
		rep.ExpectedReversal = domain.DirectionDown
	}
	bear := func(pts float64, reason string) {
		rep.Score += pts
		rep.Reasons = append(rep.Reasons, reason)
		rep.Type = BearTrap
		rep.ExpectedReversal = domain.DirectionUp
	}

	// Bull trap: the crowd buys while whales prepare the dump.
	if (sv.Crowd.FOMO || sv.Crowd.StrongFOMO) && sv.Intent == domain.IntentDistributing {
		bull(2.0, "crowd in FOMO while whales distribute")
	}
	if liqDir == domain.DirectionUp && sv.Divergence && sv.CVD.Slope < 0 {
		bull(1.5, "liquidity pulls up but CVD divergence shows weak buying")
	}
	if sv.Spoof.Confirmed && confirmedSide == svd.BookBid &&
		sv.Absorption.Absorbing && sv.Absorption.Side == domain.SideSell {
		bull(1.5, "fake bid support vanished into sell absorption")
	}
	if sv.Phase == domain.PhaseDistribution && sv.DOM.Side == svd.BookAsk && liqDir == domain.DirectionUp {
		bull(1.0, "distribution phase: ask-heavy book under a rising target")
	}
	if liq.Sweep.SweepUp && sv.Thin.Below != nil {
		bull(1.0, "sweep up collected stops with thin bids below")
	}

	// Bear trap: the crowd sells while whales prepare the pump.
	if (sv.Crowd.Panic || sv.Crowd.StrongPanic) && sv.Intent == domain.IntentAccumulating {
		bear(2.0, "crowd in panic while whales accumulate")
	}
	if liqDir == domain.DirectionDown && sv.Divergence && sv.CVD.Slope > 0 {
		bear(1.5, "liquidity pulls down but CVD divergence shows strong buying")
	}
	if sv.Spoof.Confirmed && confirmedSide == svd.BookAsk &&
		sv.Absorption.Absorbing && sv.Absorption.Side == domain.SideBuy {
		bear(1.5, "fake ask resistance vanished into buy absorption")
	}
	if (sv.Phase == domain.PhaseDiscovery || sv.Phase == domain.PhaseManipulation) &&
		sv.DOM.Side == svd.BookBid && liqDir == domain.DirectionDown {
		bear(1.0, "hidden accumulation: bid-heavy book under falling price")
	}
	if liq.Sweep.SweepDown && sv.Thin.Above != nil {
		bear(1.0, "sweep down collected stops with thin asks above")
	}

	if rep.Score > 10 {
		rep.Score = 10
	}
	rep.IsTrap = rep.Score >= e.cfg.ScoreThreshold
	if rep.IsTrap {
		log.Warn().
			Str("type", string(rep.Type)).
			Float64("score", rep.Score).
			Strs("reasons", rep.Reasons).
			Msg("trap detected")
	}
	return rep
}

// Adjust reroutes the prevailing signal. A signal aligned with the trapped
// crowd flips outright at score >= 5, otherwise drops to WAIT; a signal
// already opposing the trap earns a bonus.
func (e *Engine) Adjust(rep Report, signal domain.SignalDirection) Adjustment {
	if !rep.IsTrap {
		return Adjustment{Signal: signal, Reason: "no trap detected"}
	}

	trapped := domain.SignalBuy
	if rep.Type == BearTrap {
		trapped = domain.SignalSell
	}

	switch signal {
	case trapped:
		if rep.Score >= flipScore {
			return Adjustment{
				Signal:          trapped.Opposite(),
				ConfidenceDelta: -3.0,
				Reason:          fmt.Sprintf("%s score %.1f flips %s to %s", rep.Type, rep.Score, trapped, trapped.Opposite()),
			}
		}
		return Adjustment{
			Signal:          domain.SignalWait,
			ConfidenceDelta: -5.0,
			Reason:          fmt.Sprintf("%s score %.1f blocks %s", rep.Type, rep.Score, trapped),
		}
	case trapped.Opposite():
		return Adjustment{
			Signal:          signal,
			ConfidenceDelta: 1.5,
			Reason:          fmt.Sprintf("%s confirms %s", rep.Type, signal),
		}
	}
	return Adjustment{Signal: signal, Reason: "signal unaffected by trap"}
}

// lastConfirmedSpoofSide returns the side of the most recent spoof event.
func lastConfirmedSpoofSide(sv svd.Snapshot) svd.BookSide {
	if len(sv.Spoof.Events) == 0 {
		return svd.BookNeutral
	}
	return sv.Spoof.Events[len(sv.Spoof.Events)-1].Side
}
