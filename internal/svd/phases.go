package svd

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/domain"
)

// PhaseRecord is one entry in the bounded phase history.
type PhaseRecord struct {
	Phase     domain.Phase
	EnteredAt time.Time
	Duration  time.Duration
}

// PhaseUpdate is the tracker's readout after observing the current tick.
type PhaseUpdate struct {
	Phase           domain.Phase
	Changed         bool
	ValidTransition bool
	Duration        time.Duration
	Confidence      float64
	History         []PhaseRecord
}

const phaseHistoryCap = 10

// validTransitions is the canonical market-maker cycle plus the accepted
// shortcuts discovery->execution and manipulation->distribution.
var validTransitions = map[domain.Phase][]domain.Phase{
	domain.PhaseDiscovery:    {domain.PhaseManipulation, domain.PhaseExecution},
	domain.PhaseManipulation: {domain.PhaseExecution, domain.PhaseDistribution},
	domain.PhaseExecution:    {domain.PhaseDistribution},
	domain.PhaseDistribution: {domain.PhaseDiscovery},
}

// PhaseTracker owns the phase history across ticks.
type PhaseTracker struct {
	current   domain.Phase
	enteredAt time.Time
	history   []PhaseRecord
	validSeen int
	totalSeen int
}

// NewPhaseTracker starts in discovery.
func NewPhaseTracker() *PhaseTracker {
	return &PhaseTracker{current: domain.PhaseDiscovery}
}

// Current returns the phase as of the last observation.
func (p *PhaseTracker) Current() domain.Phase { return p.current }

// Observe records the detected phase for this tick, pushing a history
// entry on transition and scoring confidence from transition validity and
// time already spent in the phase.
func (p *PhaseTracker) Observe(phase domain.Phase, now time.Time) PhaseUpdate {
	if p.enteredAt.IsZero() {
		p.enteredAt = now
	}
	up := PhaseUpdate{Phase: phase, ValidTransition: true}

	if phase != p.current {
		up.Changed = true
		up.ValidTransition = transitionAllowed(p.current, phase)
		p.totalSeen++
		if up.ValidTransition {
			p.validSeen++
		} else {
			log.Debug().
				Str("from", string(p.current)).
				Str("to", string(phase)).
				Msg("off-cycle phase transition")
		}
		p.history = append(p.history, PhaseRecord{
			Phase:     p.current,
			EnteredAt: p.enteredAt,
			Duration:  now.Sub(p.enteredAt),
		})
		if len(p.history) > phaseHistoryCap {
			p.history = p.history[len(p.history)-phaseHistoryCap:]
		}
		p.current = phase
		p.enteredAt = now
	}

	up.Duration = now.Sub(p.enteredAt)
	up.Confidence = p.confidence(up.Duration)
	up.History = append([]PhaseRecord(nil), p.history...)
	return up
}

func (p *PhaseTracker) confidence(duration time.Duration) float64 {
	conf := 0.5
	if p.totalSeen > 0 {
		conf = float64(p.validSeen) / float64(p.totalSeen)
	}
	if duration > time.Minute {
		conf += 0.2
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}

func transitionAllowed(from, to domain.Phase) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
