// Package decision folds every module readout into the final signal:
// weighted voting, the SVD veto, conflict detection, the confidence
// arithmetic, trap-aware rerouting, risk filters and level computation.
package decision

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/behavior"
	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/liquidity"
	"github.com/sawpanic/smartflow/internal/quality"
	"github.com/sawpanic/smartflow/internal/structure"
	"github.com/sawpanic/smartflow/internal/svd"
	"github.com/sawpanic/smartflow/internal/technical"
	"github.com/sawpanic/smartflow/internal/trap"
)

// HTFContext carries the higher-timeframe bias inputs.
type HTFContext struct {
	HTF1    structure.Snapshot
	HTF2    structure.Snapshot
	Phases1 structure.PhaseReport
	Phases2 structure.PhaseReport
	Bias    structure.GlobalBias
}

// Inputs is everything the decision layer consumes for one tick.
type Inputs struct {
	Price     float64
	Structure structure.Snapshot
	Technical technical.Snapshot
	Liquidity liquidity.Snapshot
	SVD       svd.Snapshot
	Trap      trap.Report
	Behavior  behavior.Report
	Quality   quality.Report
	HTF       *HTFContext
	Tracker   *liquidity.SweptTracker
	Now       time.Time
}

// Vote is one module's directional contribution.
type Vote struct {
	Source    string
	Direction domain.SignalDirection
	Weight    float64
}

// VoteReport is the tally.
type VoteReport struct {
	Buy    float64
	Sell   float64
	Margin float64
	Detail []Vote
}

// Scenario is the narrative pair attached to a signal.
type Scenario struct {
	Main        string
	Alternative string
}

// Signal is the pipeline's final per-tick output.
type Signal struct {
	ID          string
	Timestamp   time.Time
	Direction   domain.SignalDirection
	Confidence  float64
	Price       float64
	Explanation string
	Scenario    Scenario
	Levels      Levels
	Votes       VoteReport
	VetoReason  string
	WaitReason  string
	Conflicts   ConflictReport
	Trap        trap.Report
	Behavior    behavior.Report
	Quality     float64
}

// Config holds the decision thresholds.
type Config struct {
	CriticalConflictThreshold int     `yaml:"critical_conflict_threshold"`
	TrapEvidenceScore         float64 `yaml:"trap_evidence_score"`
	MinConfidenceToTrade      float64 `yaml:"min_confidence_to_trade"`
	ExecutionOnlySignals      bool    `yaml:"execution_only_signals"`
}

// DefaultConfig returns threshold 2, trap evidence 4.0, floor 4.0.
func DefaultConfig() Config {
	return Config{
		CriticalConflictThreshold: 2,
		TrapEvidenceScore:         4.0,
		MinConfidenceToTrade:      4.0,
	}
}

const (
	voteMargin       = 1.0
	vetoSVDConf      = 3.0
	contradictionPen = 1.5
)

// Engine applies the decision flow. The trap engine is shared with the
// pipeline for signal rerouting.
type Engine struct {
	cfg   Config
	traps *trap.Engine
}

// NewEngine builds an engine; a zero config selects defaults.
func NewEngine(cfg Config, traps *trap.Engine) *Engine {
	if cfg.CriticalConflictThreshold == 0 {
		cfg = DefaultConfig()
	}
	if traps == nil {
		traps = trap.NewEngine(trap.DefaultConfig())
	}
	return &Engine{cfg: cfg, traps: traps}
}

// Decide runs the full flow and emits the signal record.
func (e *Engine) Decide(in Inputs) Signal {
	sig := Signal{
		ID:        uuid.NewString(),
		Timestamp: in.Now,
		Price:     in.Price,
		Trap:      in.Trap,
		Behavior:  in.Behavior,
		Quality:   in.Quality.Overall,
	}

	sig.Votes = tally(in)
	sig.Direction = pickDirection(sig.Votes)

	if reason := e.veto(in, sig.Direction); reason != "" {
		sig.VetoReason = reason
		sig.Direction = domain.SignalWait
	}

	sig.Confidence = e.buildConfidence(in, sig.Direction)

	sig.Conflicts = detectConflicts(in, sig.Direction, e.cfg.CriticalConflictThreshold)
	if sig.Conflicts.ForceWait {
		if in.Trap.Score >= e.cfg.TrapEvidenceScore {
			// Contradictions under a live trap read as trap evidence,
			// not noise. The WAIT is suppressed.
			sig.Conflicts.ForceWait = false
		} else {
			sig.WaitReason = "critical conflicts force WAIT"
			sig.Direction = domain.SignalWait
		}
	}

	adj := e.traps.Adjust(in.Trap, sig.Direction)
	if adj.Signal != sig.Direction {
		log.Info().
			Str("from", string(sig.Direction)).
			Str("to", string(adj.Signal)).
			Str("reason", adj.Reason).
			Msg("trap rerouting applied")
		sig.WaitReason = adj.Reason
	}
	sig.Direction = adj.Signal
	sig.Confidence += adj.ConfidenceDelta
	if in.Trap.IsTrap && in.Trap.Score >= e.cfg.TrapEvidenceScore {
		sig.Confidence += 0.5 * in.Trap.Score
	}

	if reason := e.riskBlock(in, sig); reason != "" {
		sig.WaitReason = reason
		sig.Direction = domain.SignalWait
	}

	if sig.Confidence < 0 {
		sig.Confidence = 0
	}
	if sig.Confidence > 10 {
		sig.Confidence = 10
	}
	if sig.Direction != domain.SignalWait && sig.Confidence < e.cfg.MinConfidenceToTrade {
		sig.WaitReason = "confidence below trade floor"
		sig.Direction = domain.SignalWait
	}

	sig.Levels = computeLevels(in, sig.Direction)
	sig.Explanation = explainSignal(in, sig)
	sig.Scenario = buildScenario(in, sig)
	return sig
}

// tally applies the dynamic voting weights.
func tally(in Inputs) VoteReport {
	rep := VoteReport{}
	add := func(source string, dir domain.SignalDirection, w float64) {
		if dir == domain.SignalWait || w == 0 {
			return
		}
		rep.Detail = append(rep.Detail, Vote{Source: source, Direction: dir, Weight: w})
		if dir == domain.SignalBuy {
			rep.Buy += w
		} else {
			rep.Sell += w
		}
	}

	svdWeight := 2.5
	if in.SVD.CVDConfirms {
		svdWeight = 3.0
	}
	switch in.SVD.Intent {
	case domain.IntentAccumulating:
		add("svd", domain.SignalBuy, svdWeight)
	case domain.IntentDistributing:
		add("svd", domain.SignalSell, svdWeight)
	}

	switch in.Liquidity.Direction.Direction {
	case domain.DirectionUp:
		add("liquidity", domain.SignalBuy, 2.0)
	case domain.DirectionDown:
		add("liquidity", domain.SignalSell, 2.0)
	}

	switch in.Structure.Trend {
	case structure.TrendBullish:
		add("structure", domain.SignalBuy, 1.0)
	case structure.TrendBearish:
		add("structure", domain.SignalSell, 1.0)
	}

	switch in.Technical.Trend {
	case technical.TrendBullish:
		add("technical", domain.SignalBuy, 0.5)
	case technical.TrendBearish:
		add("technical", domain.SignalSell, 0.5)
	}

	rep.Margin = rep.Buy - rep.Sell
	if rep.Margin < 0 {
		rep.Margin = -rep.Margin
	}
	return rep
}

func pickDirection(v VoteReport) domain.SignalDirection {
	if v.Margin < voteMargin {
		return domain.SignalWait
	}
	if v.Buy > v.Sell {
		return domain.SignalBuy
	}
	return domain.SignalSell
}

// veto blocks a signal that fights a confident opposite SVD intent.
func (e *Engine) veto(in Inputs, dir domain.SignalDirection) string {
	if in.SVD.Confidence <= vetoSVDConf {
		return ""
	}
	if dir == domain.SignalBuy && in.SVD.Intent == domain.IntentDistributing {
		return "smart volume is distributing; BUY vetoed"
	}
	if dir == domain.SignalSell && in.SVD.Intent == domain.IntentAccumulating {
		return "smart volume is accumulating; SELL vetoed"
	}
	return ""
}
