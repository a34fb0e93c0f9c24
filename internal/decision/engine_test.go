package decision

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/liquidity"
	"github.com/sawpanic/smartflow/internal/quality"
	"github.com/sawpanic/smartflow/internal/structure"
	"github.com/sawpanic/smartflow/internal/svd"
	"github.com/sawpanic/smartflow/internal/technical"
	"github.com/sawpanic/smartflow/internal/trap"
)

func baseInputs(now time.Time) Inputs {
	return Inputs{
		Price:   100.0,
		Quality: quality.Report{Overall: 0.9, Pass: true},
		Tracker: liquidity.NewSweptTracker(24),
		Now:     now,
	}
}

func TestCleanAccumulationBuy(t *testing.T) {
	now := time.Now()
	in := baseInputs(now)
	in.Structure = structure.Snapshot{
		Trend: structure.TrendBullish,
		Swings: structure.Swings{
			Highs: []domain.SwingPoint{{Price: 105.0}},
			Lows:  []domain.SwingPoint{{Price: 98.0}},
		},
	}
	in.Technical = technical.Snapshot{Trend: technical.TrendBullish, RSI: 60}
	in.Liquidity = liquidity.Snapshot{
		StopClusters: []domain.LiquidityLevel{{Price: 104.0, Kind: domain.BuyStops, Weight: 1}},
		Direction:    liquidity.DirectionReport{Direction: domain.DirectionUp, UpWeight: 3},
	}
	in.SVD = svd.Snapshot{
		Intent:      domain.IntentAccumulating,
		CVDConfirms: true,
		Phase:       domain.PhaseExecution,
		Confidence:  7.0,
	}

	sig := NewEngine(DefaultConfig(), nil).Decide(in)

	assert.Equal(t, domain.SignalBuy, sig.Direction)
	assert.GreaterOrEqual(t, sig.Confidence, 5.5)
	require.NotEmpty(t, sig.Levels.Targets)
	assert.Greater(t, sig.Levels.Targets[0].Price, in.Price)
	assert.Less(t, sig.Levels.Invalidation, 98.0)
	assert.Empty(t, sig.VetoReason)
	assert.NotEmpty(t, sig.ID)
	assert.Contains(t, sig.Explanation, "BUY")
}

func TestSVDVetoBlocksBuy(t *testing.T) {
	now := time.Now()
	in := baseInputs(now)
	in.Structure = structure.Snapshot{Trend: structure.TrendBullish}
	in.Technical = technical.Snapshot{Trend: technical.TrendBullish, RSI: 55}
	in.Liquidity = liquidity.Snapshot{
		Direction: liquidity.DirectionReport{Direction: domain.DirectionUp, UpWeight: 2},
	}
	in.SVD = svd.Snapshot{
		Intent:     domain.IntentDistributing,
		Confidence: 5.0,
	}

	sig := NewEngine(DefaultConfig(), nil).Decide(in)

	assert.Equal(t, domain.SignalWait, sig.Direction)
	assert.NotEmpty(t, sig.VetoReason)
	assert.Contains(t, sig.Explanation, "veto")
}

func TestBearTrapFlipsSellToBuy(t *testing.T) {
	now := time.Now()
	in := baseInputs(now)
	in.Structure = structure.Snapshot{Trend: structure.TrendBearish}
	in.Technical = technical.Snapshot{Trend: technical.TrendBearish, RSI: 50}
	in.Liquidity = liquidity.Snapshot{
		Direction: liquidity.DirectionReport{Direction: domain.DirectionDown, DownWeight: 2},
	}
	in.SVD = svd.Snapshot{Intent: domain.IntentDistributing}
	in.Trap = trap.Report{
		IsTrap:           true,
		Type:             trap.BearTrap,
		Score:            5.5,
		ExpectedReversal: domain.DirectionUp,
	}

	sig := NewEngine(DefaultConfig(), nil).Decide(in)

	assert.Equal(t, domain.SignalBuy, sig.Direction)
	assert.True(t, strings.Contains(sig.WaitReason, "flips"))
	// base 6.0, flip penalty -3.0, trap evidence bonus +2.75
	assert.InDelta(t, 5.75, sig.Confidence, 1e-9)
}

func TestCriticalConflictsForceWait(t *testing.T) {
	now := time.Now()
	in := baseInputs(now)
	in.Structure = structure.Snapshot{Trend: structure.TrendBullish}
	in.Technical = technical.Snapshot{Trend: technical.TrendBullish, RSI: 55}
	in.Liquidity = liquidity.Snapshot{
		Direction: liquidity.DirectionReport{Direction: domain.DirectionUp, UpWeight: 2},
	}
	in.SVD = svd.Snapshot{Intent: domain.IntentDistributing, Confidence: 2.0}

	sig := NewEngine(DefaultConfig(), nil).Decide(in)

	assert.Equal(t, domain.SignalWait, sig.Direction)
	assert.GreaterOrEqual(t, sig.Conflicts.Critical, 2)
	assert.Contains(t, sig.WaitReason, "conflict")
}

func TestConfidenceFloorDemotesToWait(t *testing.T) {
	now := time.Now()
	in := baseInputs(now)
	in.Quality = quality.Report{Overall: 0.5}
	in.Structure = structure.Snapshot{Trend: structure.TrendRange}
	in.Technical = technical.Snapshot{RSI: 50}
	in.Liquidity = liquidity.Snapshot{
		Direction: liquidity.DirectionReport{Direction: domain.DirectionUp, UpWeight: 2},
	}

	sig := NewEngine(DefaultConfig(), nil).Decide(in)

	assert.Equal(t, domain.SignalWait, sig.Direction)
	assert.GreaterOrEqual(t, sig.Confidence, 0.0)
	assert.LessOrEqual(t, sig.Confidence, 10.0)
	assert.Contains(t, sig.WaitReason, "floor")
}

func TestOverboughtBlocksBuy(t *testing.T) {
	now := time.Now()
	in := baseInputs(now)
	in.Structure = structure.Snapshot{Trend: structure.TrendBullish}
	in.Technical = technical.Snapshot{Trend: technical.TrendBullish, RSI: 82, Overbought: true}
	in.Liquidity = liquidity.Snapshot{
		Direction: liquidity.DirectionReport{Direction: domain.DirectionUp, UpWeight: 3},
	}
	in.SVD = svd.Snapshot{
		Intent:      domain.IntentAccumulating,
		CVDConfirms: true,
		Phase:       domain.PhaseExecution,
		Confidence:  7.0,
	}

	sig := NewEngine(DefaultConfig(), nil).Decide(in)

	assert.Equal(t, domain.SignalWait, sig.Direction)
	assert.Contains(t, sig.WaitReason, "overbought")
}

func TestSweptLevelExcludedFromTargets(t *testing.T) {
	now := time.Now()
	in := baseInputs(now)
	in.Liquidity = liquidity.Snapshot{
		StopClusters: []domain.LiquidityLevel{
			{Price: 102.5, Kind: domain.BuyStops, Weight: 1},
			{Price: 106.0, Kind: domain.BuyStops, Weight: 1},
		},
	}
	in.Tracker.MarkSwept(102.5, domain.DirectionUp, "swept during spike", 3, now)

	lv := computeLevels(in, domain.SignalBuy)

	require.NotEmpty(t, lv.Targets)
	assert.InDelta(t, 106.0, lv.Targets[0].Price, 1e-9)
	for _, tg := range lv.Targets {
		assert.NotEqual(t, 102.5, tg.Price)
	}
	require.NotEmpty(t, lv.SupportNotes)
	assert.Contains(t, lv.SupportNotes[0], "102.50")
}

func TestHTFAlignmentRaisesConfidence(t *testing.T) {
	now := time.Now()
	build := func(htf *HTFContext) Signal {
		in := baseInputs(now)
		in.Structure = structure.Snapshot{Trend: structure.TrendBullish}
		in.Technical = technical.Snapshot{Trend: technical.TrendBullish, RSI: 60}
		in.Liquidity = liquidity.Snapshot{
			Direction: liquidity.DirectionReport{Direction: domain.DirectionUp, UpWeight: 2},
		}
		in.SVD = svd.Snapshot{
			Intent:     domain.IntentAccumulating,
			Phase:      domain.PhaseExecution,
			Confidence: 6.0,
		}
		in.HTF = htf
		return NewEngine(DefaultConfig(), nil).Decide(in)
	}

	flat := build(nil)
	aligned := build(&HTFContext{
		HTF1: structure.Snapshot{Trend: structure.TrendBullish},
		HTF2: structure.Snapshot{Trend: structure.TrendBullish},
		Bias: structure.GlobalBias{Direction: domain.DirectionUp, Strength: 0.8},
	})

	assert.Equal(t, domain.SignalBuy, flat.Direction)
	assert.Equal(t, domain.SignalBuy, aligned.Direction)
	assert.Greater(t, aligned.Confidence, flat.Confidence)
}
