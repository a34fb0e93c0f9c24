package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/smartflow/internal/decision"
	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/svd"
)

func alertTypes(alerts []Alert) []Type {
	var out []Type
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}

func TestExecutionEntryCooldown(t *testing.T) {
	m := NewManager(DefaultConfig())
	now := time.Now()
	sig := decision.Signal{Direction: domain.SignalBuy, Confidence: 6.0, Price: 100}
	sv := svd.Snapshot{Phase: domain.PhaseExecution, Intent: domain.IntentAccumulating}

	first := m.Process(sig, sv, now)
	assert.Contains(t, alertTypes(first), ExecutionEntry)

	again := m.Process(sig, sv, now.Add(5*time.Minute))
	assert.NotContains(t, alertTypes(again), ExecutionEntry)

	later := m.Process(sig, sv, now.Add(16*time.Minute))
	assert.Contains(t, alertTypes(later), ExecutionEntry)
}

func TestPhaseChangeAndIntentFlip(t *testing.T) {
	m := NewManager(DefaultConfig())
	now := time.Now()
	wait := decision.Signal{Direction: domain.SignalWait, Price: 100}

	// first observation seeds state without a phase-change alert
	seed := m.Process(wait, svd.Snapshot{Phase: domain.PhaseDiscovery, Intent: domain.IntentAccumulating}, now)
	assert.NotContains(t, alertTypes(seed), PhaseChange)

	out := m.Process(wait, svd.Snapshot{Phase: domain.PhaseExecution, Intent: domain.IntentDistributing}, now.Add(time.Minute))
	types := alertTypes(out)
	assert.Contains(t, types, PhaseChange)
	assert.Contains(t, types, IntentFlip)

	var phase Alert
	for _, a := range out {
		if a.Type == PhaseChange {
			phase = a
		}
	}
	assert.Equal(t, SeverityHigh, phase.Severity)
}

func TestStrongSignalAndHistoryCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistorySize = 5
	m := NewManager(cfg)
	now := time.Now()
	sig := decision.Signal{Direction: domain.SignalSell, Confidence: 8.2, Price: 100}

	for i := 0; i < 10; i++ {
		out := m.Process(sig, svd.Snapshot{Phase: domain.PhaseDistribution}, now.Add(time.Duration(i)*time.Minute))
		if i > 0 {
			assert.Contains(t, alertTypes(out), StrongSignal)
		}
	}
	hist := m.History()
	require.Len(t, hist, 5)
	for _, a := range hist {
		assert.NotEmpty(t, a.ID)
	}
}

func TestCVDReversalAlert(t *testing.T) {
	m := NewManager(DefaultConfig())
	out := m.Process(decision.Signal{Direction: domain.SignalWait, Price: 100},
		svd.Snapshot{Phase: domain.PhaseDiscovery, ReversalDetected: true}, time.Now())
	types := alertTypes(out)
	assert.Contains(t, types, CVDReversal)
}
