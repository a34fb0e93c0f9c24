// Package alerts turns per-tick readouts into deduplicated notifications:
// phase changes, intent flips, CVD reversals, execution entries and strong
// signals, with a rolling history.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/decision"
	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/svd"
)

// Type names one alert category.
type Type string

const (
	PhaseChange    Type = "phase_change"
	IntentFlip     Type = "intent_flip"
	CVDReversal    Type = "cvd_reversal"
	ExecutionEntry Type = "execution_entry"
	StrongSignal   Type = "strong_signal"
)

// Severity grades an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is one emitted notification.
type Alert struct {
	ID        string
	Type      Type
	Severity  Severity
	Message   string
	Price     float64
	Timestamp time.Time
}

// Config holds the alerting thresholds.
type Config struct {
	StrongSignalConfidence   float64 `yaml:"strong_signal_confidence"`
	ExecutionCooldownMinutes int     `yaml:"execution_cooldown_minutes"`
	HistorySize              int     `yaml:"history_size"`
}

// DefaultConfig returns confidence 7, cooldown 15m, history 50.
func DefaultConfig() Config {
	return Config{
		StrongSignalConfidence:   7.0,
		ExecutionCooldownMinutes: 15,
		HistorySize:              50,
	}
}

// ExecutionCooldown converts the configured minutes to a duration.
func (c Config) ExecutionCooldown() time.Duration {
	return time.Duration(c.ExecutionCooldownMinutes) * time.Minute
}

// Manager tracks the last seen phase and intent across ticks and rate
// limits execution entries. Safe for concurrent use.
type Manager struct {
	cfg Config

	mu            sync.Mutex
	lastPhase     domain.Phase
	lastIntent    domain.Intent
	lastExecution time.Time
	history       []Alert
}

// NewManager builds a manager; a zero config selects defaults.
func NewManager(cfg Config) *Manager {
	if cfg.HistorySize == 0 {
		cfg = DefaultConfig()
	}
	return &Manager{cfg: cfg}
}

// Process evaluates one tick and returns the alerts it raised.
func (m *Manager) Process(sig decision.Signal, sv svd.Snapshot, now time.Time) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Alert
	emit := func(t Type, sev Severity, msg string) {
		a := Alert{
			ID:        uuid.NewString(),
			Type:      t,
			Severity:  sev,
			Message:   msg,
			Price:     sig.Price,
			Timestamp: now,
		}
		out = append(out, a)
		m.history = append(m.history, a)
		if len(m.history) > m.cfg.HistorySize {
			m.history = m.history[len(m.history)-m.cfg.HistorySize:]
		}
		log.Info().
			Str("type", string(t)).
			Str("severity", string(sev)).
			Float64("price", sig.Price).
			Msg(msg)
	}

	if sv.Phase != "" && sv.Phase != m.lastPhase {
		sev := SeverityInfo
		if sv.Phase == domain.PhaseExecution || sv.Phase == domain.PhaseDistribution {
			sev = SeverityHigh
		}
		if m.lastPhase != "" {
			emit(PhaseChange, sev, fmt.Sprintf("phase %s -> %s", m.lastPhase, sv.Phase))
		}
		m.lastPhase = sv.Phase
	}

	if directional(sv.Intent) && directional(m.lastIntent) && sv.Intent != m.lastIntent {
		emit(IntentFlip, SeverityHigh, fmt.Sprintf("intent flipped %s -> %s", m.lastIntent, sv.Intent))
	}
	if sv.Intent != "" {
		m.lastIntent = sv.Intent
	}

	if sv.ReversalDetected {
		emit(CVDReversal, SeverityHigh, "CVD reversal against recent flow")
	}

	if sig.Direction != domain.SignalWait && sv.Phase == domain.PhaseExecution {
		if now.Sub(m.lastExecution) >= m.cfg.ExecutionCooldown() {
			emit(ExecutionEntry, SeverityCritical,
				fmt.Sprintf("execution phase %s entry, confidence %.1f", sig.Direction, sig.Confidence))
			m.lastExecution = now
		}
	}

	if sig.Direction != domain.SignalWait && sig.Confidence >= m.cfg.StrongSignalConfidence {
		emit(StrongSignal, SeverityHigh,
			fmt.Sprintf("strong %s signal, confidence %.1f", sig.Direction, sig.Confidence))
	}

	return out
}

// History returns a copy of the retained alerts, newest last.
func (m *Manager) History() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Alert, len(m.history))
	copy(out, m.history)
	return out
}

func directional(i domain.Intent) bool {
	return i == domain.IntentAccumulating || i == domain.IntentDistributing
}
