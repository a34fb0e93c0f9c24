package pipeline

import (
	"sync"
	"time"

	"github.com/sawpanic/smartflow/internal/domain"
)

// HealthReport is the point-in-time health readout served on /health.
type HealthReport struct {
	Uptime        string           `json:"uptime"`
	Ticks         int64            `json:"ticks"`
	Aborted       int64            `json:"aborted"`
	Errors        int64            `json:"errors"`
	LastError     string           `json:"last_error,omitempty"`
	LastSignal    string           `json:"last_signal,omitempty"`
	LastSignalAt  time.Time        `json:"last_signal_at,omitempty"`
	AlertsRaised  int64            `json:"alerts_raised"`
	LastTickTook  string           `json:"last_tick_took,omitempty"`
	QualityScore  float64          `json:"quality_score"`
	SignalsByKind map[string]int64 `json:"signals_by_kind"`
}

// Health accumulates tick and signal counters across the process lifetime.
type Health struct {
	mu           sync.Mutex
	startedAt    time.Time
	ticks        int64
	aborted      int64
	errors       int64
	alertsRaised int64
	lastError    string
	lastSignal   domain.SignalDirection
	lastSignalAt time.Time
	lastTickTook time.Duration
	quality      float64
	byKind       map[string]int64
}

// NewHealth starts the uptime clock.
func NewHealth() *Health {
	return &Health{startedAt: time.Now(), byKind: make(map[string]int64)}
}

// RecordTick notes a completed tick with its signal outcome.
func (h *Health) RecordTick(dir domain.SignalDirection, took time.Duration, quality float64, alerts int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ticks++
	h.lastSignal = dir
	h.lastSignalAt = time.Now()
	h.lastTickTook = took
	h.quality = quality
	h.alertsRaised += int64(alerts)
	h.byKind[string(dir)]++
}

// RecordAbort notes a tick that never produced a signal.
func (h *Health) RecordAbort(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ticks++
	h.aborted++
	h.errors++
	if err != nil {
		h.lastError = err.Error()
	}
}

// Report snapshots the counters.
func (h *Health) Report() HealthReport {
	h.mu.Lock()
	defer h.mu.Unlock()
	byKind := make(map[string]int64, len(h.byKind))
	for k, v := range h.byKind {
		byKind[k] = v
	}
	rep := HealthReport{
		Uptime:        time.Since(h.startedAt).Truncate(time.Second).String(),
		Ticks:         h.ticks,
		Aborted:       h.aborted,
		Errors:        h.errors,
		LastError:     h.lastError,
		AlertsRaised:  h.alertsRaised,
		QualityScore:  h.quality,
		SignalsByKind: byKind,
	}
	if h.lastSignal != "" {
		rep.LastSignal = string(h.lastSignal)
		rep.LastSignalAt = h.lastSignalAt
	}
	if h.lastTickTook > 0 {
		rep.LastTickTook = h.lastTickTook.String()
	}
	return rep
}
