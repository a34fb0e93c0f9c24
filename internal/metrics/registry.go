// Package metrics exposes the Prometheus instrumentation for the pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for smartflow.
type Registry struct {
	reg *prometheus.Registry

	TickDuration prometheus.Histogram
	TicksTotal   prometheus.Counter
	TicksAborted *prometheus.CounterVec
	TicksSkipped prometheus.Counter
	Signals      *prometheus.CounterVec
	Alerts       *prometheus.CounterVec
	WSReconnects *prometheus.CounterVec
	DataQuality  prometheus.Gauge
	Confidence   prometheus.Gauge
}

// NewRegistry creates the registry with all smartflow metrics registered on
// a private Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smartflow_tick_duration_seconds",
				Help:    "Duration of one full analysis tick in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),

		TicksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "smartflow_ticks_total",
				Help: "Total number of analysis ticks started",
			},
		),

		TicksAborted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartflow_ticks_aborted_total",
				Help: "Total number of aborted ticks by reason",
			},
			[]string{"reason"},
		),

		TicksSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "smartflow_ticks_skipped_total",
				Help: "Total number of scheduler ticks skipped because a run was still in flight",
			},
		),

		Signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartflow_signals_total",
				Help: "Total number of emitted signals by direction",
			},
			[]string{"direction"},
		),

		Alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartflow_alerts_total",
				Help: "Total number of raised alerts by type",
			},
			[]string{"type"},
		),

		WSReconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartflow_ws_reconnects_total",
				Help: "Total number of websocket reconnects by stream",
			},
			[]string{"stream"},
		),

		DataQuality: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "smartflow_data_quality",
				Help: "Overall data quality score of the last tick (0.0 to 1.0)",
			},
		),

		Confidence: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "smartflow_signal_confidence",
				Help: "Confidence of the last emitted signal (0 to 10)",
			},
		),
	}

	r.reg.MustRegister(
		r.TickDuration,
		r.TicksTotal,
		r.TicksAborted,
		r.TicksSkipped,
		r.Signals,
		r.Alerts,
		r.WSReconnects,
		r.DataQuality,
		r.Confidence,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// TickTimer tracks one tick's wall time.
type TickTimer struct {
	metrics *Registry
	start   time.Time
}

// StartTick begins timing a tick.
func (r *Registry) StartTick() *TickTimer {
	r.TicksTotal.Inc()
	return &TickTimer{metrics: r, start: time.Now()}
}

// Stop records the tick duration.
func (t *TickTimer) Stop() {
	t.metrics.TickDuration.Observe(time.Since(t.start).Seconds())
}
