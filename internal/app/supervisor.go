// Package app runs the long-lived process: websocket streams, the analysis
// ticker and the HTTP surface, under one context.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/metrics"
	"github.com/sawpanic/smartflow/internal/pipeline"
)

// StreamStarter launches background feed subscribers tied to the context.
type StreamStarter interface {
	Start(ctx context.Context)
}

// Supervisor drives the tick loop. Ticks never overlap: when a run is still
// in flight at the next ticker fire, the fire is skipped, not queued.
type Supervisor struct {
	pipe     *pipeline.Pipeline
	streams  StreamStarter
	reg      *metrics.Registry
	interval time.Duration
	addr     string
	handler  http.Handler

	inFlight atomic.Bool
	force    chan chan error
}

// Options configures the supervisor. Streams, Registry and Handler may be
// nil; Addr may be empty to disable the HTTP listener.
type Options struct {
	Pipeline *pipeline.Pipeline
	Streams  StreamStarter
	Registry *metrics.Registry
	Interval time.Duration
	Addr     string
	Handler  http.Handler
}

// New builds a supervisor.
func New(opts Options) *Supervisor {
	interval := opts.Interval
	if interval <= 0 {
		interval = 180 * time.Second
	}
	return &Supervisor{
		pipe:     opts.Pipeline,
		streams:  opts.Streams,
		reg:      opts.Registry,
		interval: interval,
		addr:     opts.Addr,
		handler:  opts.Handler,
		force:    make(chan chan error, 1),
	}
}

// ForceTick requests an immediate tick and returns its error. Used by the
// command surface; a tick already in flight serves as the response.
func (s *Supervisor) ForceTick(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.force <- reply:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run blocks until the context is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.streams != nil {
		s.streams.Start(ctx)
	}

	var srv *http.Server
	if s.addr != "" && s.handler != nil {
		srv = &http.Server{Addr: s.addr, Handler: s.handler}
		go func() {
			log.Info().Str("addr", s.addr).Msg("http surface listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http surface failed")
			}
		}()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runTick(ctx, nil)
	for {
		select {
		case <-ctx.Done():
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("http shutdown incomplete")
				}
			}
			return ctx.Err()
		case <-ticker.C:
			s.runTick(ctx, nil)
		case reply := <-s.force:
			s.runTick(ctx, reply)
		}
	}
}

// runTick executes one tick in the background under the in-flight guard.
func (s *Supervisor) runTick(ctx context.Context, reply chan error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		if s.reg != nil {
			s.reg.TicksSkipped.Inc()
		}
		log.Warn().Msg("tick still in flight, skipping this fire")
		if reply != nil {
			reply <- errors.New("tick already in flight")
		}
		return
	}
	go func() {
		defer s.inFlight.Store(false)
		_, err := s.pipe.RunTick(ctx)
		if reply != nil {
			reply <- err
		}
	}()
}
