package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/pipeline"
)

type slowSource struct {
	delay time.Duration
	calls atomic.Int64
}

func (s *slowSource) Candles(ctx context.Context, _ string, _ int) ([]domain.Candle, error) {
	s.calls.Add(1)
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return nil, context.DeadlineExceeded
}

func (s *slowSource) OrderBook(context.Context) (*domain.OrderBook, error) { return nil, nil }
func (s *slowSource) Trades(context.Context) ([]domain.Trade, error)       { return nil, nil }

type fakeStreams struct{ started atomic.Bool }

func (f *fakeStreams) Start(context.Context) { f.started.Store(true) }

func TestSupervisorSkipsOverlappingTicks(t *testing.T) {
	src := &slowSource{delay: 200 * time.Millisecond}
	pipe, err := pipeline.New(pipeline.Options{Pipeline: pipeline.DefaultConfig()}, src, nil)
	require.NoError(t, err)

	streams := &fakeStreams{}
	sup := New(Options{
		Pipeline: pipe,
		Streams:  streams,
		Interval: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err = sup.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.True(t, streams.started.Load())
	// the first fetch was still sleeping through most fires
	assert.LessOrEqual(t, src.calls.Load(), int64(3))
}

func TestForceTickReportsInFlight(t *testing.T) {
	src := &slowSource{delay: 300 * time.Millisecond}
	pipe, err := pipeline.New(pipeline.Options{Pipeline: pipeline.DefaultConfig()}, src, nil)
	require.NoError(t, err)

	sup := New(Options{Pipeline: pipe, Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	time.Sleep(50 * time.Millisecond) // initial tick is now sleeping in the source
	forceCtx, forceCancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer forceCancel()
	err = sup.ForceTick(forceCtx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in flight")
}
