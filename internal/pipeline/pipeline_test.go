package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/smartflow/internal/domain"
)

type fakeSource struct {
	candles map[string][]domain.Candle
	book    *domain.OrderBook
	trades  []domain.Trade
	bookErr error
}

func (f *fakeSource) Candles(_ context.Context, timeframe string, _ int) ([]domain.Candle, error) {
	c, ok := f.candles[timeframe]
	if !ok {
		return nil, errors.New("no such timeframe")
	}
	return c, nil
}

func (f *fakeSource) OrderBook(context.Context) (*domain.OrderBook, error) {
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return f.book, nil
}

func (f *fakeSource) Trades(context.Context) ([]domain.Trade, error) {
	return f.trades, nil
}

func hourlyCandles(n int, now time.Time) []domain.Candle {
	out := make([]domain.Candle, n)
	base := now.Add(-time.Duration(n-1) * time.Hour)
	price := 100.0
	for i := range out {
		out[i] = domain.Candle{
			Open:      price,
			High:      price + 0.8,
			Low:       price - 0.5,
			Close:     price + 0.4,
			Volume:    10 + float64(i%5),
			Timestamp: base.Add(time.Duration(i) * time.Hour).UnixMilli(),
		}
		price += 0.4
	}
	return out
}

func freshBook(now time.Time, mid float64) *domain.OrderBook {
	var bids, asks []domain.BookLevel
	for i := 0; i < 10; i++ {
		bids = append(bids, domain.BookLevel{Price: mid - 0.1 - float64(i)*0.1, Size: 5})
		asks = append(asks, domain.BookLevel{Price: mid + 0.1 + float64(i)*0.1, Size: 5})
	}
	return domain.NewOrderBook(bids, asks, now.UnixMilli())
}

func freshTrades(n int, now time.Time, price float64) []domain.Trade {
	out := make([]domain.Trade, n)
	base := now.Add(-time.Duration(n) * time.Second)
	for i := range out {
		out[i] = domain.Trade{
			Price:     price,
			Volume:    1.5,
			Side:      domain.SideBuy,
			Timestamp: base.Add(time.Duration(i) * time.Second).UnixMilli(),
		}
	}
	return out
}

func goodSource(now time.Time) *fakeSource {
	base := hourlyCandles(60, now)
	last := base[len(base)-1].Close
	return &fakeSource{
		candles: map[string][]domain.Candle{
			"1h": base,
			"4h": hourlyCandles(60, now),
			"1d": hourlyCandles(60, now),
		},
		book:   freshBook(now, last),
		trades: freshTrades(30, now, last),
	}
}

func newTestPipeline(t *testing.T, src DataSource) *Pipeline {
	t.Helper()
	p, err := New(Options{Pipeline: DefaultConfig()}, src, nil)
	require.NoError(t, err)
	return p
}

func TestRunTickProducesSignal(t *testing.T) {
	now := time.Now()
	p := newTestPipeline(t, goodSource(now))

	res, err := p.RunTick(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Quality.Pass)
	assert.NotEmpty(t, res.Signal.ID)
	assert.NotEmpty(t, res.Signal.Explanation)
	assert.NotNil(t, res.HTF)
	assert.Contains(t, []domain.SignalDirection{domain.SignalBuy, domain.SignalSell, domain.SignalWait}, res.Signal.Direction)

	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, res.Signal.ID, last.Signal.ID)

	h := p.Health()
	assert.Equal(t, int64(1), h.Ticks)
	assert.Equal(t, int64(0), h.Aborted)
}

func TestRunTickAbortsOnDegradedFeeds(t *testing.T) {
	now := time.Now()
	src := goodSource(now)
	// stale and crossed book, thin stale trades
	mid := 120.0
	stale := domain.NewOrderBook(
		[]domain.BookLevel{{Price: mid + 1, Size: 5}, {Price: mid, Size: 5}, {Price: mid - 1, Size: 5}, {Price: mid - 2, Size: 5}, {Price: mid - 3, Size: 5}},
		[]domain.BookLevel{{Price: mid - 0.5, Size: 5}, {Price: mid + 0.5, Size: 5}, {Price: mid + 1.5, Size: 5}, {Price: mid + 2.5, Size: 5}, {Price: mid + 3.5, Size: 5}},
		now.Add(-2*time.Minute).UnixMilli(),
	)
	src.book = stale
	src.trades = freshTrades(5, now.Add(-90*time.Second), mid)

	p := newTestPipeline(t, src)
	res, err := p.RunTick(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLowQuality))
	assert.False(t, res.Quality.Pass)
	assert.Less(t, res.Quality.Overall, 0.5)

	h := p.Health()
	assert.Equal(t, int64(1), h.Aborted)
	assert.NotEmpty(t, h.LastError)
}

func TestRunTickDataUnavailable(t *testing.T) {
	now := time.Now()
	src := goodSource(now)
	src.bookErr = errors.New("connection reset")

	p := newTestPipeline(t, src)
	_, err := p.RunTick(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataUnavailable))
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{}, nil, nil)
	assert.True(t, errors.Is(err, ErrConfig))

	cfg := DefaultConfig()
	cfg.Timeframe = "7h"
	_, err = New(Options{Pipeline: cfg}, &fakeSource{}, nil)
	assert.True(t, errors.Is(err, ErrConfig))
}
