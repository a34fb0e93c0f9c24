package svd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/smartflow/internal/domain"
)

func buys(n int, vol float64) []domain.Trade {
	out := make([]domain.Trade, n)
	for i := range out {
		out[i] = domain.Trade{Price: 100, Volume: vol, Side: domain.SideBuy, Timestamp: int64(i) * 100}
	}
	return out
}

func TestCVDAccumulation(t *testing.T) {
	c := NewCVDCalculator()

	rep := c.Update(buys(5, 2))
	assert.Equal(t, 10.0, rep.Value)
	assert.Equal(t, 10.0, rep.Change)

	// cvd(t+1) - cvd(t) equals the signed volume appended between ticks.
	sells := []domain.Trade{
		{Price: 100, Volume: 3, Side: domain.SideSell},
		{Price: 100, Volume: 4, Side: domain.SideSell},
	}
	rep = c.Update(sells)
	assert.Equal(t, 3.0, rep.Value)
	assert.Equal(t, -7.0, rep.Change)
}

func TestCVDHistoryBounded(t *testing.T) {
	c := NewCVDCalculator()
	for i := 0; i < 150; i++ {
		c.Update(buys(1, 1))
	}
	rep := c.Update(nil)
	assert.Equal(t, cvdHistoryCap, rep.HistorySize)
	assert.Equal(t, 150.0, rep.Value)
}

func TestCVDSlopeSign(t *testing.T) {
	c := NewCVDCalculator()
	for i := 0; i < 30; i++ {
		c.Update(buys(1, 5))
	}
	assert.InDelta(t, 5.0, c.Slope(), 1e-6)

	d := NewCVDCalculator()
	for i := 0; i < 30; i++ {
		d.Update([]domain.Trade{{Price: 100, Volume: 5, Side: domain.SideSell}})
	}
	assert.InDelta(t, -5.0, d.Slope(), 1e-6)
}

func TestCVDDivergence(t *testing.T) {
	c := NewCVDCalculator()
	// CVD falling while price rises across the last 10 trades.
	trades := make([]domain.Trade, 15)
	for i := range trades {
		trades[i] = domain.Trade{Price: 100 + float64(i)*0.1, Volume: 5, Side: domain.SideSell, Timestamp: int64(i) * 100}
	}
	for i := 0; i < 25; i++ {
		c.Update([]domain.Trade{{Price: 100, Volume: 5, Side: domain.SideSell}})
	}
	assert.True(t, c.Divergence(trades))

	// Aligned trends: no divergence.
	up := NewCVDCalculator()
	for i := 0; i < 25; i++ {
		up.Update([]domain.Trade{{Price: 100, Volume: 5, Side: domain.SideBuy}})
	}
	assert.False(t, up.Divergence(trades))
}

func TestBucketing(t *testing.T) {
	var trades []domain.Trade
	// Three 5s buckets: +10, -4, +6.
	add := func(ts int64, vol float64, side domain.Side) {
		trades = append(trades, domain.Trade{Price: 100, Volume: vol, Side: side, Timestamp: ts})
	}
	add(0, 10, domain.SideBuy)
	add(5500, 4, domain.SideSell)
	add(11000, 6, domain.SideBuy)
	add(11500, 2, domain.SideBuy)

	rep := bucketTrades(trades)
	require.Len(t, rep.Buckets, 3)
	assert.Equal(t, 8.0, rep.LastDelta)
	assert.Equal(t, 8.0, rep.LastBuyVol)
	assert.Equal(t, 1, rep.PosStreak)
	assert.Equal(t, 0, rep.NegStreak)
	assert.InDelta(t, 0.4, rep.LastVelocity, 1e-9)
}

func TestCrowdFOMO(t *testing.T) {
	// Hot final bucket: many buys in quick succession.
	var trades []domain.Trade
	for i := 0; i < 5; i++ {
		trades = append(trades, domain.Trade{Price: 100, Volume: 1, Side: domain.SideBuy, Timestamp: int64(i) * 2500})
	}
	for i := 0; i < 40; i++ {
		trades = append(trades, domain.Trade{Price: 100, Volume: 2, Side: domain.SideBuy, Timestamp: 15000 + int64(i)*100})
	}
	b := bucketTrades(trades)
	rep := detectCrowd(b, trades)
	assert.True(t, rep.FOMO)
	assert.False(t, rep.Panic)
}

func TestCrowdStrongPanicOnFastMove(t *testing.T) {
	var trades []domain.Trade
	for i := 0; i < 5; i++ {
		trades = append(trades, domain.Trade{Price: 100, Volume: 1, Side: domain.SideSell, Timestamp: int64(i) * 2500})
	}
	for i := 0; i < 40; i++ {
		price := 100 - float64(i)*0.4
		trades = append(trades, domain.Trade{Price: price, Volume: 2, Side: domain.SideSell, Timestamp: 15000 + int64(i)*100})
	}
	b := bucketTrades(trades)
	rep := detectCrowd(b, trades)
	assert.True(t, rep.Panic)
	assert.True(t, rep.StrongPanic)
}
