package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecayWeight(t *testing.T) {
	assert.Equal(t, 1.0, DecayWeight(0, DefaultHalfLifeSeconds))
	assert.Equal(t, 1.0, DecayWeight(-10, DefaultHalfLifeSeconds))

	half := DecayWeight(DefaultHalfLifeSeconds, DefaultHalfLifeSeconds)
	assert.InDelta(t, 0.5, half, 1e-9)

	// Strictly decreasing for positive ages.
	prev := 1.0
	for age := 1000.0; age <= 200000; age += 1000 {
		w := DecayWeight(age, DefaultHalfLifeSeconds)
		assert.Less(t, w, prev)
		assert.GreaterOrEqual(t, w, 0.0)
		prev = w
	}
}

func TestCandleAnatomy(t *testing.T) {
	c := Candle{Open: 100, High: 110, Low: 95, Close: 104, Volume: 10}
	assert.Equal(t, 15.0, c.Range())
	assert.Equal(t, 4.0, c.Body())
	assert.Equal(t, 6.0, c.UpperWick())
	assert.Equal(t, 5.0, c.LowerWick())
	assert.True(t, c.Bullish())
}

func TestOrderBookDerived(t *testing.T) {
	ob := NewOrderBook(
		[]BookLevel{{Price: 100, Size: 8}, {Price: 99, Size: 4}},
		[]BookLevel{{Price: 101, Size: 2}, {Price: 102, Size: 6}},
		1700000000000,
	)
	assert.Equal(t, 6.0, ob.AvgBid)
	assert.Equal(t, 4.0, ob.AvgAsk)

	bb, ok := ob.BestBid()
	assert.True(t, ok)
	assert.Equal(t, 100.0, bb.Price)

	mid, ok := ob.MidPrice()
	assert.True(t, ok)
	assert.Equal(t, 100.5, mid)
}

func TestTradeSignedVolume(t *testing.T) {
	assert.Equal(t, 5.0, Trade{Volume: 5, Side: SideBuy}.SignedVolume())
	assert.Equal(t, -5.0, Trade{Volume: 5, Side: SideSell}.SignedVolume())
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, SignalSell, SignalBuy.Opposite())
	assert.Equal(t, SignalWait, SignalWait.Opposite())
}
