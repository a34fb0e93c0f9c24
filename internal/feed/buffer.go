// Package feed owns the market-data plumbing: the REST candle client, the
// websocket depth and trade subscribers, and the in-memory state they feed.
package feed

import (
	"sync"

	"github.com/sawpanic/smartflow/internal/domain"
)

const defaultTradesCap = 1000

// TradesBuffer is a bounded FIFO of recent trades. Appends past capacity
// evict the oldest prints. Safe for concurrent use.
type TradesBuffer struct {
	mu  sync.Mutex
	buf []domain.Trade
	cap int
}

// NewTradesBuffer builds a buffer; capacity <= 0 selects the default 1000.
func NewTradesBuffer(capacity int) *TradesBuffer {
	if capacity <= 0 {
		capacity = defaultTradesCap
	}
	return &TradesBuffer{cap: capacity}
}

// Append adds trades, evicting from the front when over capacity.
func (b *TradesBuffer) Append(trades ...domain.Trade) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, trades...)
	if len(b.buf) > b.cap {
		b.buf = b.buf[len(b.buf)-b.cap:]
	}
}

// Snapshot returns a copy of the buffered trades, oldest first.
func (b *TradesBuffer) Snapshot() []domain.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Trade, len(b.buf))
	copy(out, b.buf)
	return out
}

// Len reports the current fill.
func (b *TradesBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}
