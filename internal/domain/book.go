package domain

// BookLevel is one price level of an order book side.
type BookLevel struct {
	Price float64
	Size  float64
}

// OrderBook is a depth snapshot. Bids are sorted descending by price,
// asks ascending. AvgBid/AvgAsk are mean sizes across each side and are
// derived once at construction.
type OrderBook struct {
	Bids      []BookLevel
	Asks      []BookLevel
	AvgBid    float64
	AvgAsk    float64
	Timestamp int64
}

// NewOrderBook builds a snapshot and derives the per-side average sizes.
func NewOrderBook(bids, asks []BookLevel, ts int64) *OrderBook {
	ob := &OrderBook{Bids: bids, Asks: asks, Timestamp: ts}
	ob.AvgBid = avgSize(bids)
	ob.AvgAsk = avgSize(asks)
	return ob
}

func avgSize(levels []BookLevel) float64 {
	if len(levels) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range levels {
		sum += l.Size
	}
	return sum / float64(len(levels))
}

// BestBid returns the top bid level, ok=false on an empty side.
func (ob *OrderBook) BestBid() (BookLevel, bool) {
	if ob == nil || len(ob.Bids) == 0 {
		return BookLevel{}, false
	}
	return ob.Bids[0], true
}

// BestAsk returns the top ask level, ok=false on an empty side.
func (ob *OrderBook) BestAsk() (BookLevel, bool) {
	if ob == nil || len(ob.Asks) == 0 {
		return BookLevel{}, false
	}
	return ob.Asks[0], true
}

// MidPrice returns (best_bid+best_ask)/2, ok=false when either side is empty.
func (ob *OrderBook) MidPrice() (float64, bool) {
	bb, ok1 := ob.BestBid()
	ba, ok2 := ob.BestAsk()
	if !ok1 || !ok2 {
		return 0, false
	}
	return (bb.Price + ba.Price) / 2, true
}
