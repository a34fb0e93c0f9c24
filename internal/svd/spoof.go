package svd

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/domain"
)

// Wall is an outsized resting order near price.
type Wall struct {
	Side     BookSide
	Price    float64
	Size     float64
	SeenAt   time.Time
	LastSeen time.Time
}

// SpoofEvent records a wall that vanished before price reached it.
type SpoofEvent struct {
	Side       BookSide
	Price      float64
	DurationMs int64
	Timestamp  time.Time
}

// SpoofReport is the per-tick spoofing readout.
type SpoofReport struct {
	Wall      *Wall
	Confirmed bool
	Events    []SpoofEvent
}

const (
	spoofDepth        = 10
	spoofProxPct      = 0.2
	spoofSizeFactor   = 4.0
	spoofMovePct      = 0.15
	spoofMaxLifeMs    = 15000
	spoofEventsCap    = 20
	spoofSamePricePct = 0.05
)

// spoofTracker remembers the last observed wall across ticks and confirms
// a spoof when it disappears quickly without price following it.
type spoofTracker struct {
	lastWall *Wall
	events   []SpoofEvent
}

// observe detects the current wall and reconciles it with the remembered
// one. Returns the tick report.
func (s *spoofTracker) observe(book *domain.OrderBook, price float64, now time.Time) SpoofReport {
	current := detectWall(book, price)

	confirmed := false
	if s.lastWall != nil {
		samePlace := current != nil && current.Side == s.lastWall.Side &&
			proximity(current.Price, s.lastWall.Price) <= spoofSamePricePct
		if samePlace {
			s.lastWall.LastSeen = now
			s.lastWall.Size = current.Size
		} else {
			life := s.lastWall.LastSeen.Sub(s.lastWall.SeenAt).Milliseconds()
			if life == 0 {
				life = now.Sub(s.lastWall.SeenAt).Milliseconds()
			}
			moved := proximity(price, s.lastWall.Price)
			if moved < spoofMovePct && life < spoofMaxLifeMs {
				confirmed = true
				s.events = append(s.events, SpoofEvent{
					Side:       s.lastWall.Side,
					Price:      s.lastWall.Price,
					DurationMs: life,
					Timestamp:  now,
				})
				if len(s.events) > spoofEventsCap {
					s.events = s.events[len(s.events)-spoofEventsCap:]
				}
				log.Debug().
					Str("side", string(s.lastWall.Side)).
					Float64("price", s.lastWall.Price).
					Int64("life_ms", life).
					Msg("spoof wall confirmed")
			}
			s.lastWall = nil
		}
	}
	if current != nil && s.lastWall == nil {
		w := *current
		w.SeenAt = now
		w.LastSeen = now
		s.lastWall = &w
	}

	return SpoofReport{
		Wall:      s.lastWall,
		Confirmed: confirmed,
		Events:    append([]SpoofEvent(nil), s.events...),
	}
}

// detectWall scans the top 10 levels of both sides for the largest level
// within 0.2% of price that exceeds 4x the side average.
func detectWall(book *domain.OrderBook, price float64) *Wall {
	if book == nil || price <= 0 {
		return nil
	}
	var best *Wall
	consider := func(levels []domain.BookLevel, avg float64, side BookSide) {
		if avg <= 0 {
			return
		}
		n := len(levels)
		if n > spoofDepth {
			n = spoofDepth
		}
		for i := 0; i < n; i++ {
			l := levels[i]
			if proximity(l.Price, price) > spoofProxPct {
				continue
			}
			if l.Size < avg*spoofSizeFactor {
				continue
			}
			if best == nil || l.Size > best.Size {
				best = &Wall{Side: side, Price: l.Price, Size: l.Size}
			}
		}
	}
	consider(book.Bids, book.AvgBid, BookBid)
	consider(book.Asks, book.AvgAsk, BookAsk)
	return best
}

// ChasingReport tracks best-quote pursuit across ticks.
type ChasingReport struct {
	BidChasing bool
	AskChasing bool
}

// quoteTracker compares best bid/ask against the previous tick.
type quoteTracker struct {
	prevBid float64
	prevAsk float64
}

func (q *quoteTracker) observe(book *domain.OrderBook) ChasingReport {
	rep := ChasingReport{}
	if book == nil {
		return rep
	}
	bb, okB := book.BestBid()
	ba, okA := book.BestAsk()
	if okB {
		rep.BidChasing = q.prevBid > 0 && bb.Price > q.prevBid
		q.prevBid = bb.Price
	}
	if okA {
		rep.AskChasing = q.prevAsk > 0 && ba.Price < q.prevAsk
		q.prevAsk = ba.Price
	}
	return rep
}

func proximity(a, b float64) float64 {
	if b == 0 {
		return 100
	}
	d := (a - b) / b * 100
	if d < 0 {
		return -d
	}
	return d
}
