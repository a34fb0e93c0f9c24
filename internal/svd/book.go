package svd

import "github.com/sawpanic/smartflow/internal/domain"

// BookSide names the dominant side of a depth comparison.
type BookSide string

const (
	BookBid     BookSide = "bid"
	BookAsk     BookSide = "ask"
	BookNeutral BookSide = "neutral"
)

// DOMReport compares resting bid and ask volume over the top levels.
type DOMReport struct {
	BidVolume float64
	AskVolume float64
	Ratio     float64
	Side      BookSide
}

const (
	domDepth     = 5
	domBidFactor = 1.2
	domAskFactor = 0.8
)

// domImbalance sums the top 5 levels per side.
func domImbalance(book *domain.OrderBook) DOMReport {
	rep := DOMReport{Side: BookNeutral, Ratio: 1}
	if book == nil {
		return rep
	}
	rep.BidVolume = sumTop(book.Bids, domDepth)
	rep.AskVolume = sumTop(book.Asks, domDepth)
	rep.Ratio = rep.BidVolume / maxF(rep.AskVolume, 1e-9)
	switch {
	case rep.Ratio > domBidFactor:
		rep.Side = BookBid
	case rep.Ratio < domAskFactor:
		rep.Side = BookAsk
	}
	return rep
}

// ThinReport points at the first under-filled level per side, if any.
type ThinReport struct {
	Above *domain.BookLevel
	Below *domain.BookLevel
}

const (
	thinDepth  = 20
	thinFactor = 0.3
)

// thinZones finds the first level within the top 20 whose size falls below
// 0.3x the side average.
func thinZones(book *domain.OrderBook) ThinReport {
	rep := ThinReport{}
	if book == nil {
		return rep
	}
	rep.Below = firstThin(book.Bids, book.AvgBid)
	rep.Above = firstThin(book.Asks, book.AvgAsk)
	return rep
}

func firstThin(levels []domain.BookLevel, avg float64) *domain.BookLevel {
	if avg <= 0 {
		return nil
	}
	n := len(levels)
	if n > thinDepth {
		n = thinDepth
	}
	for i := 0; i < n; i++ {
		if levels[i].Size < avg*thinFactor {
			l := levels[i]
			return &l
		}
	}
	return nil
}

// PathCostReport integrates book resistance against a move in each
// direction.
type PathCostReport struct {
	Up   float64
	Down float64
}

const (
	pathDepth    = 20
	pathLevelCap = 5.0
	thinDiscount = 0.7
)

// pathCost weighs the top 20 levels per side by distance from price,
// capping outsized levels at 5x the side average. The thin side is
// discounted by 0.7. Costs can be normalized by ATR% by the caller.
func pathCost(book *domain.OrderBook, price float64, thin ThinReport) PathCostReport {
	rep := PathCostReport{}
	if book == nil || price <= 0 {
		return rep
	}
	rep.Up = sideCost(book.Asks, book.AvgAsk, price)
	rep.Down = sideCost(book.Bids, book.AvgBid, price)
	if thin.Above != nil {
		rep.Up *= thinDiscount
	}
	if thin.Below != nil {
		rep.Down *= thinDiscount
	}
	return rep
}

func sideCost(levels []domain.BookLevel, avg float64, price float64) float64 {
	n := len(levels)
	if n > pathDepth {
		n = pathDepth
	}
	cost := 0.0
	for i := 0; i < n; i++ {
		size := levels[i].Size
		if avg > 0 && size > avg*pathLevelCap {
			size = avg * pathLevelCap
		}
		dist := (levels[i].Price - price) / price
		if dist < 0 {
			dist = -dist
		}
		// Closer liquidity resists the move more than distant liquidity.
		cost += size / (1 + dist*100)
	}
	return cost
}

func sumTop(levels []domain.BookLevel, depth int) float64 {
	n := len(levels)
	if n > depth {
		n = depth
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += levels[i].Size
	}
	return sum
}
