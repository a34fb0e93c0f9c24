// Package quality scores the freshness and completeness of each inbound feed
// before the analysis pipeline is allowed to run on it.
package quality

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/domain"
)

// Config holds the validation floors. Ages are wall-clock seconds.
type Config struct {
	MinOHLCVCandles    int     `yaml:"min_ohlcv_candles"`
	MinOrderBookLevels int     `yaml:"min_orderbook_levels"`
	MinTradesCount     int     `yaml:"min_trades_count"`
	MaxAgeOHLCV        float64 `yaml:"max_age_ohlcv"`
	MaxAgeOrderBook    float64 `yaml:"max_age_orderbook"`
	MaxAgeTrades       float64 `yaml:"max_age_trades"`
	MinDataQuality     float64 `yaml:"min_data_quality"`
}

// DefaultConfig returns the standard floors.
func DefaultConfig() Config {
	return Config{
		MinOHLCVCandles:    30,
		MinOrderBookLevels: 5,
		MinTradesCount:     20,
		MaxAgeOHLCV:        600,
		MaxAgeOrderBook:    10,
		MaxAgeTrades:       60,
		MinDataQuality:     0.5,
	}
}

// Result is the outcome for a single feed. Score starts at 1.0 and is
// reduced per failed check; below 0.3 the feed is marked invalid.
type Result struct {
	Valid  bool
	Score  float64
	Issues []string
}

// Report aggregates the three feed results. Overall is the weighted mean
// 0.3*OHLCV + 0.4*OrderBook + 0.3*Trades.
type Report struct {
	OHLCV     Result
	OrderBook Result
	Trades    Result
	Overall   float64
	Pass      bool
}

const invalidFloor = 0.3

// Escalation thresholds. A feed several multiples past its age limit, or
// with less than half the required depth of prints, is unusable rather than
// half-usable and deducts accordingly.
const (
	unusableAgeFactor = 3.0
	severeCountPen    = 0.5
)

// Validator applies the configured floors to feed snapshots.
type Validator struct {
	cfg Config
}

// NewValidator builds a validator; a zero MinDataQuality selects defaults.
func NewValidator(cfg Config) *Validator {
	if cfg.MinDataQuality == 0 {
		cfg = DefaultConfig()
	}
	return &Validator{cfg: cfg}
}

// ValidateAll scores every feed and decides whether the tick may proceed.
func (v *Validator) ValidateAll(candles []domain.Candle, book *domain.OrderBook, trades []domain.Trade, now time.Time) Report {
	rep := Report{
		OHLCV:     v.ValidateOHLCV(candles, now),
		OrderBook: v.ValidateOrderBook(book, now),
		Trades:    v.ValidateTrades(trades, now),
	}
	rep.Overall = 0.3*rep.OHLCV.Score + 0.4*rep.OrderBook.Score + 0.3*rep.Trades.Score
	rep.Pass = rep.Overall >= v.cfg.MinDataQuality
	if !rep.Pass {
		log.Warn().
			Float64("overall", rep.Overall).
			Float64("floor", v.cfg.MinDataQuality).
			Strs("ohlcv_issues", rep.OHLCV.Issues).
			Strs("orderbook_issues", rep.OrderBook.Issues).
			Strs("trades_issues", rep.Trades.Issues).
			Msg("data quality below floor")
	}
	return rep
}

// ValidateOHLCV checks candle count, freshness, timestamp gaps and prices.
func (v *Validator) ValidateOHLCV(candles []domain.Candle, now time.Time) Result {
	r := Result{Score: 1.0}
	if len(candles) < v.cfg.MinOHLCVCandles {
		pen := 0.3
		if len(candles)*2 < v.cfg.MinOHLCVCandles {
			pen = severeCountPen
		}
		r.deduct(pen, fmt.Sprintf("candle count %d below floor %d", len(candles), v.cfg.MinOHLCVCandles))
	}
	if len(candles) > 0 {
		last := candles[len(candles)-1]
		age := now.Sub(time.UnixMilli(last.Timestamp)).Seconds()
		switch {
		case age > unusableAgeFactor*v.cfg.MaxAgeOHLCV:
			r.deduct(1.0, fmt.Sprintf("last candle %.0fs old, feed unusable", age))
		case age > v.cfg.MaxAgeOHLCV:
			r.deduct(0.4, fmt.Sprintf("last candle %.0fs old", age))
		}
		if n := gapCount(candles); n > 0 {
			r.deduct(0.1, fmt.Sprintf("%d timestamp gaps", n))
		}
		for _, c := range candles {
			if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
				r.deduct(0.2, "non-positive prices present")
				break
			}
		}
	}
	r.Valid = r.Score >= invalidFloor
	return r
}

// ValidateOrderBook checks depth, age, crossing and zero volumes.
func (v *Validator) ValidateOrderBook(book *domain.OrderBook, now time.Time) Result {
	r := Result{Score: 1.0}
	if book == nil {
		r.deduct(1.0, "no order book snapshot")
		r.Valid = false
		return r
	}
	if len(book.Bids) < v.cfg.MinOrderBookLevels || len(book.Asks) < v.cfg.MinOrderBookLevels {
		r.deduct(0.2, fmt.Sprintf("depth %d/%d below floor %d", len(book.Bids), len(book.Asks), v.cfg.MinOrderBookLevels))
	}
	if book.Timestamp > 0 {
		age := now.Sub(time.UnixMilli(book.Timestamp)).Seconds()
		switch {
		case age > unusableAgeFactor*v.cfg.MaxAgeOrderBook:
			r.deduct(1.0, fmt.Sprintf("snapshot %.0fs old, feed unusable", age))
		case age > v.cfg.MaxAgeOrderBook:
			r.deduct(0.5, fmt.Sprintf("snapshot %.0fs old", age))
		}
	}
	if bb, ok := book.BestBid(); ok {
		if ba, ok2 := book.BestAsk(); ok2 && bb.Price >= ba.Price {
			r.deduct(0.3, "crossed book")
		}
	}
	if hasZeroSizes(book.Bids) || hasZeroSizes(book.Asks) {
		r.deduct(0.1, "zero volumes present")
	}
	r.Valid = r.Score >= invalidFloor
	return r
}

// ValidateTrades checks print count, freshness and field sanity.
func (v *Validator) ValidateTrades(trades []domain.Trade, now time.Time) Result {
	r := Result{Score: 1.0}
	if len(trades) < v.cfg.MinTradesCount {
		pen := 0.3
		if len(trades)*2 < v.cfg.MinTradesCount {
			pen = severeCountPen
		}
		r.deduct(pen, fmt.Sprintf("trade count %d below floor %d", len(trades), v.cfg.MinTradesCount))
	}
	if len(trades) > 0 {
		last := trades[len(trades)-1]
		age := now.Sub(time.UnixMilli(last.Timestamp)).Seconds()
		switch {
		case age > unusableAgeFactor*v.cfg.MaxAgeTrades:
			r.deduct(1.0, fmt.Sprintf("last trade %.0fs old, feed unusable", age))
		case age > v.cfg.MaxAgeTrades:
			r.deduct(0.4, fmt.Sprintf("last trade %.0fs old", age))
		}
		bad := 0
		for _, t := range trades {
			if t.Price <= 0 || t.Volume <= 0 {
				bad++
			}
		}
		if bad > 0 {
			pen := float64(bad) / float64(len(trades)) * 0.3
			if pen > 0.3 {
				pen = 0.3
			}
			r.deduct(pen, fmt.Sprintf("%d invalid prints", bad))
		}
	}
	r.Valid = r.Score >= invalidFloor
	return r
}

func (r *Result) deduct(amount float64, issue string) {
	r.Score -= amount
	if r.Score < 0 {
		r.Score = 0
	}
	r.Issues = append(r.Issues, issue)
}

// gapCount counts inter-candle intervals exceeding 2x the median interval.
func gapCount(candles []domain.Candle) int {
	if len(candles) < 3 {
		return 0
	}
	diffs := make([]int64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		diffs = append(diffs, candles[i].Timestamp-candles[i-1].Timestamp)
	}
	sorted := append([]int64(nil), diffs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	median := sorted[len(sorted)/2]
	if median <= 0 {
		return 0
	}
	n := 0
	for _, d := range diffs {
		if d > 2*median {
			n++
		}
	}
	return n
}

func hasZeroSizes(levels []domain.BookLevel) bool {
	for _, l := range levels {
		if l.Size <= 0 {
			return true
		}
	}
	return false
}
