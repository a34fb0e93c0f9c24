package liquidity

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/domain"
)

// SweptRecord is one price level known to have had its stops taken.
type SweptRecord struct {
	Price      float64
	Direction  domain.Direction
	Reason     string
	FirstSeen  time.Time
	LastSeen   time.Time
	Count      int
	CandlesAgo int
}

// SweptTracker is the process-lifetime registry of swept levels. Records
// deduplicate by 0.1% price proximity and expire after the configured
// wall-clock window. Safe for use from a single goroutine per tick; a
// mutex still guards it because the HTTP surface reads it for display.
type SweptTracker struct {
	mu          sync.Mutex
	records     []SweptRecord
	expiry      time.Duration
	dedupPct    float64
	cycleWindow time.Duration
}

// NewSweptTracker builds a tracker; expiryHours <= 0 selects 24h.
func NewSweptTracker(expiryHours float64) *SweptTracker {
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &SweptTracker{
		expiry:      time.Duration(expiryHours * float64(time.Hour)),
		dedupPct:    0.1,
		cycleWindow: 60 * time.Second,
	}
}

// MarkSwept records a sweep at price. A repeat mark within 0.1% proximity
// inside the same 60-second analysis cycle refreshes LastSeen without
// incrementing Count; after the window, Count increments.
func (t *SweptTracker) MarkSwept(price float64, dir domain.Direction, reason string, candlesAgo int, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expire(now)

	for i := range t.records {
		if proximityPct(t.records[i].Price, price) <= t.dedupPct {
			rec := &t.records[i]
			if now.Sub(rec.LastSeen) >= t.cycleWindow {
				rec.Count++
			}
			rec.LastSeen = now
			if candlesAgo > 0 {
				rec.CandlesAgo = candlesAgo
			}
			return
		}
	}

	t.records = append(t.records, SweptRecord{
		Price:      price,
		Direction:  dir,
		Reason:     reason,
		FirstSeen:  now,
		LastSeen:   now,
		Count:      1,
		CandlesAgo: candlesAgo,
	})
	log.Debug().Float64("price", price).Str("direction", string(dir)).Str("reason", reason).Msg("level marked swept")
}

// IsSwept reports whether price sits within tolPct of a live record.
func (t *SweptTracker) IsSwept(price, tolPct float64, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expire(now)
	for _, rec := range t.records {
		if proximityPct(rec.Price, price) <= tolPct {
			return true
		}
	}
	return false
}

// FilterLevels drops liquidity levels within tolPct of a swept record.
func (t *SweptTracker) FilterLevels(levels []domain.LiquidityLevel, tolPct float64, now time.Time) []domain.LiquidityLevel {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expire(now)

	out := levels[:0:0]
	for _, l := range levels {
		swept := false
		for _, rec := range t.records {
			if proximityPct(rec.Price, l.Price) <= tolPct {
				swept = true
				break
			}
		}
		if !swept {
			out = append(out, l)
		}
	}
	return out
}

// Records returns a copy of the live records.
func (t *SweptTracker) Records(now time.Time) []SweptRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expire(now)
	return append([]SweptRecord(nil), t.records...)
}

func (t *SweptTracker) expire(now time.Time) {
	kept := t.records[:0]
	for _, rec := range t.records {
		if now.Sub(rec.LastSeen) < t.expiry {
			kept = append(kept, rec)
		}
	}
	t.records = kept
}

// proximityPct is the relative distance between two prices in percent,
// measured against the reference level.
func proximityPct(ref, price float64) float64 {
	if ref == 0 {
		return 100
	}
	d := (price - ref) / ref * 100
	if d < 0 {
		return -d
	}
	return d
}
