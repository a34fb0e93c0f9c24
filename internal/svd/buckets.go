package svd

import "github.com/sawpanic/smartflow/internal/domain"

const bucketWindowMs = 5000

// Bucket aggregates the prints inside one 5-second window.
type Bucket struct {
	StartMs  int64
	Delta    float64
	BuyVol   float64
	SellVol  float64
	Count    int
	Velocity float64
}

// BucketReport summarizes the bucketed flow for intent and crowd analysis.
type BucketReport struct {
	Buckets      []Bucket
	LastDelta    float64
	LastBuyVol   float64
	LastSellVol  float64
	LastVelocity float64
	MeanVelocity float64
	PosStreak    int
	NegStreak    int
}

// bucketTrades groups the buffer into fixed 5s windows anchored at the
// first trade. Streaks count consecutive same-sign bucket deltas ending at
// the latest bucket.
func bucketTrades(trades []domain.Trade) BucketReport {
	rep := BucketReport{}
	if len(trades) == 0 {
		return rep
	}
	start := trades[0].Timestamp
	var buckets []Bucket
	for _, t := range trades {
		idx := (t.Timestamp - start) / bucketWindowMs
		slot := start + idx*bucketWindowMs
		if len(buckets) == 0 || buckets[len(buckets)-1].StartMs != slot {
			buckets = append(buckets, Bucket{StartMs: slot})
		}
		b := &buckets[len(buckets)-1]
		b.Count++
		if t.Side == domain.SideBuy {
			b.BuyVol += t.Volume
		} else {
			b.SellVol += t.Volume
		}
		b.Delta += t.SignedVolume()
	}

	total := 0.0
	for i := range buckets {
		buckets[i].Velocity = float64(buckets[i].Count) / (bucketWindowMs / 1000.0)
		total += buckets[i].Velocity
	}
	rep.Buckets = buckets
	rep.MeanVelocity = total / float64(len(buckets))

	last := buckets[len(buckets)-1]
	rep.LastDelta = last.Delta
	rep.LastBuyVol = last.BuyVol
	rep.LastSellVol = last.SellVol
	rep.LastVelocity = last.Velocity

	for i := len(buckets) - 1; i >= 0; i-- {
		if buckets[i].Delta > 0 {
			rep.PosStreak++
		} else {
			break
		}
	}
	for i := len(buckets) - 1; i >= 0; i-- {
		if buckets[i].Delta < 0 {
			rep.NegStreak++
		} else {
			break
		}
	}
	return rep
}
