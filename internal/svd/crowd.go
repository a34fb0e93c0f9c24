package svd

import "github.com/sawpanic/smartflow/internal/domain"

// CrowdReport flags retail herd behavior derived from bucketed flow.
type CrowdReport struct {
	FOMO        bool
	StrongFOMO  bool
	Panic       bool
	StrongPanic bool
}

const (
	crowdVelFloor       = 5.0
	crowdStrongVelFloor = 8.0
	crowdMovePct        = 0.25
)

// detectCrowd derives FOMO and panic from bucket streaks, velocity against
// the mean and fast inter-trade price moves.
func detectCrowd(b BucketReport, trades []domain.Trade) CrowdReport {
	rep := CrowdReport{}
	if len(b.Buckets) == 0 {
		return rep
	}
	velHot := b.LastVelocity > maxF(b.MeanVelocity*1.1, crowdVelFloor)
	velStrong := b.LastVelocity > maxF(b.MeanVelocity*1.5, crowdStrongVelFloor)
	fastMove := maxInterTradeMovePct(trades) > crowdMovePct

	if (b.LastDelta > 0 || b.PosStreak >= 2) && velHot {
		rep.FOMO = true
		if (b.PosStreak >= 3 && velStrong) || fastMove {
			rep.StrongFOMO = true
		}
	}
	if (b.LastDelta < 0 || b.NegStreak >= 2) && velHot {
		rep.Panic = true
		if (b.NegStreak >= 3 && velStrong) || fastMove {
			rep.StrongPanic = true
		}
	}
	return rep
}

// maxInterTradeMovePct scans the last ten prints for the largest move
// between consecutive trades.
func maxInterTradeMovePct(trades []domain.Trade) float64 {
	start := len(trades) - 10
	if start < 1 {
		start = 1
	}
	best := 0.0
	for i := start; i < len(trades); i++ {
		prev := trades[i-1].Price
		if prev <= 0 {
			continue
		}
		move := (trades[i].Price - prev) / prev * 100
		if move < 0 {
			move = -move
		}
		if move > best {
			best = move
		}
	}
	return best
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
