package liquidity

import (
	"sort"

	"github.com/sawpanic/smartflow/internal/domain"
)

// PoCRole describes how the point of control relates to current price.
type PoCRole string

const (
	PoCMagnet     PoCRole = "magnet"
	PoCSupport    PoCRole = "support"
	PoCResistance PoCRole = "resistance"
)

// VAPosition locates current price relative to the value area.
type VAPosition string

const (
	AboveValueArea  VAPosition = "above_va"
	InsideValueArea VAPosition = "inside_va"
	BelowValueArea  VAPosition = "below_va"
)

// ProfileReport is the volume-profile readout for the window.
type ProfileReport struct {
	PoC         float64
	VAL         float64
	VAH         float64
	TotalVolume float64
	Position    VAPosition
	Role        PoCRole
	Valid       bool
}

const (
	profileBins  = 50
	valueAreaPct = 0.7
	magnetPct    = 0.5
)

// buildProfile bins the window into 50 price buckets, spreading each bar's
// volume proportionally to its overlap with each bucket. The value area is
// the smallest top-volume bucket set covering 70% of total volume.
func buildProfile(candles []domain.Candle, price float64) ProfileReport {
	rep := ProfileReport{}
	if len(candles) == 0 {
		return rep
	}
	lo, hi := candles[0].Low, candles[0].High
	for _, c := range candles {
		if c.Low < lo {
			lo = c.Low
		}
		if c.High > hi {
			hi = c.High
		}
	}
	if hi <= lo {
		return rep
	}

	binSize := (hi - lo) / profileBins
	vols := make([]float64, profileBins)
	for _, c := range candles {
		rng := c.High - c.Low
		for b := 0; b < profileBins; b++ {
			bLo := lo + float64(b)*binSize
			bHi := bLo + binSize
			overlap := overlapLen(c.Low, c.High, bLo, bHi)
			if overlap <= 0 {
				continue
			}
			if rng > 0 {
				vols[b] += c.Volume * overlap / rng
			} else if c.Close >= bLo && c.Close < bHi {
				vols[b] += c.Volume
			}
		}
		rep.TotalVolume += c.Volume
	}
	if rep.TotalVolume <= 0 {
		return rep
	}

	type bin struct {
		idx int
		vol float64
	}
	order := make([]bin, profileBins)
	poc := 0
	for i, v := range vols {
		order[i] = bin{i, v}
		if v > vols[poc] {
			poc = i
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].vol > order[j].vol })

	covered := 0.0
	valIdx, vahIdx := poc, poc
	for _, b := range order {
		covered += b.vol
		if b.idx < valIdx {
			valIdx = b.idx
		}
		if b.idx > vahIdx {
			vahIdx = b.idx
		}
		if covered >= rep.TotalVolume*valueAreaPct {
			break
		}
	}

	center := func(i int) float64 { return lo + (float64(i)+0.5)*binSize }
	rep.PoC = center(poc)
	rep.VAL = lo + float64(valIdx)*binSize
	rep.VAH = lo + float64(vahIdx+1)*binSize
	rep.Valid = true

	switch {
	case price > rep.VAH:
		rep.Position = AboveValueArea
	case price < rep.VAL:
		rep.Position = BelowValueArea
	default:
		rep.Position = InsideValueArea
	}
	switch {
	case proximityPct(rep.PoC, price) <= magnetPct:
		rep.Role = PoCMagnet
	case price > rep.PoC:
		rep.Role = PoCSupport
	default:
		rep.Role = PoCResistance
	}
	return rep
}

func overlapLen(aLo, aHi, bLo, bHi float64) float64 {
	lo := aLo
	if bLo > lo {
		lo = bLo
	}
	hi := aHi
	if bHi < hi {
		hi = bHi
	}
	return hi - lo
}
