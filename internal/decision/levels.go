package decision

import (
	"fmt"
	"sort"

	"github.com/sawpanic/smartflow/internal/domain"
)

// Target is one price objective with its source detector.
type Target struct {
	Price  float64
	Source string
}

// Levels is the trade geometry attached to a directional signal.
type Levels struct {
	EntryLow     float64
	EntryHigh    float64
	Targets      []Target
	Invalidation float64
	SupportNotes []string
}

const (
	maxTargets      = 2
	sweptTolPct     = 0.5
	invalidationPad = 0.002
)

// computeLevels builds targets, entry zone and invalidation for the side.
// Swept levels never serve as targets or invalidation; those near price
// surface as support/resistance annotations instead.
func computeLevels(in Inputs, signal domain.SignalDirection) Levels {
	lv := Levels{}
	if signal == domain.SignalWait || in.Price <= 0 {
		return lv
	}
	up := signal == domain.SignalBuy

	lv.Targets = pickTargets(in, up)
	lv.EntryLow, lv.EntryHigh = entryZone(in, up)
	lv.Invalidation = invalidation(in, up)
	lv.SupportNotes = sweptAnnotations(in)
	return lv
}

// pickTargets walks the fallback chain: stop clusters, swings, swing
// liquidity, extremes. Everything is filtered through the swept registry.
func pickTargets(in Inputs, up bool) []Target {
	var out []Target

	appendFrom := func(levels []domain.LiquidityLevel, source string) {
		if len(out) >= maxTargets {
			return
		}
		if in.Tracker != nil {
			levels = in.Tracker.FilterLevels(levels, sweptTolPct, in.Now)
		}
		candidates := levels[:0:0]
		for _, l := range levels {
			if (up && l.Price > in.Price) || (!up && l.Price < in.Price) {
				candidates = append(candidates, l)
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			di := candidates[i].Price - in.Price
			dj := candidates[j].Price - in.Price
			if di < 0 {
				di = -di
			}
			if dj < 0 {
				dj = -dj
			}
			return di < dj
		})
		for _, l := range candidates {
			if len(out) >= maxTargets {
				return
			}
			if duplicateTarget(out, l.Price) {
				continue
			}
			out = append(out, Target{Price: l.Price, Source: source})
		}
	}

	appendFrom(sideLevels(in.Liquidity.StopClusters, up), "stop_cluster")
	appendFrom(swingLevels(in, up), "swing")
	appendFrom(sideLevels(in.Liquidity.SwingLiquidity, up), "swing_liquidity")
	if in.Liquidity.HasExtremes {
		if up {
			appendFrom([]domain.LiquidityLevel{in.Liquidity.ATH}, "extreme")
		} else {
			appendFrom([]domain.LiquidityLevel{in.Liquidity.ATL}, "extreme")
		}
	}
	return out
}

func sideLevels(levels []domain.LiquidityLevel, up bool) []domain.LiquidityLevel {
	out := levels[:0:0]
	for _, l := range levels {
		if (up && l.Kind == domain.BuyStops) || (!up && l.Kind == domain.SellStops) {
			out = append(out, l)
		}
	}
	return out
}

func swingLevels(in Inputs, up bool) []domain.LiquidityLevel {
	var out []domain.LiquidityLevel
	if up {
		for _, h := range in.Structure.Swings.Highs {
			out = append(out, domain.LiquidityLevel{Price: h.Price, Kind: domain.BuyStops, Timestamp: h.Timestamp})
		}
	} else {
		for _, l := range in.Structure.Swings.Lows {
			out = append(out, domain.LiquidityLevel{Price: l.Price, Kind: domain.SellStops, Timestamp: l.Timestamp})
		}
	}
	return out
}

func duplicateTarget(targets []Target, price float64) bool {
	for _, t := range targets {
		d := (t.Price - price) / price * 100
		if d < 0 {
			d = -d
		}
		if d < 0.05 {
			return true
		}
	}
	return false
}

// entryZone brackets current price with the nearest opposite swing.
func entryZone(in Inputs, up bool) (low, high float64) {
	if up {
		low = in.Price * (1 - invalidationPad)
		if sw, ok := nearestSwing(in, false); ok && sw < in.Price {
			low = sw
		}
		return low, in.Price
	}
	high = in.Price * (1 + invalidationPad)
	if sw, ok := nearestSwing(in, true); ok && sw > in.Price {
		high = sw
	}
	return in.Price, high
}

// invalidation is the last non-swept swing on the stop side padded 0.2%.
func invalidation(in Inputs, up bool) float64 {
	if sw, ok := nearestValidSwing(in, !up); ok {
		if up {
			return sw * (1 - invalidationPad)
		}
		return sw * (1 + invalidationPad)
	}
	if up {
		if in.Liquidity.HasExtremes && in.Liquidity.ATL.Price < in.Price {
			return in.Liquidity.ATL.Price * (1 - invalidationPad)
		}
		return in.Price * 0.99
	}
	if in.Liquidity.HasExtremes && in.Liquidity.ATH.Price > in.Price {
		return in.Liquidity.ATH.Price * (1 + invalidationPad)
	}
	return in.Price * 1.01
}

// nearestSwing returns the closest swing high (above=true) or low below
// current price.
func nearestSwing(in Inputs, above bool) (float64, bool) {
	best, found := 0.0, false
	if above {
		for _, h := range in.Structure.Swings.Highs {
			if h.Price > in.Price && (!found || h.Price < best) {
				best, found = h.Price, true
			}
		}
	} else {
		for _, l := range in.Structure.Swings.Lows {
			if l.Price < in.Price && (!found || l.Price > best) {
				best, found = l.Price, true
			}
		}
	}
	return best, found
}

// nearestValidSwing is nearestSwing minus anything in the swept registry.
func nearestValidSwing(in Inputs, above bool) (float64, bool) {
	pts := in.Structure.Swings.Lows
	if above {
		pts = in.Structure.Swings.Highs
	}
	best, found := 0.0, false
	for _, p := range pts {
		if above && p.Price <= in.Price {
			continue
		}
		if !above && p.Price >= in.Price {
			continue
		}
		if in.Tracker != nil && in.Tracker.IsSwept(p.Price, sweptTolPct, in.Now) {
			continue
		}
		if !found || closer(p.Price, best, in.Price) {
			best, found = p.Price, true
		}
	}
	return best, found
}

func closer(a, b, ref float64) bool {
	da, db := a-ref, b-ref
	if da < 0 {
		da = -da
	}
	if db < 0 {
		db = -db
	}
	return da < db
}

// sweptAnnotations lists registry entries near price as plain-text notes.
func sweptAnnotations(in Inputs) []string {
	if in.Tracker == nil {
		return nil
	}
	var notes []string
	for _, rec := range in.Tracker.Records(in.Now) {
		d := (rec.Price - in.Price) / in.Price * 100
		if d < 0 {
			d = -d
		}
		if d > 3 {
			continue
		}
		role := "support"
		if rec.Price > in.Price {
			role = "resistance"
		}
		notes = append(notes, fmt.Sprintf("swept level %.2f now acting as %s (%s)", rec.Price, role, rec.Reason))
	}
	return notes
}
