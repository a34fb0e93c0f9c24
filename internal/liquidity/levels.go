package liquidity

import (
	"time"

	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/structure"
)

const wickShareThreshold = 0.6

// stopClusters derives implied stop concentrations from long candle wicks.
// A bar whose upper wick exceeds 60% of its range leaves buy stops above
// the high; the mirror leaves sell stops below the low. Weight decays with
// candle age.
func stopClusters(candles []domain.Candle, halfLife float64, now time.Time) []domain.LiquidityLevel {
	var out []domain.LiquidityLevel
	for _, c := range candles {
		rng := c.Range()
		if rng <= 0 {
			continue
		}
		age := now.Sub(time.UnixMilli(c.Timestamp)).Seconds()
		w := domain.DecayWeight(age, halfLife)
		if c.UpperWick()/rng > wickShareThreshold {
			out = append(out, domain.LiquidityLevel{
				Price: c.High, Kind: domain.BuyStops, Source: domain.SourceStopCluster,
				Timestamp: c.Timestamp, Weight: w,
			})
		}
		if c.LowerWick()/rng > wickShareThreshold {
			out = append(out, domain.LiquidityLevel{
				Price: c.Low, Kind: domain.SellStops, Source: domain.SourceStopCluster,
				Timestamp: c.Timestamp, Weight: w,
			})
		}
	}
	return out
}

// swingLiquidity mirrors retained swings as liquidity resting beyond them.
func swingLiquidity(sw structure.Swings, halfLife float64, now time.Time) []domain.LiquidityLevel {
	var out []domain.LiquidityLevel
	for _, h := range sw.Highs {
		age := now.Sub(time.UnixMilli(h.Timestamp)).Seconds()
		out = append(out, domain.LiquidityLevel{
			Price: h.Price, Kind: domain.BuyStops, Source: domain.SourceSwingLiquidity,
			Timestamp: h.Timestamp, Weight: domain.DecayWeight(age, halfLife),
		})
	}
	for _, l := range sw.Lows {
		age := now.Sub(time.UnixMilli(l.Timestamp)).Seconds()
		out = append(out, domain.LiquidityLevel{
			Price: l.Price, Kind: domain.SellStops, Source: domain.SourceSwingLiquidity,
			Timestamp: l.Timestamp, Weight: domain.DecayWeight(age, halfLife),
		})
	}
	return out
}

// extremes returns the window ATH and ATL anchors at full weight.
func extremes(candles []domain.Candle) (high, low domain.LiquidityLevel, ok bool) {
	if len(candles) == 0 {
		return high, low, false
	}
	hi, lo := candles[0], candles[0]
	for _, c := range candles {
		if c.High > hi.High {
			hi = c
		}
		if c.Low < lo.Low {
			lo = c
		}
	}
	high = domain.LiquidityLevel{Price: hi.High, Kind: domain.BuyStops, Source: domain.SourceExtreme, Timestamp: hi.Timestamp, Weight: 1}
	low = domain.LiquidityLevel{Price: lo.Low, Kind: domain.SellStops, Source: domain.SourceExtreme, Timestamp: lo.Timestamp, Weight: 1}
	return high, low, true
}

// DirectionReport is the weighted liquidity pull above vs below price.
type DirectionReport struct {
	Direction  domain.Direction
	UpWeight   float64
	DownWeight float64
}

const directionHysteresis = 1.1

// directionHint sums decayed weights of buy stops above price against sell
// stops below, with 10% hysteresis before leaving neutral.
func directionHint(levels []domain.LiquidityLevel, price float64) DirectionReport {
	rep := DirectionReport{Direction: domain.DirectionNeutral}
	for _, l := range levels {
		switch {
		case l.Kind == domain.BuyStops && l.Price >= price:
			rep.UpWeight += l.Weight
		case l.Kind == domain.SellStops && l.Price <= price:
			rep.DownWeight += l.Weight
		}
	}
	switch {
	case rep.UpWeight > directionHysteresis*rep.DownWeight && rep.UpWeight > 0:
		rep.Direction = domain.DirectionUp
	case rep.DownWeight > directionHysteresis*rep.UpWeight && rep.DownWeight > 0:
		rep.Direction = domain.DirectionDown
	}
	return rep
}
