package structure

import "github.com/sawpanic/smartflow/internal/domain"

// Swings holds the retained swing highs and lows, ascending by index.
type Swings struct {
	Highs []domain.SwingPoint
	Lows  []domain.SwingPoint
}

// detectSwings finds strict local extrema within +-lookback bars and keeps
// only significant ones (volume ratio >= 1.2 or range ratio >= 1.5 against
// the window averages).
func detectSwings(candles []domain.Candle, lookback int) Swings {
	var sw Swings
	if len(candles) < 2*lookback+1 {
		return sw
	}
	avgVol := domain.AvgVolume(candles)
	avgRng := domain.AvgRange(candles)

	for i := lookback; i < len(candles)-lookback; i++ {
		isHigh, isLow := true, true
		for j := i - lookback; j <= i+lookback; j++ {
			if j == i {
				continue
			}
			if candles[j].High >= candles[i].High {
				isHigh = false
			}
			if candles[j].Low <= candles[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if !isHigh && !isLow {
			continue
		}

		volRatio, rngRatio := 1.0, 1.0
		if avgVol > 0 {
			volRatio = candles[i].Volume / avgVol
		}
		if avgRng > 0 {
			rngRatio = candles[i].Range() / avgRng
		}
		if volRatio < 1.2 && rngRatio < 1.5 {
			continue
		}
		sp := domain.SwingPoint{
			Index:        i,
			Timestamp:    candles[i].Timestamp,
			Significance: (volRatio + rngRatio) / 2,
		}
		if isHigh {
			sp.Price = candles[i].High
			sw.Highs = append(sw.Highs, sp)
		}
		if isLow {
			sp.Price = candles[i].Low
			sw.Lows = append(sw.Lows, sp)
		}
	}
	return sw
}
