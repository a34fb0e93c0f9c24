package technical

// EMA computes an exponential moving average series with alpha = 2/(period+1).
// The series is seeded with the first value. Returns nil for empty input.
func EMA(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}
	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI computes the relative strength index with Wilder smoothing.
// Values before the warm-up period are reported as 50.
func RSI(closes []float64, period int) []float64 {
	if len(closes) == 0 || period <= 0 {
		return nil
	}
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = 50
	}
	if len(closes) <= period {
		return out
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFrom(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// TrueRanges computes the true range series. The first element is high-low.
func TrueRanges(highs, lows, closes []float64) []float64 {
	n := len(closes)
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	out[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		tr := highs[i] - lows[i]
		if d := abs(highs[i] - closes[i-1]); d > tr {
			tr = d
		}
		if d := abs(lows[i] - closes[i-1]); d > tr {
			tr = d
		}
		out[i] = tr
	}
	return out
}

// ATR is the EMA of the true range.
func ATR(highs, lows, closes []float64, period int) []float64 {
	return EMA(TrueRanges(highs, lows, closes), period)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
