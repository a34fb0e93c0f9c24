package technical

import "github.com/sawpanic/smartflow/internal/domain"

// Pattern names a recognized candle formation on the last bars.
type Pattern string

const (
	PatternBullishEngulfing Pattern = "bullish_engulfing"
	PatternBearishEngulfing Pattern = "bearish_engulfing"
	PatternHammer           Pattern = "hammer"
	PatternShootingStar     Pattern = "shooting_star"
	PatternDoji             Pattern = "doji"
)

// DetectPatterns inspects the last two candles for basic formations.
func DetectPatterns(candles []domain.Candle) []Pattern {
	if len(candles) == 0 {
		return nil
	}
	var out []Pattern
	last := candles[len(candles)-1]

	if len(candles) >= 2 {
		prev := candles[len(candles)-2]
		if last.Bullish() && !prev.Bullish() && last.Close > prev.Open && last.Open < prev.Close {
			out = append(out, PatternBullishEngulfing)
		}
		if !last.Bullish() && prev.Bullish() && last.Close < prev.Open && last.Open > prev.Close {
			out = append(out, PatternBearishEngulfing)
		}
	}

	rng := last.Range()
	if rng > 0 {
		body := last.Body()
		switch {
		case body < rng*0.1:
			out = append(out, PatternDoji)
		case last.LowerWick() > body*2 && last.UpperWick() < body:
			out = append(out, PatternHammer)
		case last.UpperWick() > body*2 && last.LowerWick() < body:
			out = append(out, PatternShootingStar)
		}
	}
	return out
}
