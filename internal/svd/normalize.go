package svd

// Volatility-adaptive thresholds. ATR% stretches or compresses what counts
// as a significant move or an unusually flat tape.

// deltaNormFactor scales a raw delta into ATR-adjusted units.
func deltaNormFactor(atrPct float64) float64 {
	return 0.5 / maxF(atrPct, 0.1)
}

// absorptionThresholdPct is the maximum price drift that still counts as
// absorbed flow: a 0.05% base widened by a tenth of ATR%.
func absorptionThresholdPct(atrPct float64) float64 {
	return 0.05 + atrPct/10
}

// pathNormFactor rescales path costs so quiet and volatile regimes
// compare.
func pathNormFactor(atrPct float64) float64 {
	return 1.0 / maxF(atrPct, 0.1)
}
