package svd

import "github.com/sawpanic/smartflow/internal/domain"

const (
	cvdHistoryCap      = 100
	cvdSlopeWindow     = 20
	cvdDivergenceWnd   = 10
	cvdIntentMagnitude = 5.0
)

// CVDReport is the cumulative-delta readout for one tick.
type CVDReport struct {
	Value       float64
	Change      float64
	Slope       float64
	Divergence  bool
	HistorySize int
}

// CVDCalculator accumulates signed trade volume across the process
// lifetime and keeps a bounded history of readings for slope and
// divergence analysis.
type CVDCalculator struct {
	value   float64
	history []float64
}

// NewCVDCalculator builds an empty accumulator.
func NewCVDCalculator() *CVDCalculator {
	return &CVDCalculator{history: make([]float64, 0, cvdHistoryCap)}
}

// Update adds the signed volume of newly observed trades and records the
// new reading. Returns the per-tick report.
func (c *CVDCalculator) Update(trades []domain.Trade) CVDReport {
	change := 0.0
	for _, t := range trades {
		change += t.SignedVolume()
	}
	c.value += change
	c.history = append(c.history, c.value)
	if len(c.history) > cvdHistoryCap {
		c.history = c.history[len(c.history)-cvdHistoryCap:]
	}
	return CVDReport{
		Value:       c.value,
		Change:      change,
		Slope:       c.Slope(),
		HistorySize: len(c.history),
	}
}

// Value returns the cumulative delta.
func (c *CVDCalculator) Value() float64 { return c.value }

// Slope fits a least-squares line through the last 20 history points.
func (c *CVDCalculator) Slope() float64 {
	n := len(c.history)
	if n < 2 {
		return 0
	}
	start := n - cvdSlopeWindow
	if start < 0 {
		start = 0
	}
	pts := c.history[start:]
	return linearSlope(pts)
}

// Divergence reports whether the price trend over the last 10 trades
// disagrees with the CVD trend over the slope window.
func (c *CVDCalculator) Divergence(trades []domain.Trade) bool {
	if len(trades) < cvdDivergenceWnd || len(c.history) < 2 {
		return false
	}
	recent := trades[len(trades)-cvdDivergenceWnd:]
	priceTrend := recent[len(recent)-1].Price - recent[0].Price
	cvdTrend := c.Slope()
	return (priceTrend > 0 && cvdTrend < 0) || (priceTrend < 0 && cvdTrend > 0)
}

func linearSlope(pts []float64) float64 {
	n := float64(len(pts))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range pts {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}
