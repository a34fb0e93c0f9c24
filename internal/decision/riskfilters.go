package decision

import (
	"github.com/sawpanic/smartflow/internal/domain"
)

const executionOnlyFloor = 6.0

// riskBlock runs the post-decision filters. A non-empty reason demotes the
// signal to WAIT.
func (e *Engine) riskBlock(in Inputs, sig Signal) string {
	if sig.Direction == domain.SignalWait {
		return ""
	}
	if e.cfg.ExecutionOnlySignals && in.SVD.Phase != domain.PhaseExecution &&
		sig.Confidence < executionOnlyFloor {
		return "signal outside execution phase without strong conviction"
	}
	if sig.Direction == domain.SignalBuy && in.Technical.Overbought {
		return "RSI overbought blocks BUY"
	}
	if sig.Direction == domain.SignalSell && in.Technical.Oversold {
		return "RSI oversold blocks SELL"
	}
	return ""
}
