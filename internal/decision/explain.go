package decision

import (
	"fmt"
	"strings"

	"github.com/sawpanic/smartflow/internal/domain"
)

// explainSignal produces the one-paragraph human rationale.
func explainSignal(in Inputs, sig Signal) string {
	var parts []string
	switch sig.Direction {
	case domain.SignalBuy:
		parts = append(parts, fmt.Sprintf("BUY at %.2f, confidence %.1f/10", sig.Price, sig.Confidence))
	case domain.SignalSell:
		parts = append(parts, fmt.Sprintf("SELL at %.2f, confidence %.1f/10", sig.Price, sig.Confidence))
	default:
		parts = append(parts, fmt.Sprintf("WAIT at %.2f, confidence %.1f/10", sig.Price, sig.Confidence))
	}
	if sig.VetoReason != "" {
		parts = append(parts, "vetoed: "+sig.VetoReason)
	}
	if sig.WaitReason != "" && sig.WaitReason != sig.VetoReason {
		parts = append(parts, sig.WaitReason)
	}
	if len(sig.Votes.Detail) > 0 {
		var votes []string
		for _, v := range sig.Votes.Detail {
			votes = append(votes, fmt.Sprintf("%s %s %.1f", v.Source, v.Direction, v.Weight))
		}
		parts = append(parts, "votes: "+strings.Join(votes, ", "))
	}
	parts = append(parts, fmt.Sprintf("phase %s, intent %s", in.SVD.Phase, in.SVD.Intent))
	if in.Trap.IsTrap {
		parts = append(parts, fmt.Sprintf("%s detected (score %.1f)", in.Trap.Type, in.Trap.Score))
	}
	if len(sig.Conflicts.Conflicts) > 0 {
		parts = append(parts, fmt.Sprintf("%d conflicts (%d critical)", len(sig.Conflicts.Conflicts), sig.Conflicts.Critical))
	}
	if in.Behavior.Explanation != "" {
		parts = append(parts, in.Behavior.Explanation)
	}
	return strings.Join(parts, "; ")
}

// buildScenario drafts the main expectation and the invalidating
// alternative.
func buildScenario(in Inputs, sig Signal) Scenario {
	switch sig.Direction {
	case domain.SignalBuy:
		main := "buyers in control, continuation higher expected"
		if len(sig.Levels.Targets) > 0 {
			main = fmt.Sprintf("continuation toward %.2f (%s)", sig.Levels.Targets[0].Price, sig.Levels.Targets[0].Source)
		}
		return Scenario{
			Main:        main,
			Alternative: fmt.Sprintf("loss of %.2f invalidates the long idea", sig.Levels.Invalidation),
		}
	case domain.SignalSell:
		main := "sellers in control, continuation lower expected"
		if len(sig.Levels.Targets) > 0 {
			main = fmt.Sprintf("continuation toward %.2f (%s)", sig.Levels.Targets[0].Price, sig.Levels.Targets[0].Source)
		}
		return Scenario{
			Main:        main,
			Alternative: fmt.Sprintf("reclaim of %.2f invalidates the short idea", sig.Levels.Invalidation),
		}
	}
	alt := "a phase change to execution with aligned intent would open a trade"
	if sig.VetoReason != "" {
		alt = "wait for smart volume to stop fighting the tape"
	}
	return Scenario{
		Main:        "stand aside until the modules agree",
		Alternative: alt,
	}
}
