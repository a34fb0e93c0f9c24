package decision

import (
	"fmt"

	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/structure"
	"github.com/sawpanic/smartflow/internal/svd"
	"github.com/sawpanic/smartflow/internal/technical"
)

// ConflictType names one contradiction between modules.
type ConflictType string

const (
	ConflictLiquidityVsSVD ConflictType = "liquidity_vs_svd"
	ConflictSignalVsSVD    ConflictType = "signal_vs_svd"
	ConflictSignalVsDOM    ConflictType = "signal_vs_dom"
	ConflictSignalVsThin   ConflictType = "signal_vs_thin"
	ConflictStructureVsTA  ConflictType = "structure_vs_ta"
	ConflictPhaseVsSignal  ConflictType = "phase_vs_signal"
	ConflictLTFVsHTF       ConflictType = "ltf_vs_htf"
)

// Severity grades a conflict.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Conflict is one detected contradiction.
type Conflict struct {
	Type        ConflictType
	Severity    Severity
	Description string
}

// ConflictReport is the full taxonomy readout for a tick.
type ConflictReport struct {
	Conflicts []Conflict
	Critical  int
	Severity  Severity
	ForceWait bool
}

// detectConflicts applies the taxonomy against the proposed direction.
func detectConflicts(in Inputs, signal domain.SignalDirection, criticalThreshold int) ConflictReport {
	rep := ConflictReport{}
	liqDir := in.Liquidity.Direction.Direction
	intent := in.SVD.Intent

	add := func(ct ConflictType, sev Severity, desc string) {
		rep.Conflicts = append(rep.Conflicts, Conflict{Type: ct, Severity: sev, Description: desc})
		if sev == SeverityCritical {
			rep.Critical++
		}
	}

	if (liqDir == domain.DirectionUp && intent == domain.IntentDistributing) ||
		(liqDir == domain.DirectionDown && intent == domain.IntentAccumulating) {
		add(ConflictLiquidityVsSVD, SeverityCritical,
			fmt.Sprintf("liquidity pulls %s but smart volume is %s", liqDir, intent))
	}
	if (signal == domain.SignalBuy && intent == domain.IntentDistributing) ||
		(signal == domain.SignalSell && intent == domain.IntentAccumulating) {
		add(ConflictSignalVsSVD, SeverityCritical,
			fmt.Sprintf("signal %s against %s intent", signal, intent))
	}
	if (signal == domain.SignalBuy && in.SVD.DOM.Side == svd.BookAsk) ||
		(signal == domain.SignalSell && in.SVD.DOM.Side == svd.BookBid) {
		add(ConflictSignalVsDOM, SeverityMajor,
			fmt.Sprintf("signal %s but depth leans %s", signal, in.SVD.DOM.Side))
	}
	if (signal == domain.SignalBuy && in.SVD.Thin.Below != nil && in.SVD.Thin.Above == nil) ||
		(signal == domain.SignalSell && in.SVD.Thin.Above != nil && in.SVD.Thin.Below == nil) {
		add(ConflictSignalVsThin, SeverityMajor,
			fmt.Sprintf("signal %s with thin liquidity on the wrong side", signal))
	}
	if (in.Structure.Trend == structure.TrendBullish && in.Technical.Trend == technical.TrendBearish) ||
		(in.Structure.Trend == structure.TrendBearish && in.Technical.Trend == technical.TrendBullish) {
		add(ConflictStructureVsTA, SeverityMinor,
			fmt.Sprintf("structure %s but indicators %s", in.Structure.Trend, in.Technical.Trend))
	}
	if in.SVD.Phase != domain.PhaseExecution && in.SVD.Phase != domain.PhaseDistribution &&
		(signal == domain.SignalBuy || signal == domain.SignalSell) {
		add(ConflictPhaseVsSignal, SeverityMajor,
			fmt.Sprintf("phase %s while signalling %s", in.SVD.Phase, signal))
	}
	if in.HTF != nil {
		if (in.Structure.Trend == structure.TrendBullish && in.HTF.HTF1.Trend == structure.TrendBearish) ||
			(in.Structure.Trend == structure.TrendBearish && in.HTF.HTF1.Trend == structure.TrendBullish) {
			add(ConflictLTFVsHTF, SeverityMinor,
				fmt.Sprintf("local trend %s against HTF %s", in.Structure.Trend, in.HTF.HTF1.Trend))
		}
	}

	switch {
	case rep.Critical >= criticalThreshold:
		rep.Severity = SeverityCritical
		rep.ForceWait = true
	case rep.Critical > 0:
		rep.Severity = SeverityMajor
	case len(rep.Conflicts) > 0:
		rep.Severity = rep.Conflicts[0].Severity
	}
	return rep
}
