// Package behavior reads the crowd-versus-whale picture out of the SVD and
// trap evidence: who is emotional, who is deliberate, and whether they are
// pulling in opposite directions.
package behavior

import (
	"fmt"
	"strings"

	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/svd"
	"github.com/sawpanic/smartflow/internal/trap"
)

// Sentiment is the crowd's emotional state.
type Sentiment string

const (
	CrowdFOMO    Sentiment = "fomo"
	CrowdPanic   Sentiment = "panic"
	CrowdGreedy  Sentiment = "greedy"
	CrowdFearful Sentiment = "fearful"
	CrowdNeutral Sentiment = "neutral"
)

// WhaleAction is what the large players appear to be doing.
type WhaleAction string

const (
	WhaleAccumulating WhaleAction = "accumulating"
	WhaleDistributing WhaleAction = "distributing"
	WhaleManipulating WhaleAction = "manipulating"
	WhaleInactive     WhaleAction = "inactive"
)

// Report is the behavioral readout attached to each signal.
type Report struct {
	CrowdSentiment  Sentiment
	CrowdTrapped    bool
	WhaleAction     WhaleAction
	WhaleConfidence float64
	Divergence      bool
	Score           float64
	Explanation     string
}

// Engine is stateless.
type Engine struct{}

// NewEngine builds the engine.
func NewEngine() *Engine { return &Engine{} }

// Analyze combines the SVD snapshot with the trap verdict.
func (e *Engine) Analyze(sv svd.Snapshot, tr trap.Report) Report {
	rep := Report{
		CrowdSentiment: crowdSentiment(sv.Crowd, tr.IsTrap),
		CrowdTrapped:   tr.IsTrap && tr.Score >= 3.0,
		WhaleAction:    whaleAction(sv.Intent, sv.Phase),
	}
	rep.WhaleConfidence = whaleConfidence(sv)
	rep.Divergence = crowdWhaleDivergence(rep.CrowdSentiment, rep.WhaleAction, tr.IsTrap)
	rep.Score = behaviorScore(rep, sv.Divergence)
	rep.Explanation = explain(rep, tr.Type)
	return rep
}

func crowdSentiment(c svd.CrowdReport, isTrap bool) Sentiment {
	switch {
	case c.StrongFOMO || (c.FOMO && isTrap):
		return CrowdFOMO
	case c.StrongPanic || (c.Panic && isTrap):
		return CrowdPanic
	case c.FOMO:
		return CrowdGreedy
	case c.Panic:
		return CrowdFearful
	}
	return CrowdNeutral
}

func whaleAction(intent domain.Intent, phase domain.Phase) WhaleAction {
	switch phase {
	case domain.PhaseManipulation:
		return WhaleManipulating
	case domain.PhaseExecution:
		switch intent {
		case domain.IntentAccumulating:
			return WhaleAccumulating
		case domain.IntentDistributing:
			return WhaleDistributing
		}
		return WhaleInactive
	case domain.PhaseDistribution:
		return WhaleDistributing
	}
	return WhaleInactive
}

// whaleConfidence grades how deliberate the large-player activity looks.
func whaleConfidence(sv svd.Snapshot) float64 {
	conf := 0.0
	switch sv.Phase {
	case domain.PhaseExecution:
		conf += 3.0
	case domain.PhaseDistribution:
		conf += 2.0
	case domain.PhaseManipulation:
		conf += 1.5
	}
	if sv.Absorption.Absorbing {
		conf += 1.5
	}
	if sv.Spoof.Confirmed {
		conf += 1.0
	}
	if sv.CVDConfirms {
		conf += 1.5
	}
	if (sv.DOM.Side == svd.BookBid && sv.Intent == domain.IntentAccumulating) ||
		(sv.DOM.Side == svd.BookAsk && sv.Intent == domain.IntentDistributing) {
		conf += 1.0
	}
	if conf > 10 {
		conf = 10
	}
	return conf
}

func crowdWhaleDivergence(crowd Sentiment, whale WhaleAction, isTrap bool) bool {
	if (crowd == CrowdGreedy || crowd == CrowdFOMO) && whale == WhaleDistributing {
		return true
	}
	if (crowd == CrowdFearful || crowd == CrowdPanic) && whale == WhaleAccumulating {
		return true
	}
	return isTrap
}

func behaviorScore(rep Report, cvdDivergence bool) float64 {
	score := rep.WhaleConfidence * 0.4
	if rep.CrowdTrapped {
		score += 3.0
	}
	if rep.Divergence {
		score += 2.0
	}
	if cvdDivergence {
		score += 1.0
	}
	if score > 10 {
		score = 10
	}
	return score
}

func explain(rep Report, trapType trap.Type) string {
	var parts []string
	switch rep.CrowdSentiment {
	case CrowdFOMO:
		parts = append(parts, "crowd in aggressive FOMO")
	case CrowdPanic:
		parts = append(parts, "crowd in panic")
	case CrowdGreedy:
		parts = append(parts, "crowd greedy")
	case CrowdFearful:
		parts = append(parts, "crowd fearful")
	default:
		parts = append(parts, "crowd neutral")
	}
	parts = append(parts, fmt.Sprintf("whales %s (confidence %.1f/10)", rep.WhaleAction, rep.WhaleConfidence))
	if rep.CrowdTrapped {
		switch trapType {
		case trap.BullTrap:
			parts = append(parts, "buyers are walking into a trap")
		case trap.BearTrap:
			parts = append(parts, "sellers are walking into a trap")
		}
	}
	if rep.Divergence {
		parts = append(parts, "crowd and whales are pulling in opposite directions")
	}
	return strings.Join(parts, "; ")
}
