package completion

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

// TerminationReport summarizes whether a session should stop iterating
// and, if so, why.
type TerminationReport struct {
	ShouldTerminate bool
	Reason          string
	FinalAssessment string
	FailureRate     float64
	CriticalIssues  []string
}

// ShouldTerminate decides termination for a session given its full
// history and the latest (score, loop, stagnation) observation.
func ShouldTerminate(criteria audit.CompletionCriteria, history []audit.HistoryEntry, loop int, stagnation *audit.StagnationResult) TerminationReport {
	hardStopReached := loop >= criteria.HardStop.MaxLoops
	stagnationReached := stagnation != nil && stagnation.IsStagnant && loop >= criteria.StagnationCheck.StartLoop

	if !hardStopReached && !stagnationReached {
		return TerminationReport{ShouldTerminate: false}
	}

	reason := ReasonMaxLoops
	if stagnationReached {
		reason = ReasonStagnation
	}

	failureRate := failureRateOf(history)
	critical := criticalIssuesOf(history)

	var finalScore float64
	var finalVerdict audit.Verdict
	if len(history) > 0 {
		last := history[len(history)-1]
		finalScore = last.Review.Overall
		finalVerdict = last.Review.Verdict
	}

	recommendation := "review the final candidate manually before merging"
	if finalVerdict == audit.VerdictPass {
		recommendation = "candidate meets the configured bar and is ready for merge"
	}

	finalAssessment := fmt.Sprintf(
		"after %d loop(s), final score %.0f%%, final verdict %s, failure rate %.0f%%: %s",
		loop, finalScore, finalVerdict, failureRate, recommendation,
	)

	return TerminationReport{
		ShouldTerminate: true,
		Reason:          reason,
		FinalAssessment: finalAssessment,
		FailureRate:     failureRate,
		CriticalIssues:  critical,
	}
}

func failureRateOf(history []audit.HistoryEntry) float64 {
	if len(history) == 0 {
		return 0
	}
	rejected := 0
	for _, h := range history {
		if h.Review.Verdict == audit.VerdictReject {
			rejected++
		}
	}
	return float64(rejected) / float64(len(history)) * 100
}

// criticalIssuesOf returns the union of the last review's inline comments
// whose text mentions "Critical" or "Security", plus the last review's
// summary when its verdict is reject.
func criticalIssuesOf(history []audit.HistoryEntry) []string {
	if len(history) == 0 {
		return nil
	}
	last := history[len(history)-1].Review

	var issues []string
	for _, c := range last.Review.Inline {
		if strings.Contains(c.Comment, "Critical") || strings.Contains(c.Comment, "Security") {
			issues = append(issues, c.Comment)
		}
	}
	if last.Verdict == audit.VerdictReject {
		issues = append(issues, last.Review.Summary)
	}
	return issues
}
