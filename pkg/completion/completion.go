// Package completion implements the tiered completion evaluator: it
// decides, after each audit loop, whether a session should keep
// iterating, and why. No direct analogue exists elsewhere (the reference
// service has no iterative-loop scoring); the ordered fail-fast
// validation style is grounded on config.Validator.ValidateAll
// (pkg/config/validator.go), and numeric-output extraction mirrors the
// defensive parsing idiom of pkg/agent/controller/scoring.go.
package completion

import (
	"fmt"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

// Reason names are stable regardless of configured tier numbers.
const (
	ReasonStagnation  = "stagnation_detected"
	ReasonMaxLoops    = "max_loops_reached"
	ReasonTier1       = "score_95_at_10"
	ReasonTier2       = "score_90_at_15"
	ReasonTier3       = "score_85_at_20"
)

// Status is the outcome of evaluating one (score, loop) observation.
type Status struct {
	IsComplete        bool
	Reason            string
	Message           string
	NextThoughtNeeded bool
}

// Evaluate applies the tiered completion policy in priority order:
// stagnation first, then hard stop, then tiers 1-3 by descending rank.
func Evaluate(criteria audit.CompletionCriteria, score float64, loop int, stagnation *audit.StagnationResult) Status {
	if stagnation != nil && stagnation.IsStagnant && loop >= criteria.StagnationCheck.StartLoop {
		return Status{IsComplete: true, Reason: ReasonStagnation, Message: "progress has stagnated across recent iterations"}
	}

	if loop >= criteria.HardStop.MaxLoops {
		return Status{IsComplete: true, Reason: ReasonMaxLoops, Message: fmt.Sprintf("reached hard stop at loop %d", loop)}
	}

	for _, tier := range []struct {
		t      audit.Tier
		reason string
	}{
		{criteria.Tier1, ReasonTier1},
		{criteria.Tier2, ReasonTier2},
		{criteria.Tier3, ReasonTier3},
	} {
		if score >= tier.t.Score && loop >= tier.t.MaxLoops {
			return Status{IsComplete: true, Reason: tier.reason, Message: fmt.Sprintf("score %.0f%% met threshold %.0f%% at loop %d", score, tier.t.Score, loop)}
		}
	}

	target := currentTarget(criteria, loop)
	var message string
	if score >= target.Score {
		message = fmt.Sprintf("score %.0f%% meets threshold, minimum loops not reached", score)
	} else {
		remaining := target.MaxLoops - loop
		if remaining < 0 {
			remaining = 0
		}
		message = fmt.Sprintf("score %.0f%% needs %.0f%% improvement to reach %.0f%% threshold (%d loops remaining)",
			score, target.Score-score, target.Score, remaining)
	}

	return Status{IsComplete: false, Reason: "in_progress", Message: message, NextThoughtNeeded: true}
}

// currentTarget returns the tier currently in effect for getCompletionStatus:
// tier1 while loop hasn't reached tier2's loop ceiling, tier2 until tier3's,
// else tier3.
func currentTarget(criteria audit.CompletionCriteria, loop int) audit.Tier {
	switch {
	case loop < criteria.Tier2.MaxLoops:
		return criteria.Tier1
	case loop < criteria.Tier3.MaxLoops:
		return criteria.Tier2
	default:
		return criteria.Tier3
	}
}

// ValidateCompletionCriteria checks the structural invariants a
// CompletionCriteria must satisfy, fail-fast in a fixed order so error
// messages are stable across runs.
func ValidateCompletionCriteria(c audit.CompletionCriteria) error {
	for _, tier := range []audit.Tier{c.Tier1, c.Tier2, c.Tier3} {
		if tier.Score < 0 || tier.Score > 100 {
			return fmt.Errorf("tier score must be in [0,100], got %v", tier.Score)
		}
		if tier.MaxLoops < 1 {
			return fmt.Errorf("tier maxLoops must be >= 1, got %d", tier.MaxLoops)
		}
	}
	if c.Tier2.MaxLoops < c.Tier1.MaxLoops {
		return fmt.Errorf("tier2.maxLoops must be >= tier1.maxLoops")
	}
	if c.Tier3.MaxLoops < c.Tier2.MaxLoops {
		return fmt.Errorf("tier3.maxLoops must be >= tier2.maxLoops")
	}
	if c.HardStop.MaxLoops < c.Tier3.MaxLoops {
		return fmt.Errorf("hardStop.maxLoops must be >= tier3.maxLoops")
	}
	if c.Tier1.Score < c.Tier2.Score || c.Tier2.Score < c.Tier3.Score {
		return fmt.Errorf("tier scores must be monotonically non-increasing: tier1 >= tier2 >= tier3")
	}
	if c.StagnationCheck.StartLoop < 1 {
		return fmt.Errorf("stagnationCheck.startLoop must be >= 1, got %d", c.StagnationCheck.StartLoop)
	}
	if c.StagnationCheck.SimilarityThreshold < 0 || c.StagnationCheck.SimilarityThreshold > 1 {
		return fmt.Errorf("stagnationCheck.similarityThreshold must be in [0,1], got %v", c.StagnationCheck.SimilarityThreshold)
	}
	return nil
}
