package completion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

var tokenRe = regexp.MustCompile(`\s+`)

// normalizeForSimilarity folds case and collapses whitespace so purely
// cosmetic edits (renaming nothing, reformatting) don't register as change.
func normalizeForSimilarity(code string) string {
	return strings.ToLower(tokenRe.ReplaceAllString(strings.TrimSpace(code), " "))
}

func tokensOf(code string) []string {
	normalized := normalizeForSimilarity(code)
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

// jaccardSimilarity scores two token sets on overlap, independent of order
// or repetition, which is tolerant to harmless statement reordering.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}
	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA)
	for t := range setB {
		if !setA[t] {
			union++
		}
	}
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}

// DetectStagnation analyzes the window most-recent iterations (up to
// windowSize) for repeated, reverting, or declining progress, per the
// companion stagnation analyzer.
func DetectStagnation(iterations []audit.IterationData, windowSize int, similarityThreshold float64, startLoop int) audit.StagnationResult {
	if windowSize < 2 {
		windowSize = 2
	}
	window := lastN(iterations, windowSize)
	if len(window) < 2 {
		return audit.StagnationResult{IsStagnant: false}
	}

	progression := similarityProgression(window)
	avg := average(progression)

	isStagnant := avg >= similarityThreshold && len(iterations) >= startLoop

	patterns := detectPatterns(window)
	suggestions := alternativeSuggestionsFor(patterns)

	result := audit.StagnationResult{
		IsStagnant:             isStagnant,
		SimilarityScore:        avg,
		SimilarityProgression:  progression,
		Patterns:               patterns,
		AlternativeSuggestions: suggestions,
	}
	if isStagnant {
		result.DetectedAtLoop = window[len(window)-1].ThoughtNumber
		result.Recommendation = "iteration has stalled; " + strings.Join(suggestions, "; ")
		result.ProgressAnalysis = fmt.Sprintf("average similarity %.2f over last %d iterations meets threshold %.2f", avg, len(window), similarityThreshold)
	} else {
		result.ProgressAnalysis = fmt.Sprintf("average similarity %.2f over last %d iterations below threshold %.2f", avg, len(window), similarityThreshold)
	}
	return result
}

func lastN(items []audit.IterationData, n int) []audit.IterationData {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func similarityProgression(window []audit.IterationData) []float64 {
	var progression []float64
	for i := 1; i < len(window); i++ {
		a := tokensOf(window[i-1].Code)
		b := tokensOf(window[i].Code)
		progression = append(progression, jaccardSimilarity(a, b))
	}
	return progression
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

const (
	patternCosmeticOnly   = "cosmetic_only"
	patternReverting       = "reverting"
	patternDecliningScore  = "declining_scores"
	patternRepeatedIssues  = "repeated_issues"
)

// detectPatterns classifies the window's behavior beyond a raw similarity
// average: cosmetic-only edits, A->B->A reverts, declining scores
// ("confusion"), and repeated-issue findings across iterations.
func detectPatterns(window []audit.IterationData) []string {
	var patterns []string

	if isCosmeticOnly(window) {
		patterns = append(patterns, patternCosmeticOnly)
	}
	if isReverting(window) {
		patterns = append(patterns, patternReverting)
	}
	if isDeclining(window) {
		patterns = append(patterns, patternDecliningScore)
	}
	if hasRepeatedIssues(window) {
		patterns = append(patterns, patternRepeatedIssues)
	}
	return patterns
}

func isCosmeticOnly(window []audit.IterationData) bool {
	for i := 1; i < len(window); i++ {
		a := tokensOf(window[i-1].Code)
		b := tokensOf(window[i].Code)
		if jaccardSimilarity(a, b) < 1 {
			return false
		}
	}
	return len(window) > 1
}

// isReverting flags an A->B->A cycle: the last code is effectively
// identical to one seen two steps earlier but different from the
// immediately preceding step.
func isReverting(window []audit.IterationData) bool {
	if len(window) < 3 {
		return false
	}
	for i := 2; i < len(window); i++ {
		a := normalizeForSimilarity(window[i-2].Code)
		b := normalizeForSimilarity(window[i-1].Code)
		c := normalizeForSimilarity(window[i].Code)
		if a == c && a != b {
			return true
		}
	}
	return false
}

func isDeclining(window []audit.IterationData) bool {
	declines := 0
	for i := 1; i < len(window); i++ {
		if window[i].AuditResult.Overall < window[i-1].AuditResult.Overall {
			declines++
		}
	}
	return declines >= len(window)/2 && declines > 0
}

func hasRepeatedIssues(window []audit.IterationData) bool {
	seen := make(map[string]int)
	for _, it := range window {
		for _, c := range it.AuditResult.Review.Inline {
			seen[c.Comment]++
			if seen[c.Comment] >= 2 {
				return true
			}
		}
	}
	return false
}

// alternativeSuggestionsFor maps detected patterns to a deterministic,
// stable set of recommended next actions.
func alternativeSuggestionsFor(patterns []string) []string {
	table := map[string]string{
		patternCosmeticOnly:  "try a structurally different approach instead of reformatting",
		patternReverting:     "the last two substantive attempts cancel out; pick one direction and commit",
		patternDecliningScore: "recent changes are making the candidate worse; consider reverting to the best-scoring iteration",
		patternRepeatedIssues: "the same issue keeps recurring; address its root cause directly rather than patching symptoms",
	}
	if len(patterns) == 0 {
		return []string{"try a different strategy or request human review"}
	}
	var suggestions []string
	for _, p := range patterns {
		if s, ok := table[p]; ok {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions
}
