// Package audit holds the shared data model used across the core
// components: Thought, Review, SessionConfig, and the session
// history/iteration records. Centralizing them here keeps pkg/cache,
// pkg/queue, pkg/workflow, pkg/completion, pkg/session, and pkg/judge
// free of import cycles between each other.
package audit

import "time"

// Thought is a single user-submitted unit of work.
// ThoughtNumber must be >= 1.
type Thought struct {
	ThoughtNumber     int    `json:"thoughtNumber"`
	Thought           string `json:"thought"`
	BranchID          string `json:"branchId,omitempty"`
	TotalThoughts     int    `json:"totalThoughts,omitempty"`
	NextThoughtNeeded bool   `json:"nextThoughtNeeded,omitempty"`
}

// Verdict is the judge's overall disposition for a Review.
type Verdict string

const (
	VerdictPass    Verdict = "pass"
	VerdictRevise  Verdict = "revise"
	VerdictReject  Verdict = "reject"
)

// Dimension is one named score axis within a Review.
type Dimension struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// InlineComment anchors a review comment to a location in the candidate code.
type InlineComment struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Comment string `json:"comment"`
}

// ReviewBody holds the prose portion of a Review.
type ReviewBody struct {
	Summary   string          `json:"summary"`
	Inline    []InlineComment `json:"inline,omitempty"`
	Citations []string        `json:"citations,omitempty"`
}

// JudgeCard records one judge/model's contribution to a Review.
type JudgeCard struct {
	Model string  `json:"model"`
	Score float64 `json:"score"`
	Notes string  `json:"notes,omitempty"`
}

// Review is the structured verdict produced by a judge.
type Review struct {
	Overall      float64     `json:"overall"`
	Dimensions   []Dimension `json:"dimensions"`
	Verdict      Verdict     `json:"verdict"`
	Review       ReviewBody  `json:"review"`
	ProposedDiff *string     `json:"proposed_diff,omitempty"`
	Iterations   int         `json:"iterations"`
	JudgeCards   []JudgeCard `json:"judge_cards"`
	Duration     time.Duration `json:"duration,omitempty"`
}

// ContextScope selects the external context-building strategy.
type ContextScope string

const (
	ScopeDiff      ContextScope = "diff"
	ScopePaths     ContextScope = "paths"
	ScopeWorkspace ContextScope = "workspace"

	DefaultScope = ScopeDiff
)

// SessionConfig holds the recognized inline/session configuration fields.
// Zero value is not valid on its own; use DefaultSessionConfig.
type SessionConfig struct {
	Task        string       `json:"task,omitempty"`
	Scope       ContextScope `json:"scope,omitempty"`
	Threshold   float64      `json:"threshold"`
	MaxCycles   int          `json:"maxCycles"`
	Candidates  int          `json:"candidates"`
	Judges      []string     `json:"judges,omitempty"`
	ApplyFixes  bool         `json:"applyFixes,omitempty"`
}

// DefaultSessionConfig returns the built-in session configuration defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Scope:      DefaultScope,
		Threshold:  85,
		MaxCycles:  3,
		Candidates: 1,
		Judges:     []string{"default"},
	}
}

// Clamp normalizes field values: threshold into [0,100],
// maxCycles/candidates to >= 1, and an out-of-enum scope back to the
// default scope. It never rejects a SessionConfig — use Validate in
// strict mode for rejection semantics.
func (c *SessionConfig) Clamp() {
	if c.Threshold < 0 {
		c.Threshold = 0
	}
	if c.Threshold > 100 {
		c.Threshold = 100
	}
	if c.MaxCycles < 1 {
		c.MaxCycles = 1
	}
	if c.Candidates < 1 {
		c.Candidates = 1
	}
	switch c.Scope {
	case ScopeDiff, ScopePaths, ScopeWorkspace:
	default:
		c.Scope = DefaultScope
	}
	if len(c.Judges) == 0 {
		c.Judges = []string{"default"}
	}
}

// Merge overlays non-zero fields of override onto a copy of c, clamping
// the result. Used when inline config is merged into a session's config.
func (c SessionConfig) Merge(override SessionConfig) SessionConfig {
	merged := c
	if override.Task != "" {
		merged.Task = override.Task
	}
	if override.Scope != "" {
		merged.Scope = override.Scope
	}
	if override.Threshold != 0 {
		merged.Threshold = override.Threshold
	}
	if override.MaxCycles != 0 {
		merged.MaxCycles = override.MaxCycles
	}
	if override.Candidates != 0 {
		merged.Candidates = override.Candidates
	}
	if len(override.Judges) > 0 {
		merged.Judges = override.Judges
	}
	if override.ApplyFixes {
		merged.ApplyFixes = override.ApplyFixes
	}
	merged.Clamp()
	return merged
}

// HistoryEntry is one append-only record of a session's audit history.
type HistoryEntry struct {
	ThoughtNumber int           `json:"thoughtNumber"`
	Review        Review        `json:"review"`
	Config        SessionConfig `json:"config"`
	Timestamp     time.Time     `json:"timestamp"`
}

// IterationData feeds stagnation detection.
type IterationData struct {
	ThoughtNumber int       `json:"thoughtNumber"`
	Code          string    `json:"code"`
	AuditResult   Review    `json:"auditResult"`
	Timestamp     time.Time `json:"timestamp"`
}

// Severity classifies an EvidenceItem's importance.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityMajor    Severity = "Major"
	SeverityMinor    Severity = "Minor"
)

// EvidenceItem is one finding surfaced by a workflow step.
type EvidenceItem struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
}

// Tier is one completion-criteria score/loop threshold pair.
type Tier struct {
	Score    float64 `json:"score"`
	MaxLoops int     `json:"maxLoops"`
}

// HardStop is the unconditional loop ceiling.
type HardStop struct {
	MaxLoops int `json:"maxLoops"`
}

// StagnationCheck configures when stagnation detection kicks in.
type StagnationCheck struct {
	StartLoop           int     `json:"startLoop"`
	SimilarityThreshold  float64 `json:"similarityThreshold"`
}

// CompletionCriteria is the full tiered-completion configuration.
type CompletionCriteria struct {
	Tier1           Tier            `json:"tier1"`
	Tier2           Tier            `json:"tier2"`
	Tier3           Tier            `json:"tier3"`
	HardStop        HardStop        `json:"hardStop"`
	StagnationCheck StagnationCheck `json:"stagnationCheck"`
}

// DefaultCompletionCriteria mirrors the stable thresholds named in the
// completion reason strings (score_95_at_10, score_90_at_15, score_85_at_20).
func DefaultCompletionCriteria() CompletionCriteria {
	return CompletionCriteria{
		Tier1:    Tier{Score: 95, MaxLoops: 10},
		Tier2:    Tier{Score: 90, MaxLoops: 15},
		Tier3:    Tier{Score: 85, MaxLoops: 20},
		HardStop: HardStop{MaxLoops: 25},
		StagnationCheck: StagnationCheck{
			StartLoop:           5,
			SimilarityThreshold: 0.92,
		},
	}
}

// StagnationResult is the output of the companion stagnation analyzer.
type StagnationResult struct {
	IsStagnant             bool     `json:"isStagnant"`
	DetectedAtLoop         int      `json:"detectedAtLoop,omitempty"`
	SimilarityScore        float64  `json:"similarityScore"`
	Recommendation         string   `json:"recommendation,omitempty"`
	ProgressAnalysis       string   `json:"progressAnalysis,omitempty"`
	AlternativeSuggestions []string `json:"alternativeSuggestions,omitempty"`
	SimilarityProgression  []float64 `json:"similarityProgression,omitempty"`
	Patterns               []string `json:"patterns,omitempty"`
}

// WorkflowStep is one named, ordered stage of a Workflow.
type WorkflowStep struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Order           int      `json:"order"`
	Required        bool     `json:"required"`
	Actions         []string `json:"actions"`
	ExpectedOutputs []string `json:"expectedOutputs"`
}

// Workflow is an ordered, named pipeline of WorkflowSteps.
type Workflow struct {
	Name    string         `json:"name"`
	Version string         `json:"version"`
	Steps   []WorkflowStep `json:"steps"`
}

// WorkflowStatus is the lifecycle state of a WorkflowExecutionState.
type WorkflowStatus string

const (
	WorkflowNotStarted WorkflowStatus = "not_started"
	WorkflowInProgress WorkflowStatus = "in_progress"
	WorkflowCompleted  WorkflowStatus = "completed"
	WorkflowFailed     WorkflowStatus = "failed"
)

// StepResult is the recorded outcome of one executed WorkflowStep.
type StepResult struct {
	Step        WorkflowStep   `json:"step"`
	Success     bool           `json:"success"`
	Outputs     map[string]any `json:"outputs"`
	Evidence    []EvidenceItem `json:"evidence,omitempty"`
	NextActions []string       `json:"nextActions"`
	Errors      []string       `json:"errors,omitempty"`
}

// StepInputs carries the caller-supplied inputs to a step handler.
type StepInputs map[string]any

// WorkflowExecutionState is a point-in-time snapshot of an Engine's progress.
type WorkflowExecutionState struct {
	Workflow         Workflow       `json:"workflow"`
	CurrentStepIndex int            `json:"currentStepIndex"`
	CompletedSteps   []StepResult   `json:"completedSteps"`
	Status           WorkflowStatus `json:"status"`
	StartTime        time.Time      `json:"startTime"`
	AllEvidence      []EvidenceItem `json:"allEvidence"`
	Errors           []string       `json:"errors"`
}
