package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

// Engine drives one execution of a Workflow against a set of per-step
// handlers. Safe for concurrent use, though a single Engine instance
// models one in-flight execution and is not meant to be shared across
// unrelated sessions.
type Engine struct {
	workflow audit.Workflow
	cfg      Config
	handlers map[string]StepHandler

	mu               sync.Mutex
	currentStepIndex int
	completedSteps   []audit.StepResult
	status           audit.WorkflowStatus
	startTime        time.Time
	allEvidence      []audit.EvidenceItem
	errors           []string
}

// NewEngine validates wf and constructs an Engine. Handlers missing for a
// step name fail that step at execution time, not at construction.
func NewEngine(wf audit.Workflow, cfg Config, handlers map[string]StepHandler) (*Engine, error) {
	if err := ValidateWorkflow(wf); err != nil {
		return nil, err
	}
	return &Engine{
		workflow: wf,
		cfg:      cfg,
		handlers: handlers,
		status:   audit.WorkflowNotStarted,
	}, nil
}

// StartExecution transitions the engine to in_progress. Calling it twice
// (or after completion) is rejected.
func (e *Engine) StartExecution() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != audit.WorkflowNotStarted {
		return fmt.Errorf("Cannot start workflow in status: %s", e.status)
	}
	e.status = audit.WorkflowInProgress
	e.startTime = time.Now()
	return nil
}

// ExecuteNextStep runs the next step in order and records its result.
func (e *Engine) ExecuteNextStep(ctx context.Context, inputs audit.StepInputs) (audit.StepResult, error) {
	e.mu.Lock()
	if e.status == audit.WorkflowCompleted {
		e.mu.Unlock()
		return audit.StepResult{}, fmt.Errorf("All workflow steps have been completed")
	}
	if e.status != audit.WorkflowInProgress {
		e.mu.Unlock()
		return audit.StepResult{}, fmt.Errorf("Cannot execute step in status: %s", e.status)
	}
	step := e.workflow.Steps[e.currentStepIndex]
	e.mu.Unlock()

	return e.runStep(ctx, step, inputs)
}

// SkipToStep jumps execution to the named step, subject to the engine's
// skip/order policy.
func (e *Engine) SkipToStep(ctx context.Context, name string, inputs audit.StepInputs) (audit.StepResult, error) {
	e.mu.Lock()
	if e.status != audit.WorkflowInProgress {
		e.mu.Unlock()
		return audit.StepResult{}, fmt.Errorf("Cannot execute step in status: %s", e.status)
	}
	if !e.cfg.AllowSkipping {
		e.mu.Unlock()
		return audit.StepResult{}, fmt.Errorf("Step skipping is not allowed in current configuration")
	}

	idx := -1
	for i, s := range e.workflow.Steps {
		if s.Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		e.mu.Unlock()
		return audit.StepResult{}, fmt.Errorf("Step '%s' not found in workflow", name)
	}
	if e.cfg.EnforceOrder && idx != e.currentStepIndex {
		e.mu.Unlock()
		return audit.StepResult{}, fmt.Errorf("Step order violation")
	}
	step := e.workflow.Steps[idx]
	e.currentStepIndex = idx
	e.mu.Unlock()

	return e.runStep(ctx, step, inputs)
}

func (e *Engine) runStep(ctx context.Context, step audit.WorkflowStep, inputs audit.StepInputs) (audit.StepResult, error) {
	handler, ok := e.handlers[step.Name]
	if !ok {
		return e.failStep(step, fmt.Errorf("no handler registered for step '%s'", step.Name))
	}

	result, err := handler(ctx, step, inputs)
	if err != nil {
		if !e.cfg.ContinueOnFailure {
			return e.failStep(step, err)
		}
		result = audit.StepResult{
			Step:    step,
			Success: false,
			Outputs: map[string]any{},
			Errors:  []string{err.Error()},
		}
		return e.recordStep(step, result, false)
	}

	if missing := missingOutputs(step, result.Outputs); len(missing) > 0 {
		if !e.cfg.ContinueOnFailure {
			return e.failStep(step, fmt.Errorf("Missing required output '%s'", missing[0]))
		}
		result.Success = false
		result.Errors = append(result.Errors, fmt.Sprintf("Missing required output '%s'", missing[0]))
	} else {
		result.Success = true
	}

	return e.recordStep(step, result, true)
}

func missingOutputs(step audit.WorkflowStep, outputs map[string]any) []string {
	var missing []string
	for _, key := range step.ExpectedOutputs {
		if _, ok := outputs[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func (e *Engine) failStep(step audit.WorkflowStep, err error) (audit.StepResult, error) {
	e.mu.Lock()
	e.status = audit.WorkflowFailed
	e.errors = append(e.errors, err.Error())
	e.mu.Unlock()
	return audit.StepResult{}, err
}

func (e *Engine) recordStep(step audit.WorkflowStep, result audit.StepResult, advance bool) (audit.StepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result.Step = step
	e.allEvidence = append(e.allEvidence, result.Evidence...)
	result.NextActions = nextActionsFor(result.Evidence)
	if !result.Success {
		e.errors = append(e.errors, result.Errors...)
	}
	e.completedSteps = append(e.completedSteps, result)

	if advance {
		e.currentStepIndex++
	}
	if e.currentStepIndex >= len(e.workflow.Steps) {
		e.status = audit.WorkflowCompleted
	}
	return result, nil
}

// nextActionsFor derives a non-empty recommended-actions list from a
// step's evidence severities.
func nextActionsFor(evidence []audit.EvidenceItem) []string {
	var critical, major, minor int
	for _, ev := range evidence {
		switch ev.Severity {
		case audit.SeverityCritical:
			critical++
		case audit.SeverityMajor:
			major++
		case audit.SeverityMinor:
			minor++
		}
	}
	switch {
	case critical > 0:
		return []string{"address critical findings before proceeding"}
	case major > 0:
		return []string{"resolve major findings"}
	case minor > 0:
		return []string{"consider addressing minor findings"}
	default:
		return []string{"proceed to next step"}
	}
}

// GetAllEvidence returns the live accumulation of evidence across all
// executed steps.
func (e *Engine) GetAllEvidence() []audit.EvidenceItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]audit.EvidenceItem, len(e.allEvidence))
	copy(out, e.allEvidence)
	return out
}

// GetEvidenceBySeverity filters GetAllEvidence by severity.
func (e *Engine) GetEvidenceBySeverity(sev audit.Severity) []audit.EvidenceItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []audit.EvidenceItem
	for _, ev := range e.allEvidence {
		if ev.Severity == sev {
			out = append(out, ev)
		}
	}
	return out
}

// State returns a snapshot of the engine's current execution state.
func (e *Engine) State() audit.WorkflowExecutionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	steps := make([]audit.StepResult, len(e.completedSteps))
	copy(steps, e.completedSteps)
	evidence := make([]audit.EvidenceItem, len(e.allEvidence))
	copy(evidence, e.allEvidence)
	errs := make([]string, len(e.errors))
	copy(errs, e.errors)

	return audit.WorkflowExecutionState{
		Workflow:         e.workflow,
		CurrentStepIndex: e.currentStepIndex,
		CompletedSteps:   steps,
		Status:           e.status,
		StartTime:        e.startTime,
		AllEvidence:      evidence,
		Errors:           errs,
	}
}
