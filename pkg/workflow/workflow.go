// Package workflow implements the ordered, validated multi-step audit
// pipeline: a named sequence of steps, each delegating to a handler
// keyed by step name, accumulating evidence and computing next actions
// as it goes. Shaped after an ordered, named, validated config.ChainConfig/StageConfig
// shape (ordered, named, validated stages) for the Workflow type, and on
// pkg/agent/controller's stateless-controller idiom for step handlers.
package workflow

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

// StepHandler performs the actual work of one named step. Handlers are
// stateless: all state comes from ctx and inputs, mirroring the
// stateless ScoringController.Run(ctx, ...) shape rather than a
// monkey-patchable method, so tests can inject fakes per step name.
type StepHandler func(ctx context.Context, step audit.WorkflowStep, inputs audit.StepInputs) (audit.StepResult, error)

// Config controls ordering and failure-tolerance policy.
type Config struct {
	EnforceOrder      bool
	AllowSkipping     bool
	ContinueOnFailure bool
}

// ValidateWorkflow checks the structural invariants a Workflow must hold
// before an Engine can be constructed from it.
func ValidateWorkflow(wf audit.Workflow) error {
	if len(wf.Steps) == 0 {
		return fmt.Errorf("workflow validation failed: at least one step is required")
	}

	var errs []string
	seenNames := make(map[string]bool)
	requiredCount := 0
	for i, step := range wf.Steps {
		if step.Name == "" {
			errs = append(errs, fmt.Sprintf("step %d: name must not be empty", i))
		} else if seenNames[step.Name] {
			errs = append(errs, fmt.Sprintf("step %d: duplicate step name '%s'", i, step.Name))
		}
		seenNames[step.Name] = true

		if step.Order != i+1 {
			errs = append(errs, fmt.Sprintf("step '%s': order must be %d, got %d", step.Name, i+1, step.Order))
		}
		if step.Description == "" {
			errs = append(errs, fmt.Sprintf("step '%s': description must not be empty", step.Name))
		}
		if len(step.Actions) == 0 {
			errs = append(errs, fmt.Sprintf("step '%s': at least one action is required", step.Name))
		}
		if len(step.ExpectedOutputs) == 0 {
			errs = append(errs, fmt.Sprintf("step '%s': at least one expected output is required", step.Name))
		}
		if step.Required {
			requiredCount++
		}
	}
	if requiredCount == 0 {
		errs = append(errs, "at least one step must be required")
	}

	if len(errs) > 0 {
		joined := errs[0]
		for _, e := range errs[1:] {
			joined += "; " + e
		}
		return fmt.Errorf("workflow validation failed: %s", joined)
	}
	return nil
}

// DefaultAuditWorkflow returns the built-in eight-step audit pipeline.
func DefaultAuditWorkflow() audit.Workflow {
	step := func(order int, name, desc string) audit.WorkflowStep {
		return audit.WorkflowStep{
			Name:            name,
			Description:     desc,
			Order:           order,
			Required:        true,
			Actions:         []string{"analyze"},
			ExpectedOutputs: []string{"summary"},
		}
	}
	return audit.Workflow{
		Name:    "default-audit",
		Version: "1.0.0",
		Steps: []audit.WorkflowStep{
			step(1, "INIT", "Collect and normalize the candidate change."),
			step(2, "REPRO", "Reproduce the reported behavior or scenario."),
			step(3, "STATIC", "Run static analysis over the candidate change."),
			step(4, "TESTS", "Execute or reason about the relevant test suite."),
			step(5, "DYNAMIC", "Exercise the change under realistic inputs."),
			step(6, "CONFORM", "Check conformance to project conventions."),
			step(7, "TRACE", "Trace data/control flow for the affected paths."),
			step(8, "VERDICT", "Synthesize findings into a final verdict."),
		},
	}
}
