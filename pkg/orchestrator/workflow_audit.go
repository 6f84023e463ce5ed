package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/judge"
	"github.com/codeready-toolchain/ganaudit/pkg/workflow"
)

var (
	testMarkerPattern = regexp.MustCompile(`(?i)\bfunc\s+Test\w*\(|\bdescribe\(|\bit\(|@Test\b`)
	todoMarkerPattern = regexp.MustCompile(`(?i)\bTODO\b|\bFIXME\b`)
)

// inspectionHandler returns a StepHandler that records a cheap,
// heuristic finding for one pipeline stage without spending a judge
// call. Only the terminal VERDICT step below consults the judge;
// everything before it narrows down what VERDICT needs to look at.
func inspectionHandler(stage, candidate string) workflow.StepHandler {
	return func(_ context.Context, _ audit.WorkflowStep, _ audit.StepInputs) (audit.StepResult, error) {
		var evidence []audit.EvidenceItem
		switch stage {
		case "REPRO":
			if !strings.Contains(candidate, "```") && len(candidate) < 40 {
				evidence = append(evidence, audit.EvidenceItem{
					Type: "repro", Severity: audit.SeverityMinor,
					Description: "candidate is too short to reproduce independently of the original conversation",
				})
			}
		case "STATIC":
			if todoMarkerPattern.MatchString(candidate) {
				evidence = append(evidence, audit.EvidenceItem{
					Type: "static", Severity: audit.SeverityMinor,
					Description: "unresolved TODO/FIXME marker in candidate",
				})
			}
		case "TESTS":
			if !testMarkerPattern.MatchString(candidate) {
				evidence = append(evidence, audit.EvidenceItem{
					Type: "tests", Severity: audit.SeverityMajor,
					Description: "no test function or test-framework call detected in candidate",
				})
			}
		}
		return audit.StepResult{
			Outputs:  map[string]any{"summary": stage + " inspected"},
			Evidence: evidence,
		}, nil
	}
}

// verdictHandler is the terminal step: it folds every EvidenceItem the
// earlier steps accumulated into the judge's context pack, then scores
// once and stashes the result in out for the caller to retrieve once
// the engine finishes.
func verdictHandler(j judge.Judge, req judge.Request, evidence func() []audit.EvidenceItem, out *audit.Review) workflow.StepHandler {
	return func(ctx context.Context, _ audit.WorkflowStep, _ audit.StepInputs) (audit.StepResult, error) {
		if findings := evidence(); len(findings) > 0 {
			notes := make([]string, len(findings))
			for i, f := range findings {
				notes[i] = fmt.Sprintf("[%s] %s: %s", f.Severity, f.Type, f.Description)
			}
			req.ContextPack += "\n\nPipeline findings:\n" + strings.Join(notes, "\n")
		}

		review, err := j.Audit(ctx, req)
		if err != nil {
			return audit.StepResult{}, err
		}
		*out = review
		return audit.StepResult{Outputs: map[string]any{"summary": review.Review.Summary}}, nil
	}
}

// auditViaWorkflow drives req's candidate through the eight-step audit
// pipeline instead of calling the judge directly: INIT through TRACE
// each run a cheap heuristic inspection and accumulate EvidenceItems,
// and VERDICT folds that evidence into the judge's context pack before
// scoring once. Engine failures (a step handler erroring with
// ContinueOnFailure off) surface as an error rather than a Review, same
// as a direct judge error would.
func (o *Orchestrator) auditViaWorkflow(ctx context.Context, candidate string, req judge.Request) (audit.Review, error) {
	wf := workflow.DefaultAuditWorkflow()

	var engine *workflow.Engine
	var review audit.Review
	handlers := make(map[string]workflow.StepHandler, len(wf.Steps))
	for _, step := range wf.Steps {
		if step.Name == "VERDICT" {
			handlers[step.Name] = verdictHandler(o.judge, req, func() []audit.EvidenceItem { return engine.GetAllEvidence() }, &review)
			continue
		}
		handlers[step.Name] = inspectionHandler(step.Name, candidate)
	}

	engine, err := workflow.NewEngine(wf, workflow.Config{EnforceOrder: true, ContinueOnFailure: true}, handlers)
	if err != nil {
		return audit.Review{}, fmt.Errorf("build audit pipeline: %w", err)
	}
	if err := engine.StartExecution(); err != nil {
		return audit.Review{}, fmt.Errorf("start audit pipeline: %w", err)
	}

	for i := range wf.Steps {
		if _, err := engine.ExecuteNextStep(ctx, audit.StepInputs{}); err != nil {
			return audit.Review{}, fmt.Errorf("audit pipeline step %d (%s): %w", i+1, wf.Steps[i].Name, err)
		}
	}

	return review, nil
}
