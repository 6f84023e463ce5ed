package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/cache"
	"github.com/codeready-toolchain/ganaudit/pkg/contextpack"
	"github.com/codeready-toolchain/ganaudit/pkg/judge"
	"github.com/codeready-toolchain/ganaudit/pkg/queue"
	"github.com/codeready-toolchain/ganaudit/pkg/session"
)

func newWorkflowHarness(t *testing.T, fj *judge.FallbackJudge) *Orchestrator {
	t.Helper()
	sessions := session.New(nil)

	var o *Orchestrator
	q := queue.New(queue.DefaultConfig(), func(ctx context.Context, thought audit.Thought, sessionID string) (audit.Review, error) {
		return o.Audit(ctx, thought, sessionID)
	}, nil)

	cfg := DefaultConfig()
	cfg.EnableWorkflow = true
	o = New(cfg, cache.New(cache.DefaultConfig()), q, sessions, fj, contextpack.NewStubPacker(), nil, audit.DefaultCompletionCriteria())
	return o
}

func TestAuditViaWorkflow_UntestedCandidateSurfacesEvidenceAndScores(t *testing.T) {
	fj := judge.NewFallbackJudge()
	fj.AddScriptedReview(audit.Review{Overall: 77, Verdict: audit.VerdictRevise, Review: audit.ReviewBody{Summary: "needs tests"}})
	o := newWorkflowHarness(t, fj)

	thought := audit.Thought{ThoughtNumber: 1, Thought: "```go\nfunc Add(a, b int) int { return a + b }\n```"}
	review, _, err := o.AuditThought(context.Background(), thought, "", nil)

	require.NoError(t, err)
	assert.Equal(t, float64(77), review.Overall)
	assert.Equal(t, audit.VerdictRevise, review.Verdict)

	reqs := fj.CapturedRequests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].ContextPack, "Pipeline findings:")
	assert.Contains(t, reqs[0].ContextPack, "no test function or test-framework call detected")
}

func TestAuditViaWorkflow_TestedCandidateHasNoTestEvidence(t *testing.T) {
	fj := judge.NewFallbackJudge()
	fj.AddScriptedReview(audit.Review{Overall: 95, Verdict: audit.VerdictPass})
	o := newWorkflowHarness(t, fj)

	thought := audit.Thought{ThoughtNumber: 1, Thought: "```go\nfunc TestAdd(t *testing.T) { Add(1, 2) }\n```"}
	review, _, err := o.AuditThought(context.Background(), thought, "", nil)

	require.NoError(t, err)
	assert.Equal(t, float64(95), review.Overall)

	reqs := fj.CapturedRequests()
	require.Len(t, reqs, 1)
	assert.NotContains(t, reqs[0].ContextPack, "no test function")
}

func TestAuditViaWorkflow_JudgeErrorPropagatesAsFallbackReview(t *testing.T) {
	fj := judge.NewFallbackJudge()
	fj.AddScriptedError(assert.AnError)
	o := newWorkflowHarness(t, fj)

	thought := audit.Thought{ThoughtNumber: 1, Thought: "```go\nfunc Add(a, b int) int { return a + b }\n```"}
	review, _, err := o.AuditThought(context.Background(), thought, "", nil)

	require.NoError(t, err)
	assert.Equal(t, audit.VerdictRevise, review.Verdict)
	assert.Contains(t, review.Review.Summary, "audit unavailable")
}
