package judge

import (
	"context"
	"fmt"
	"testing"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackJudge_DefaultAuditReturnsPass(t *testing.T) {
	j := NewFallbackJudge()
	review, err := j.Audit(context.Background(), Request{Task: "review this"})
	require.NoError(t, err)
	assert.Equal(t, audit.VerdictPass, review.Verdict)
	assert.Equal(t, float64(100), review.Overall)
}

func TestFallbackJudge_ScriptedReviewsConsumedInOrder(t *testing.T) {
	j := NewFallbackJudge()
	j.AddScriptedReview(audit.Review{Overall: 40, Verdict: audit.VerdictReject})
	j.AddScriptedReview(audit.Review{Overall: 90, Verdict: audit.VerdictPass})

	first, err := j.Audit(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, audit.VerdictReject, first.Verdict)

	second, err := j.Audit(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, audit.VerdictPass, second.Verdict)

	third, err := j.Audit(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, audit.VerdictPass, third.Verdict) // script exhausted, falls back to default
}

func TestFallbackJudge_ScriptedErrorReturnedOnce(t *testing.T) {
	j := NewFallbackJudge()
	j.AddScriptedError(fmt.Errorf("judge unreachable"))

	_, err := j.Audit(context.Background(), Request{})
	require.Error(t, err)

	_, err = j.Audit(context.Background(), Request{})
	require.NoError(t, err)
}

func TestFallbackJudge_IsAvailableAlwaysTrue(t *testing.T) {
	j := NewFallbackJudge()
	ok, err := j.IsAvailable(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFallbackJudge_CapturedRequestsTracksCalls(t *testing.T) {
	j := NewFallbackJudge()
	_, _ = j.Audit(context.Background(), Request{Task: "a"})
	_, _ = j.Audit(context.Background(), Request{Task: "b"})

	captured := j.CapturedRequests()
	require.Len(t, captured, 2)
	assert.Equal(t, "a", captured[0].Task)
	assert.Equal(t, "b", captured[1].Task)
}
