package judge

import (
	"context"
	"sync"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

// FallbackJudge is a canned Judge used when no real judge is configured
// (standalone/offline mode) or in tests. It never calls out to anything;
// Audit returns a fixed or scripted Review. A scriptable fake satisfying
// the real collaborator's interface, with captured-call introspection.
type FallbackJudge struct {
	mu       sync.Mutex
	script   []audit.Review
	index    int
	version  string
	errs     []error
	captured []Request
}

// NewFallbackJudge creates a FallbackJudge that always returns a flat
// "pass" review unless a script is configured via AddScriptedReview.
func NewFallbackJudge() *FallbackJudge {
	return &FallbackJudge{version: "fallback-0"}
}

// AddScriptedReview queues a review to be returned by the next Audit
// call, consumed in order. Once the script is exhausted, Audit falls
// back to the default canned review.
func (f *FallbackJudge) AddScriptedReview(review audit.Review) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, review)
}

// AddScriptedError queues an error to be returned by the next Audit
// call instead of a review.
func (f *FallbackJudge) AddScriptedError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

// Audit implements Judge.
func (f *FallbackJudge) Audit(_ context.Context, req Request) (audit.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured = append(f.captured, req)

	if f.index < len(f.errs) && f.errs[f.index] != nil {
		err := f.errs[f.index]
		f.index++
		return audit.Review{}, err
	}
	if f.index < len(f.script) {
		review := f.script[f.index]
		f.index++
		return review, nil
	}

	return audit.Review{
		Overall: 100,
		Verdict: audit.VerdictPass,
		Review: audit.ReviewBody{
			Summary: "fallback judge: no issues configured to report",
		},
		Iterations: 1,
		JudgeCards: []audit.JudgeCard{{Model: "fallback", Score: 100}},
	}, nil
}

// IsAvailable implements Judge. The fallback judge is always available.
func (f *FallbackJudge) IsAvailable(_ context.Context) (bool, error) {
	return true, nil
}

// GetVersion implements Judge.
func (f *FallbackJudge) GetVersion(_ context.Context) (string, error) {
	return f.version, nil
}

// CapturedRequests returns every Request passed to Audit so far, in order.
func (f *FallbackJudge) CapturedRequests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.captured))
	copy(out, f.captured)
	return out
}
