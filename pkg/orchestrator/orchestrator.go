// Package orchestrator wires the Fingerprint, Audit Cache, Audit Queue,
// Completion Evaluator, and Session Store façade together behind one
// entry point: AuditThought. Shaped after AlertService.SubmitAlert
// (validate input, resolve defaults, mask before persisting, hand off
// to the async worker) generalized from one-shot alert intake to a
// cacheable, queued, multi-cycle audit loop.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/cache"
	"github.com/codeready-toolchain/ganaudit/pkg/completion"
	"github.com/codeready-toolchain/ganaudit/pkg/contextpack"
	"github.com/codeready-toolchain/ganaudit/pkg/judge"
	"github.com/codeready-toolchain/ganaudit/pkg/masking"
	"github.com/codeready-toolchain/ganaudit/pkg/queue"
	"github.com/codeready-toolchain/ganaudit/pkg/session"
)

// codeHeuristics are checked against a thought's text to decide whether
// it carries a code artifact worth auditing at all. Matching any one is
// sufficient; a thought that is pure prose skips the judge entirely.
var codeHeuristics = []*regexp.Regexp{
	regexp.MustCompile("```"),
	regexp.MustCompile("`[^`\n]+`"),
	regexp.MustCompile(`\bfunc\s+\w+\s*\(`),
	regexp.MustCompile(`\bfunction\s+\w*\s*\(`),
	regexp.MustCompile(`\bclass\s+\w+`),
	regexp.MustCompile(`\bimport\s+[\w."/]+`),
	regexp.MustCompile(`\bexport\s+default\s+function`),
	regexp.MustCompile(`\b(?:const|let|var)\s+\w+\s*=`),
	regexp.MustCompile(`\binterface\s+\w+`),
	regexp.MustCompile(`/\*[\s\S]*?\*/`),
	regexp.MustCompile(`//[^\n]*`),
}

// isAuditRequired reports whether thought.Thought looks like it carries
// a code artifact. Pure prose ("let's think about naming") is passed
// through as an automatic pass rather than burning a judge call.
func isAuditRequired(thought audit.Thought) bool {
	for _, re := range codeHeuristics {
		if re.MatchString(thought.Thought) {
			return true
		}
	}
	return false
}

// passReview is the synthetic Review returned for thoughts that don't
// require auditing, or when auditing is disabled outright.
func passReview(reason string) audit.Review {
	return audit.Review{
		Overall: 100,
		Verdict: audit.VerdictPass,
		Review: audit.ReviewBody{
			Summary: reason,
		},
		JudgeCards: []judgeCardsFallback,
	}
}

var judgeCardsFallback = audit.JudgeCard{Model: "none", Score: 100, Notes: "audit skipped"}

// Config controls orchestrator-level policy not owned by any one
// collaborator.
type Config struct {
	// Enabled gates the whole pipeline off; every AuditThought call
	// returns a synthetic pass review without touching cache/queue/judge.
	Enabled bool
	// EnqueueTimeout bounds how long AuditThought waits for a queued job.
	EnqueueTimeout time.Duration
	// EnableWorkflow routes Audit through the eight-step pipeline
	// (pkg/workflow's DefaultAuditWorkflow) instead of calling the judge
	// directly. Off by default: the direct path is one judge call per
	// cycle, the pipeline is eight engine steps plus one judge call, and
	// most deployments don't need the extra per-step evidence trail.
	EnableWorkflow bool
}

// DefaultConfig returns reasonable production defaults.
func DefaultConfig() Config {
	return Config{Enabled: true, EnqueueTimeout: 30 * time.Second}
}

// Orchestrator is the single entry point tying the core components
// together. Construct with New; all fields are unexported so callers
// can't bypass validation by mutating state mid-flight.
type Orchestrator struct {
	cfg      Config
	cache    *cache.Cache
	queue    *queue.Queue
	sessions *session.Store
	judge    judge.Judge
	packer   contextpack.ContextPacker
	masker   *masking.Service
	criteria audit.CompletionCriteria
}

// New constructs an Orchestrator. cache, q, and sessions are required;
// j defaults to judge.NewFallbackJudge(), packer to
// contextpack.NewStubPacker(), and masker may be nil (masking disabled).
func New(cfg Config, c *cache.Cache, q *queue.Queue, sessions *session.Store, j judge.Judge, packer contextpack.ContextPacker, masker *masking.Service, criteria audit.CompletionCriteria) *Orchestrator {
	if c == nil {
		panic("orchestrator.New: cache must not be nil")
	}
	if q == nil {
		panic("orchestrator.New: queue must not be nil")
	}
	if sessions == nil {
		panic("orchestrator.New: sessions must not be nil")
	}
	if j == nil {
		j = judge.NewFallbackJudge()
	}
	if packer == nil {
		packer = contextpack.NewStubPacker()
	}
	return &Orchestrator{
		cfg:      cfg,
		cache:    c,
		queue:    q,
		sessions: sessions,
		judge:    j,
		packer:   packer,
		masker:   masker,
		criteria: criteria,
	}
}

// AuditThought is the orchestrator's single public operation: given a
// thought and an optional existing session ID, it resolves or creates a
// session, consults the cache, falls through to the queue on a miss,
// records the outcome in session history, and returns the Review.
//
// sessionID resolution order: explicit sessionID argument, then
// thought.BranchID, then a freshly generated ID — mirroring the
// "explicit > inherited > new" precedence SubmitAlert uses for alert
// type resolution.
func (o *Orchestrator) AuditThought(ctx context.Context, thought audit.Thought, sessionID string, inlineCfg *audit.SessionConfig) (audit.Review, string, error) {
	if !o.cfg.Enabled {
		return passReview("auditing disabled"), sessionID, nil
	}
	if !isAuditRequired(thought) {
		return passReview("no code artifact detected"), sessionID, nil
	}

	resolvedID := sessionID
	if resolvedID == "" {
		resolvedID = thought.BranchID
	}
	if resolvedID == "" {
		resolvedID = o.sessions.GenerateSessionID()
	}

	state, exists := o.sessions.GetSession(resolvedID)
	cfg := audit.DefaultSessionConfig()
	if exists {
		cfg = state.Config
	}

	// A gan-config/json fenced block embedded in the thought itself is
	// merged first; an explicit inlineCfg argument (the structured
	// caller-supplied override) takes precedence over it.
	overridden := false
	if textCfg := extractInlineConfig(thought.Thought); textCfg != nil {
		cfg = cfg.Merge(*textCfg)
		overridden = true
	}
	if inlineCfg != nil {
		cfg = cfg.Merge(*inlineCfg)
		overridden = true
	}
	cfg.Clamp()

	if !exists {
		state = o.sessions.CreateSession(resolvedID, cfg)
	} else if overridden {
		var err error
		state, err = o.sessions.UpdateSession(resolvedID, cfg)
		if err != nil {
			return audit.Review{}, resolvedID, fmt.Errorf("update session config: %w", err)
		}
	}

	log := slog.With("session_id", resolvedID, "thought_number", thought.ThoughtNumber)

	if review, ok := o.cache.Get(ctx, thought); ok {
		log.Info("audit cache hit")
		if err := o.recordOutcome(resolvedID, *review, cfg, thought); err != nil {
			log.Warn("failed to record cached outcome", "error", err)
		}
		return *review, resolvedID, nil
	}

	timeout := o.cfg.EnqueueTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().EnqueueTimeout
	}
	enqueueCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	review, err := o.queue.Enqueue(enqueueCtx, thought, resolvedID, queue.EnqueueOptions{})
	if err != nil {
		log.Warn("audit job failed, returning fallback review", "error", err)
		review = fallbackReview(err)
		if recErr := o.recordOutcome(resolvedID, review, cfg, thought); recErr != nil {
			log.Warn("failed to record fallback outcome", "error", recErr)
		}
		return review, resolvedID, nil
	}

	o.cache.Set(ctx, thought, review)
	if err := o.recordOutcome(resolvedID, review, cfg, thought); err != nil {
		log.Warn("failed to record audit outcome", "error", err)
	}

	return review, resolvedID, nil
}

// Audit is the queue.AuditFn wired into queue.New: it builds a context
// pack, scrubs it and the candidate through the masking service (if
// configured), and delegates scoring to the judge — directly, or via
// the eight-step pipeline in workflow_audit.go when cfg.EnableWorkflow
// is set.
func (o *Orchestrator) Audit(ctx context.Context, thought audit.Thought, sessionID string) (audit.Review, error) {
	state, exists := o.sessions.GetSession(sessionID)
	cfg := audit.DefaultSessionConfig()
	if exists {
		cfg = state.Config
	}

	candidate := thought.Thought
	contextText := o.packer.Build(ctx, contextpack.Request{Scope: cfg.Scope})
	if o.masker != nil {
		candidate = o.masker.Scrub(candidate)
		contextText = o.masker.Scrub(contextText)
	}

	req := judge.Request{
		Task:        cfg.Task,
		Candidate:   candidate,
		ContextPack: contextText,
		Rubric:      defaultRubric,
		Budget: judge.Budget{
			MaxCycles:  cfg.MaxCycles,
			Candidates: cfg.Candidates,
			Threshold:  cfg.Threshold,
		},
	}

	if o.cfg.EnableWorkflow {
		return o.auditViaWorkflow(ctx, candidate, req)
	}
	return o.judge.Audit(ctx, req)
}

var defaultRubric = judge.Rubric{
	Dimensions: []judge.RubricDimension{
		{Name: "correctness", Weight: 0.4},
		{Name: "clarity", Weight: 0.2},
		{Name: "maintainability", Weight: 0.2},
		{Name: "test_coverage", Weight: 0.2},
	},
}

// fallbackReview is returned when the queue times out, is full, or the
// judge errors — the audit loop never blocks the caller indefinitely on
// judge unavailability.
func fallbackReview(cause error) audit.Review {
	return audit.Review{
		Overall: 50,
		Verdict: audit.VerdictRevise,
		Review: audit.ReviewBody{
			Summary: fmt.Sprintf("audit unavailable: %v", cause),
		},
		JudgeCards: []audit.JudgeCard{{Model: "fallback", Score: 50, Notes: cause.Error()}},
	}
}

// stagnationWindowSize bounds how many trailing iterations DetectStagnation
// compares; kept independent of CompletionCriteria.StagnationCheck.StartLoop,
// which only gates when the check starts applying, not how wide it looks.
const stagnationWindowSize = 5

// recordOutcome appends the review and code/result snapshot to session
// history, runs the stagnation analyzer over the session's recorded
// iterations, and evaluates completion so callers (the API layer) can
// surface CompletionEvaluator results alongside the review. Persister
// errors are swallowed by the Session Store itself; this only surfaces
// in-memory bookkeeping errors (unknown session ID).
func (o *Orchestrator) recordOutcome(sessionID string, review audit.Review, cfg audit.SessionConfig, thought audit.Thought) error {
	if err := o.sessions.AddAuditToHistory(sessionID, review, cfg, thought.ThoughtNumber); err != nil {
		return err
	}
	if err := o.sessions.RecordIteration(sessionID, audit.IterationData{
		ThoughtNumber: thought.ThoughtNumber,
		Code:          thought.Thought,
		AuditResult:   review,
		Timestamp:     time.Now(),
	}); err != nil {
		return err
	}

	state, ok := o.sessions.GetSession(sessionID)
	if !ok {
		return nil
	}

	stagnation := completion.DetectStagnation(state.Iterations, stagnationWindowSize, o.criteria.StagnationCheck.SimilarityThreshold, o.criteria.StagnationCheck.StartLoop)
	if err := o.sessions.RecordStagnation(sessionID, stagnation); err != nil {
		return err
	}

	status := completion.Evaluate(o.criteria, review.Overall, state.CurrentLoop, &stagnation)
	if status.IsComplete {
		if err := o.sessions.MarkComplete(sessionID); err != nil {
			return err
		}
	}
	return nil
}
