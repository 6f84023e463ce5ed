package queue

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/events"
	"github.com/google/uuid"
)

// Queue is a bounded-concurrency priority scheduler for audit jobs. Safe
// for concurrent use.
type Queue struct {
	cfg    Config
	fn     AuditFn
	events *events.Bus

	mu         sync.Mutex
	lists      [3]*list.List // indexed by Priority
	running    map[string]*Job
	jobCancels map[string]context.CancelFunc
	paused     bool

	completed int64
	failed    int64
	retried   int64

	wake     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New constructs a Queue bound to fn and starts its scheduler goroutine.
// bus may be nil, in which case lifecycle events are discarded.
func New(cfg Config, fn AuditFn, bus *events.Bus) *Queue {
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = DefaultConfig().MaxQueueSize
	}
	if cfg.ProcessingInterval <= 0 {
		cfg.ProcessingInterval = DefaultConfig().ProcessingInterval
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultConfig().DefaultTimeout
	}
	if cfg.DestroyGracePeriod <= 0 {
		cfg.DestroyGracePeriod = DefaultConfig().DestroyGracePeriod
	}
	if bus == nil {
		bus = events.New()
	}

	q := &Queue{
		cfg:        cfg,
		fn:         fn,
		events:     bus,
		running:    make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
		wake:       make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
	}
	for i := range q.lists {
		q.lists[i] = list.New()
	}

	q.wg.Add(1)
	go q.schedulerLoop()
	return q
}

// Enqueue submits thought for judging and blocks until a result is
// available, the job is rejected outright (capacity), cleared, destroyed,
// or ctx is cancelled. It never silently drops work.
func (q *Queue) Enqueue(ctx context.Context, thought audit.Thought, sessionID string, opts EnqueueOptions) (audit.Review, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = q.cfg.DefaultTimeout
	}
	maxRetries := q.cfg.DefaultMaxRetries
	if opts.MaxRetries != nil {
		maxRetries = *opts.MaxRetries
	}

	job := &Job{
		ID:         uuid.NewString(),
		Thought:    thought,
		SessionID:  sessionID,
		Priority:   opts.Priority,
		EnqueuedAt: time.Now(),
		MaxRetries: maxRetries,
		TimeoutMs:  timeout.Milliseconds(),
		resultCh:   make(chan jobResult, 1),
	}

	q.mu.Lock()
	if q.pendingLocked()+len(q.running) >= q.cfg.MaxQueueSize {
		q.mu.Unlock()
		return audit.Review{}, ErrQueueFull
	}
	job.elem = q.lists[job.Priority].PushBack(job)
	q.mu.Unlock()

	q.events.Emit(events.JobEnqueued, job)
	q.signal()

	select {
	case res := <-job.resultCh:
		return res.review, res.err
	case <-ctx.Done():
		q.cancelPending(job)
		return audit.Review{}, ctx.Err()
	}
}

func (q *Queue) pendingLocked() int {
	n := 0
	for _, l := range q.lists {
		n += l.Len()
	}
	return n
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// cancelPending removes job from its priority list if it never started
// running. If it already started, the caller's context cancellation does
// not abort the in-flight attempt; the eventual result is simply discarded
// by the caller having already returned.
func (q *Queue) cancelPending(job *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job.elem != nil {
		q.lists[job.Priority].Remove(job.elem)
		job.elem = nil
	}
}

func (q *Queue) schedulerLoop() {
	defer q.wg.Done()
	ticker := time.NewTicker(q.cfg.ProcessingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.dispatch()
		case <-q.wake:
			q.dispatch()
		}
	}
}

// dispatch starts as many jobs as capacity allows, highest priority first.
func (q *Queue) dispatch() {
	for {
		job := q.popNextRunnable()
		if job == nil {
			return
		}
		q.wg.Add(1)
		go q.runJob(job)
	}
}

func (q *Queue) popNextRunnable() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.paused {
		return nil
	}
	if q.cfg.MaxConcurrent <= 0 || len(q.running) >= q.cfg.MaxConcurrent {
		return nil
	}
	for p := PriorityHigh; p >= PriorityLow; p-- {
		l := q.lists[p]
		front := l.Front()
		if front == nil {
			continue
		}
		job := front.Value.(*Job)
		l.Remove(front)
		job.elem = nil
		now := time.Now()
		job.StartAt = &now
		job.Attempts++
		q.running[job.ID] = job
		return job
	}
	return nil
}

func (q *Queue) runJob(job *Job) {
	defer q.wg.Done()
	q.events.Emit(events.JobStarted, job)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(job.TimeoutMs)*time.Millisecond)
	defer cancel()

	q.mu.Lock()
	q.jobCancels[job.ID] = cancel
	q.mu.Unlock()

	review, err := q.invoke(ctx, job)

	if ctx.Err() == context.DeadlineExceeded {
		if err == nil {
			err = fmt.Errorf("job timed out after %dms", job.TimeoutMs)
		} else {
			err = fmt.Errorf("job timed out after %dms: %w", job.TimeoutMs, err)
		}
		q.events.Emit(events.JobTimeout, job, err)
	}

	q.mu.Lock()
	delete(q.running, job.ID)
	delete(q.jobCancels, job.ID)
	q.mu.Unlock()

	if err == nil {
		q.completed++
		q.events.Emit(events.JobCompleted, job, review)
		job.resultCh <- jobResult{review: review, err: nil}
		return
	}

	if job.Attempts <= job.MaxRetries {
		q.retried++
		q.events.Emit(events.JobRetry, job, err)
		q.requeueForRetry(job)
		return
	}

	q.failed++
	slog.Warn("queue: job exhausted retries", "job_id", job.ID, "session_id", job.SessionID, "attempts", job.Attempts, "error", err)
	q.events.Emit(events.JobFailed, job, err)
	job.resultCh <- jobResult{err: err}
}

func (q *Queue) invoke(ctx context.Context, job *Job) (review audit.Review, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audit function panicked: %v", r)
		}
	}()
	return q.fn(ctx, job.Thought, job.SessionID)
}

// requeueForRetry reinserts job at the head of its priority class,
// preserving its original EnqueuedAt so overall FIFO ordering among
// same-priority jobs still reflects first submission, not retry time.
func (q *Queue) requeueForRetry(job *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.elem = q.lists[job.Priority].PushFront(job)
	q.signal()
}

// Pause stops the scheduler from starting new jobs. In-flight jobs continue.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
}

// Resume re-enables scheduling.
func (q *Queue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
	q.signal()
}

// ClearQueue rejects all pending (not-yet-started) jobs with
// ErrQueueCleared. Running jobs are left to finish; their original callers
// still receive the real outcome.
func (q *Queue) ClearQueue() {
	q.mu.Lock()
	var rejected []*Job
	for _, l := range q.lists {
		for e := l.Front(); e != nil; {
			next := e.Next()
			job := e.Value.(*Job)
			l.Remove(e)
			job.elem = nil
			rejected = append(rejected, job)
			e = next
		}
	}
	q.mu.Unlock()

	for _, job := range rejected {
		job.resultCh <- jobResult{err: ErrQueueCleared}
	}
}

// Destroy stops the scheduler and rejects all outstanding (pending and
// running) work promptly: callers waiting on Enqueue see ErrQueueDestroyed
// immediately, regardless of whether their job was still pending or already
// running. It then drains for up to cfg.DestroyGracePeriod, giving in-flight
// auditFn calls a chance to return on their own, before cancelling every
// still-running job's per-job context and returning. Destroy never blocks
// longer than the grace period: an auditFn that ignores ctx cancellation
// leaks its goroutine rather than wedging shutdown.
func (q *Queue) Destroy() {
	q.stopOnce.Do(func() { close(q.stopCh) })

	q.mu.Lock()
	var rejected []*Job
	for _, l := range q.lists {
		for e := l.Front(); e != nil; {
			next := e.Next()
			job := e.Value.(*Job)
			l.Remove(e)
			job.elem = nil
			rejected = append(rejected, job)
			e = next
		}
	}
	for _, job := range q.running {
		rejected = append(rejected, job)
	}
	q.mu.Unlock()

	for _, job := range rejected {
		select {
		case job.resultCh <- jobResult{err: ErrQueueDestroyed}:
		default:
		}
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(q.cfg.DestroyGracePeriod):
		q.mu.Lock()
		for _, cancel := range q.jobCancels {
			cancel()
		}
		q.mu.Unlock()
	}
}

// GetStatus returns a point-in-time snapshot of queue occupancy.
func (q *Queue) GetStatus() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	var utilization float64
	if q.cfg.MaxConcurrent > 0 {
		utilization = float64(len(q.running)) / float64(q.cfg.MaxConcurrent) * 100
	}
	return Status{
		IsProcessing: !q.paused,
		PendingJobs:  q.pendingLocked(),
		RunningJobs:  len(q.running),
		Capacity:     q.cfg.MaxConcurrent,
		Utilization:  utilization,
	}
}

// GetStats returns cumulative lifecycle counters alongside current
// pending/running occupancy.
func (q *Queue) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Pending:   q.pendingLocked(),
		Running:   len(q.running),
		Completed: q.completed,
		Failed:    q.failed,
		Retried:   q.retried,
	}
}
