// Package queue implements a bounded-capacity priority scheduler with
// per-job timeouts, retries with backoff, pause/resume, and lifecycle
// events, built on a WorkerPool/Worker shape adapted for
// in-process dispatch instead of Postgres-polling (see DESIGN.md).
package queue

import (
	"container/list"
	"context"
	"errors"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

// Priority classes, highest first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// Sentinel errors. Callers match on message substring as well as identity,
// since wrapped timeout errors carry the configured duration inline.
var (
	// ErrQueueFull is returned synchronously by Enqueue when pending+running >= MaxQueueSize.
	ErrQueueFull = errors.New("Queue is full")
	// ErrQueueCleared is the rejection reason used by ClearQueue for pending jobs.
	ErrQueueCleared = errors.New("Queue cleared")
	// ErrQueueDestroyed rejects outstanding work on Destroy.
	ErrQueueDestroyed = errors.New("queue destroyed")
)

// AuditFn is the external judge invocation the queue dispatches jobs to.
// It must respect ctx cancellation/deadline.
type AuditFn func(ctx context.Context, thought audit.Thought, sessionID string) (audit.Review, error)

// EnqueueOptions are the per-job overrides accepted by Enqueue. A nil
// MaxRetries falls back to the queue's DefaultMaxRetries; a non-nil zero
// means "never retry this job", which is distinct from "unset".
type EnqueueOptions struct {
	Priority   Priority
	Timeout    time.Duration
	MaxRetries *int
}

// Job is a queue element. Exported fields are read-only snapshots;
// mutation happens only inside the queue's own lock.
type Job struct {
	ID         string
	Thought    audit.Thought
	SessionID  string
	Priority   Priority
	EnqueuedAt time.Time
	StartAt    *time.Time
	Attempts   int
	MaxRetries int
	TimeoutMs  int64
	Cancelled  bool

	resultCh chan jobResult
	elem     *list.Element // bookkeeping for its current priority list, if queued
}

type jobResult struct {
	review audit.Review
	err    error
}

// Config controls queue capacity, scheduling cadence, and default
// per-job policy.
type Config struct {
	// MaxConcurrent caps simultaneously running jobs. 0 means accept but
	// never start (used to exercise capacity rejection in isolation).
	MaxConcurrent int
	// MaxQueueSize caps pending+running before Enqueue rejects (must be >= 1).
	MaxQueueSize int
	// DefaultTimeout is used when EnqueueOptions.Timeout is zero.
	DefaultTimeout time.Duration
	// DefaultMaxRetries is used when EnqueueOptions.MaxRetries is negative.
	DefaultMaxRetries int
	// ProcessingInterval is the scheduler's periodic tick cadence.
	ProcessingInterval time.Duration
	// EnableStats toggles getStats() bookkeeping (always cheap here; kept
	// for config-surface parity with callers that expose a toggle).
	EnableStats bool
	// DestroyGracePeriod bounds how long Destroy waits for in-flight jobs
	// to finish naturally before cancelling their per-job contexts and
	// returning. Destroy never blocks longer than this.
	DestroyGracePeriod time.Duration
}

// DefaultConfig returns reasonable production defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:      4,
		MaxQueueSize:       256,
		DefaultTimeout:     30 * time.Second,
		DefaultMaxRetries:  2,
		ProcessingInterval: 50 * time.Millisecond,
		EnableStats:        true,
		DestroyGracePeriod: 5 * time.Second,
	}
}

// Status is a snapshot returned by GetStatus.
type Status struct {
	IsProcessing bool
	PendingJobs  int
	RunningJobs  int
	Capacity     int
	Utilization  float64
}

// Stats is a snapshot returned by GetStats.
type Stats struct {
	Pending   int
	Running   int
	Completed int64
	Failed    int64
	Retried   int64
}
