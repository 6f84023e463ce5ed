package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instantConfig() Config {
	return Config{
		MaxConcurrent:      1,
		MaxQueueSize:       100,
		DefaultTimeout:     time.Second,
		DefaultMaxRetries:  0,
		ProcessingInterval: time.Millisecond,
		DestroyGracePeriod: 50 * time.Millisecond,
	}
}

func TestQueue_PriorityOrdering(t *testing.T) {
	var mu sync.Mutex
	var order []string

	// Block the single worker slot until all three are enqueued so ordering
	// is decided purely by priority, not submission race.
	gate := make(chan struct{})
	gatedFn := func(_ context.Context, thought audit.Thought, _ string) (audit.Review, error) {
		<-gate
		mu.Lock()
		order = append(order, thought.Thought)
		mu.Unlock()
		return audit.Review{Overall: 100}, nil
	}
	q := New(instantConfig(), gatedFn, nil)
	defer q.Destroy()

	var wg sync.WaitGroup
	enqueue := func(label string, p Priority) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = q.Enqueue(context.Background(), audit.Thought{Thought: label}, "s1", EnqueueOptions{Priority: p})
		}()
	}
	enqueue("A", PriorityLow)
	time.Sleep(20 * time.Millisecond)
	enqueue("B", PriorityHigh)
	enqueue("C", PriorityNormal)
	time.Sleep(20 * time.Millisecond)

	close(gate)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 3)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestQueue_RetryThenSucceed(t *testing.T) {
	var calls int64
	fn := func(_ context.Context, _ audit.Thought, _ string) (audit.Review, error) {
		n := atomic.AddInt64(&calls, 1)
		if n == 1 {
			return audit.Review{}, errors.New("temporary failure")
		}
		return audit.Review{Overall: 90}, nil
	}

	bus := events.New()
	var retryEvents int64
	bus.On(events.JobRetry, func(payload ...any) { atomic.AddInt64(&retryEvents, 1) })

	cfg := instantConfig()
	cfg.DefaultMaxRetries = 2
	q := New(cfg, fn, bus)
	defer q.Destroy()

	review, err := q.Enqueue(context.Background(), audit.Thought{Thought: "x"}, "s1", EnqueueOptions{})
	require.NoError(t, err)
	assert.Equal(t, float64(90), review.Overall)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
	assert.Equal(t, int64(1), atomic.LoadInt64(&retryEvents))
}

func TestQueue_TimeoutProducesDescriptiveError(t *testing.T) {
	fn := func(ctx context.Context, _ audit.Thought, _ string) (audit.Review, error) {
		<-ctx.Done()
		return audit.Review{}, ctx.Err()
	}

	cfg := instantConfig()
	cfg.DefaultTimeout = 100 * time.Millisecond
	cfg.DefaultMaxRetries = 0
	q := New(cfg, fn, nil)
	defer q.Destroy()

	_, err := q.Enqueue(context.Background(), audit.Thought{Thought: "slow"}, "s1", EnqueueOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out after 100ms")
}

func TestQueue_TimeoutEmitsJobTimeoutEvent(t *testing.T) {
	fn := func(ctx context.Context, _ audit.Thought, _ string) (audit.Review, error) {
		<-ctx.Done()
		return audit.Review{}, ctx.Err()
	}

	bus := events.New()
	var timeoutEvents int64
	bus.On(events.JobTimeout, func(payload ...any) { atomic.AddInt64(&timeoutEvents, 1) })

	cfg := instantConfig()
	cfg.DefaultTimeout = 50 * time.Millisecond
	cfg.DefaultMaxRetries = 0
	q := New(cfg, fn, bus)
	defer q.Destroy()

	_, err := q.Enqueue(context.Background(), audit.Thought{Thought: "slow"}, "s1", EnqueueOptions{})
	require.Error(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&timeoutEvents))
}

func TestQueue_CapacityRejection(t *testing.T) {
	block := make(chan struct{})
	fn := func(_ context.Context, _ audit.Thought, _ string) (audit.Review, error) {
		<-block
		return audit.Review{}, nil
	}

	cfg := instantConfig()
	cfg.MaxConcurrent = 1
	cfg.MaxQueueSize = 1
	q := New(cfg, fn, nil)
	defer func() {
		close(block)
		q.Destroy()
	}()

	go func() { _, _ = q.Enqueue(context.Background(), audit.Thought{Thought: "a"}, "s1", EnqueueOptions{}) }()
	time.Sleep(20 * time.Millisecond) // let it start running and occupy the one slot

	_, err := q.Enqueue(context.Background(), audit.Thought{Thought: "b"}, "s1", EnqueueOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Queue is full")
}

func TestQueue_PauseStopsDispatch(t *testing.T) {
	var calls int64
	fn := func(_ context.Context, _ audit.Thought, _ string) (audit.Review, error) {
		atomic.AddInt64(&calls, 1)
		return audit.Review{Overall: 1}, nil
	}

	q := New(instantConfig(), fn, nil)
	defer q.Destroy()
	q.Pause()

	done := make(chan struct{})
	go func() {
		_, _ = q.Enqueue(context.Background(), audit.Thought{Thought: "x"}, "s1", EnqueueOptions{})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls))

	q.Resume()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job never completed after resume")
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestQueue_ClearQueueRejectsPendingOnly(t *testing.T) {
	block := make(chan struct{})
	fn := func(_ context.Context, _ audit.Thought, _ string) (audit.Review, error) {
		<-block
		return audit.Review{Overall: 1}, nil
	}

	cfg := instantConfig()
	cfg.MaxConcurrent = 1
	q := New(cfg, fn, nil)
	defer func() {
		close(block)
		q.Destroy()
	}()

	runningResult := make(chan error, 1)
	go func() {
		_, err := q.Enqueue(context.Background(), audit.Thought{Thought: "running"}, "s1", EnqueueOptions{})
		runningResult <- err
	}()
	time.Sleep(20 * time.Millisecond)

	pendingResult := make(chan error, 1)
	go func() {
		_, err := q.Enqueue(context.Background(), audit.Thought{Thought: "pending"}, "s1", EnqueueOptions{})
		pendingResult <- err
	}()
	time.Sleep(20 * time.Millisecond)

	q.ClearQueue()

	select {
	case err := <-pendingResult:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Queue cleared")
	case <-time.After(time.Second):
		t.Fatal("pending job was not rejected by ClearQueue")
	}

	select {
	case err := <-runningResult:
		t.Fatalf("running job should not have finished yet, got err=%v", err)
	default:
	}
}

func TestQueue_DestroyRejectsOutstandingWork(t *testing.T) {
	block := make(chan struct{})
	fn := func(_ context.Context, _ audit.Thought, _ string) (audit.Review, error) {
		<-block
		return audit.Review{Overall: 1}, nil
	}

	cfg := instantConfig()
	cfg.MaxConcurrent = 1
	q := New(cfg, fn, nil)

	result := make(chan error, 1)
	go func() {
		_, err := q.Enqueue(context.Background(), audit.Thought{Thought: "x"}, "s1", EnqueueOptions{})
		result <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// The running job is still blocked on <-block, so Destroy must reject
	// the waiting caller without waiting for it to finish. Unblock the job
	// only after Destroy has returned, so the test doesn't depend on defer
	// ordering to avoid deadlocking on q.wg.Wait().
	q.Destroy()

	select {
	case err := <-result:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("destroy did not reject outstanding work promptly")
	}

	close(block)
}

func TestQueue_DestroyCancelsRunningJobContextAfterGracePeriod(t *testing.T) {
	ctxCancelled := make(chan struct{})
	fn := func(ctx context.Context, _ audit.Thought, _ string) (audit.Review, error) {
		<-ctx.Done()
		close(ctxCancelled)
		return audit.Review{}, ctx.Err()
	}

	cfg := instantConfig()
	cfg.MaxConcurrent = 1
	cfg.DestroyGracePeriod = 20 * time.Millisecond
	q := New(cfg, fn, nil)

	go func() { _, _ = q.Enqueue(context.Background(), audit.Thought{Thought: "x"}, "s1", EnqueueOptions{}) }()
	time.Sleep(10 * time.Millisecond) // let the job start running before Destroy

	destroyReturned := make(chan struct{})
	go func() {
		q.Destroy()
		close(destroyReturned)
	}()

	select {
	case <-destroyReturned:
	case <-time.After(time.Second):
		t.Fatal("Destroy did not return within its grace period")
	}

	select {
	case <-ctxCancelled:
	case <-time.After(time.Second):
		t.Fatal("Destroy did not cancel the running job's context")
	}
}

func TestQueue_StatusAndStatsReflectUtilization(t *testing.T) {
	block := make(chan struct{})
	fn := func(_ context.Context, _ audit.Thought, _ string) (audit.Review, error) {
		<-block
		return audit.Review{}, nil
	}

	cfg := instantConfig()
	cfg.MaxConcurrent = 2
	q := New(cfg, fn, nil)
	defer func() {
		close(block)
		q.Destroy()
	}()

	go func() { _, _ = q.Enqueue(context.Background(), audit.Thought{Thought: "x"}, "s1", EnqueueOptions{}) }()
	time.Sleep(20 * time.Millisecond)

	status := q.GetStatus()
	assert.Equal(t, 1, status.RunningJobs)
	assert.Equal(t, 2, status.Capacity)
	assert.InDelta(t, 50.0, status.Utilization, 0.01)

	stats := q.GetStats()
	assert.Equal(t, 1, stats.Running)
}
