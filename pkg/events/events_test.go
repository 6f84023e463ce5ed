package events

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_EmitDeliversToAllSubscribers(t *testing.T) {
	b := New()
	var calls int64
	b.On(JobEnqueued, func(payload ...any) { atomic.AddInt64(&calls, 1) })
	b.On(JobEnqueued, func(payload ...any) { atomic.AddInt64(&calls, 1) })

	b.Emit(JobEnqueued, "job-1")

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestBus_HandlerPanicDoesNotStopDispatch(t *testing.T) {
	b := New()
	var secondCalled bool
	b.On(JobFailed, func(payload ...any) { panic("boom") })
	b.On(JobFailed, func(payload ...any) { secondCalled = true })

	assert.NotPanics(t, func() { b.Emit(JobFailed, "job-1", assert.AnError) })
	assert.True(t, secondCalled)
}

func TestBus_ConcurrentEmitIsSafe(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	var calls int64
	b.On(JobStarted, func(payload ...any) { atomic.AddInt64(&calls, 1) })

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Emit(JobStarted, "job")
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), atomic.LoadInt64(&calls))
}

func TestBus_UnregisteredEventIsNoOp(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() { b.Emit(JobTimeout, "job") })
}
