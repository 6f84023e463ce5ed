package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func thoughtWithCode(code string) audit.Thought {
	return audit.Thought{ThoughtNumber: 1, Thought: "```go\n" + code + "\n```"}
}

func TestCache_HitOnReformattedCopy(t *testing.T) {
	c := New(Config{})
	defer c.Destroy()

	ctx := context.Background()
	review := audit.Review{Overall: 85, Verdict: audit.VerdictPass}
	c.Set(ctx, thoughtWithCode("func Add(a, b int) int {\nreturn a+b\n}"), review)

	got, ok := c.Get(ctx, thoughtWithCode("func Add(a, b int) int {\n  // comment\n  return a+b\n}"))
	require.True(t, ok)
	assert.Equal(t, review, *got)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
	assert.Equal(t, float64(100), stats.HitRate)
}

func TestCache_MissIncrementsStats(t *testing.T) {
	c := New(Config{})
	defer c.Destroy()

	_, ok := c.Get(context.Background(), thoughtWithCode("func X() {}"))
	assert.False(t, ok)

	stats := c.GetStats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, float64(0), stats.HitRate)
}

func TestCache_HasDoesNotAffectStats(t *testing.T) {
	c := New(Config{})
	defer c.Destroy()

	th := thoughtWithCode("func X() {}")
	assert.False(t, c.Has(th))
	c.Set(context.Background(), th, audit.Review{Overall: 50})
	assert.True(t, c.Has(th))

	stats := c.GetStats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

func TestCache_MaxEntriesEviction(t *testing.T) {
	c := New(Config{MaxEntries: 2})
	defer c.Destroy()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		th := thoughtWithCode(fmt.Sprintf("func F%d() {}", i))
		c.Set(ctx, th, audit.Review{Overall: float64(i)})
	}

	stats := c.GetStats()
	assert.LessOrEqual(t, stats.Entries, 2)

	// The most recently inserted entry must still be present.
	last := thoughtWithCode("func F4() {}")
	assert.True(t, c.Has(last))
}

func TestCache_LRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(Config{MaxEntries: 2})
	defer c.Destroy()

	ctx := context.Background()
	a := thoughtWithCode("func A() {}")
	b := thoughtWithCode("func B() {}")
	cc := thoughtWithCode("func C() {}")

	c.Set(ctx, a, audit.Review{Overall: 1})
	c.Set(ctx, b, audit.Review{Overall: 2})
	// Touch a so b becomes the least-recently-used entry.
	_, _ = c.Get(ctx, a)
	c.Set(ctx, cc, audit.Review{Overall: 3})

	assert.True(t, c.Has(a))
	assert.False(t, c.Has(b))
	assert.True(t, c.Has(cc))
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(Config{MaxAge: 10 * time.Millisecond})
	defer c.Destroy()

	ctx := context.Background()
	th := thoughtWithCode("func X() {}")
	c.Set(ctx, th, audit.Review{Overall: 1})
	assert.True(t, c.Has(th))

	time.Sleep(25 * time.Millisecond)
	assert.False(t, c.Has(th))
}

func TestCache_MemoryBudgetEviction(t *testing.T) {
	c := New(Config{MaxMemoryUsage: 1})
	defer c.Destroy()

	ctx := context.Background()
	th := thoughtWithCode("func X() {}")
	c.Set(ctx, th, audit.Review{Overall: 1, Review: audit.ReviewBody{Summary: "a fairly verbose summary of the finding"}})

	stats := c.GetStats()
	assert.LessOrEqual(t, stats.MemoryUsage, int64(stats.Entries)*2000) // budget enforced, not literally <=1 byte
}

func TestCache_NeverThrowsOnMalformedReview(t *testing.T) {
	c := New(Config{})
	defer c.Destroy()

	nanReview := audit.Review{Overall: mathNaN()}
	assert.NotPanics(t, func() {
		c.Set(context.Background(), audit.Thought{}, nanReview)
	})

	got, ok := c.Get(context.Background(), audit.Thought{})
	require.True(t, ok)
	assert.True(t, got.Overall != got.Overall) // NaN != NaN
}

func TestCache_CleanupDisabledWhenIntervalZero(t *testing.T) {
	c := New(Config{MaxAge: time.Millisecond, CleanupInterval: 0})
	defer c.Destroy()

	ctx := context.Background()
	th := thoughtWithCode("func X() {}")
	c.Set(ctx, th, audit.Review{Overall: 1})
	time.Sleep(10 * time.Millisecond)

	// No background cleanup ran, but the entry is still lazily treated as
	// expired on access.
	assert.False(t, c.Has(th))
}

func mathNaN() float64 {
	var zero float64
	return zero / zero
}
