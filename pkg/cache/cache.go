// Package cache implements the Audit Cache:
// content-addressed memoization of judge verdicts with TTL expiry,
// memory-bounded LRU eviction, and hit/miss statistics.
package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/fingerprint"
)

// Config controls cache budgets and background cleanup.
type Config struct {
	// MaxEntries bounds the entry count. 0 means unbounded.
	MaxEntries int
	// MaxMemoryUsage bounds the sum of entry byte sizes. 0 means unbounded.
	MaxMemoryUsage int64
	// MaxAge is the TTL after which an entry is evicted on cleanup. 0 means no TTL.
	MaxAge time.Duration
	// CleanupInterval runs cleanup() on a ticker when > 0. Tests rely on
	// 0 disables the timer entirely.
	CleanupInterval time.Duration
}

// DefaultConfig returns reasonable production defaults.
func DefaultConfig() Config {
	return Config{
		MaxEntries:      5000,
		MaxMemoryUsage:  64 * 1024 * 1024,
		MaxAge:          24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// entry is the internal representation of a cached review, plus the
// list.Element used for O(1) LRU bookkeeping.
type entry struct {
	fingerprint string
	review      audit.Review
	insertedAt  time.Time
	lastAccess  time.Time
	bytes       int64
	elem        *list.Element
}

// Stats mirrors the getStats() shape used by callers.
type Stats struct {
	Hits         int64
	Misses       int64
	HitRate      float64
	Entries      int
	MemoryUsage  int64
}

// Cache is the Audit Cache. Safe for concurrent use.
type Cache struct {
	cfg Config

	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List // front = most recently used

	hits   int64
	misses int64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Cache and starts its auto-cleanup timer if configured.
func New(cfg Config) *Cache {
	c := &Cache{
		cfg:     cfg,
		entries: make(map[string]*entry),
		lru:     list.New(),
		stopCh:  make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		c.wg.Add(1)
		go c.autoCleanup()
	}
	return c
}

func (c *Cache) autoCleanup() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.Cleanup(context.Background())
		}
	}
}

// Get returns the cached review for thought's fingerprint, updating stats
// and, on hit, lastAccess.
func (c *Cache) Get(_ context.Context, thought audit.Thought) (*audit.Review, bool) {
	key := fingerprint.Fingerprint(thought.Thought)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.cfg.MaxAge > 0 && time.Since(e.insertedAt) > c.cfg.MaxAge {
		c.removeLocked(e)
		c.misses++
		return nil, false
	}
	e.lastAccess = time.Now()
	c.lru.MoveToFront(e.elem)
	c.hits++
	review := e.review
	return &review, true
}

// Has reports presence without affecting stats. It still
// honors TTL: an expired entry is treated as absent.
func (c *Cache) Has(thought audit.Thought) bool {
	key := fingerprint.Fingerprint(thought.Thought)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.cfg.MaxAge > 0 && time.Since(e.insertedAt) > c.cfg.MaxAge {
		return false
	}
	return true
}

// Set memoizes review under thought's fingerprint and enforces budgets
// It never returns an error: malformed reviews (including
// NaN scores) and empty thoughts are stored as-is, matching the
// "cache is best-effort" failure semantics.
func (c *Cache) Set(_ context.Context, thought audit.Thought, review audit.Review) {
	key := fingerprint.Fingerprint(thought.Thought)
	size := measureBytes(review)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if existing, ok := c.entries[key]; ok {
		existing.review = review
		existing.insertedAt = now
		existing.lastAccess = now
		existing.bytes = size
		c.lru.MoveToFront(existing.elem)
	} else {
		e := &entry{
			fingerprint: key,
			review:      review,
			insertedAt:  now,
			lastAccess:  now,
			bytes:       size,
		}
		e.elem = c.lru.PushFront(e)
		c.entries[key] = e
	}

	c.enforceBudgetsLocked()
}

// measureBytes serializes review to JSON to measure its storage cost
// (Open Question: bytes-accounting unit — resolved to serialized
// JSON length, see DESIGN.md). Marshal failures (e.g. NaN scores, which
// encoding/json rejects) fall back to a conservative fixed estimate so
// Set never panics or throws on malformed review data.
func measureBytes(review audit.Review) int64 {
	b, err := json.Marshal(review)
	if err != nil {
		slog.Warn("cache: failed to measure review size, using fallback estimate", "error", err)
		return 512
	}
	return int64(len(b))
}

// Cleanup removes all expired entries.
func (c *Cache) Cleanup(_ context.Context) {
	if c.cfg.MaxAge <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()
}

func (c *Cache) expireLocked() {
	if c.cfg.MaxAge <= 0 {
		return
	}
	now := time.Now()
	for key, e := range c.entries {
		if now.Sub(e.insertedAt) > c.cfg.MaxAge {
			c.lru.Remove(e.elem)
			delete(c.entries, key)
		}
	}
}

// enforceBudgetsLocked applies the three-step eviction policy
// after every Set: expire, then LRU-evict down to MaxEntries, then
// LRU-evict down to MaxMemoryUsage. Caller must hold c.mu.
func (c *Cache) enforceBudgetsLocked() {
	c.expireLocked()

	if c.cfg.MaxEntries > 0 {
		for len(c.entries) > c.cfg.MaxEntries {
			c.evictOldestLocked()
		}
	}

	if c.cfg.MaxMemoryUsage > 0 {
		for c.totalBytesLocked() > c.cfg.MaxMemoryUsage && c.lru.Len() > 0 {
			c.evictOldestLocked()
		}
	}
}

// evictOldestLocked evicts the entry with the oldest lastAccess (LRU).
// The back of c.lru is the least-recently-used element since Get/Set move
// entries to the front.
func (c *Cache) evictOldestLocked() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry)
	c.removeLocked(e)
}

func (c *Cache) removeLocked(e *entry) {
	c.lru.Remove(e.elem)
	delete(c.entries, e.fingerprint)
}

func (c *Cache) totalBytesLocked() int64 {
	var total int64
	for _, e := range c.entries {
		total += e.bytes
	}
	return total
}

// Clear empties the cache without affecting lifetime stats counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru = list.New()
}

// GetStats returns current hit/miss/memory statistics.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}
	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		HitRate:     hitRate,
		Entries:     len(c.entries),
		MemoryUsage: c.totalBytesLocked(),
	}
}

// Destroy stops the auto-cleanup timer and releases all entries. Safe to
// call multiple times.
func (c *Cache) Destroy() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
	c.Clear()
}
