package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per origin in process. Buckets idle
// for twice the sweep interval are dropped by a background goroutine.
type MemoryLimiter struct {
	perMinute int
	refill    rate.Limit
	burst     int
	sweep     time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	stopped bool
}

// NewMemoryLimiter refills requestsPerMinute tokens a minute into buckets of
// size burst.
func NewMemoryLimiter(requestsPerMinute, burst int, sweep time.Duration) *MemoryLimiter {
	m := &MemoryLimiter{
		perMinute: requestsPerMinute,
		refill:    rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:     burst,
		sweep:     sweep,
		buckets:   make(map[string]*bucket),
		stop:      make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

func (m *MemoryLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.refill, m.burst)}
		m.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

func (m *MemoryLimiter) Allow(key string) (bool, Info) {
	now := time.Now()
	lim := m.bucketFor(key, now)
	allowed := lim.AllowN(now, 1)

	tokens := lim.TokensAt(now)
	info := Info{
		Limit:     m.perMinute,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetAt:   now,
	}
	if missing := float64(m.burst) - tokens; missing > 0 {
		info.ResetAt = now.Add(time.Duration(missing / float64(m.refill) * float64(time.Second)))
	}

	if !allowed {
		// Reserve-then-cancel reports the wait without consuming a token.
		r := lim.ReserveN(now, 1)
		info.RetryAfter = r.DelayFrom(now)
		r.CancelAt(now)
	}
	return allowed, info
}

// Len is the number of live buckets.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// Close stops the sweeper. It is safe to call more than once.
func (m *MemoryLimiter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped {
		m.stopped = true
		close(m.stop)
	}
}

func (m *MemoryLimiter) sweepLoop() {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.evictIdle(now.Add(-2 * m.sweep))
		}
	}
}

func (m *MemoryLimiter) evictIdle(cutoff time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, b := range m.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(m.buckets, key)
		}
	}
}
