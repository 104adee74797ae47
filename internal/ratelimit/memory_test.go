package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiter_FirstRequest(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, 5*time.Minute)
	defer limiter.Close()

	allowed, info := limiter.Allow("192.0.2.1")
	assert.True(t, allowed)
	assert.Equal(t, 60, info.Limit)
	assert.Equal(t, 9, info.Remaining)
	assert.True(t, info.ResetAt.After(time.Now().Add(-time.Second)))
	assert.Zero(t, info.RetryAfter)
}

func TestMemoryLimiter_BurstExhausted(t *testing.T) {
	limiter := NewMemoryLimiter(60, 3, 5*time.Minute)
	defer limiter.Close()

	for i := range 3 {
		allowed, _ := limiter.Allow("192.0.2.1")
		assert.True(t, allowed, "request %d", i+1)
	}

	allowed, info := limiter.Allow("192.0.2.1")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, info.RetryAfter, time.Second)
}

func TestMemoryLimiter_OriginsAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(60, 1, 5*time.Minute)
	defer limiter.Close()

	allowed, _ := limiter.Allow("192.0.2.1")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("192.0.2.1")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow("192.0.2.2")
	assert.True(t, allowed)
	assert.Equal(t, 2, limiter.Len())
}

func TestMemoryLimiter_ConcurrentBurst(t *testing.T) {
	const burst = 25
	limiter := NewMemoryLimiter(1, burst, 5*time.Minute)
	defer limiter.Close()

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 4 {
				if ok, _ := limiter.Allow(fmt.Sprintf("origin-%d", i%2)); ok {
					granted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	// Refill is one token a minute, so each origin gets its burst only.
	assert.Equal(t, int64(2*burst), granted.Load())
}

func TestMemoryLimiter_CloseTwice(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, 100*time.Millisecond)
	limiter.Close()
	limiter.Close()
}

func TestMemoryLimiter_EvictsIdleBuckets(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, 5*time.Minute)
	defer limiter.Close()

	limiter.Allow("192.0.2.1")
	limiter.Allow("192.0.2.2")
	assert.Equal(t, 2, limiter.Len())

	limiter.evictIdle(time.Now().Add(-time.Hour))
	assert.Equal(t, 2, limiter.Len(), "recent buckets survive")

	limiter.evictIdle(time.Now().Add(time.Second))
	assert.Equal(t, 0, limiter.Len())
}

func TestMemoryLimiter_SweeperRuns(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, 20*time.Millisecond)
	defer limiter.Close()

	limiter.Allow("ephemeral")
	assert.Eventually(t, func() bool { return limiter.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
