package clients

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = t
}

func (f *fakeClock) Advance(d time.Duration) { f.Set(f.Now().Add(d)) }

var base = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func TestWindow_Start(t *testing.T) {
	local := time.FixedZone("UTC+5", 5*3600)
	at := time.Date(2026, 3, 14, 2, 30, 45, 123, local) // 2026-03-13 21:30:45 UTC

	assert.Equal(t, time.Date(2026, 3, 13, 21, 30, 0, 0, time.UTC), Minute.Start(at))
	assert.Equal(t, time.Date(2026, 3, 13, 21, 0, 0, 0, time.UTC), Hour.Start(at))
	assert.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), Day.Start(at))
}

func TestClient_ConsumeUpToCap(t *testing.T) {
	for _, limit := range []int{0, 1, 5, 100} {
		for _, w := range windows {
			t.Run(fmt.Sprintf("%s/%d", w, limit), func(t *testing.T) {
				limits := UnlimitedLimits
				switch w {
				case Minute:
					limits.PerMinute = limit
				case Hour:
					limits.PerHour = limit
				case Day:
					limits.PerDay = limit
				}
				clock := newFakeClock(base)
				c := NewClient("c", limits, WithClientClock(clock.Now))

				for i := 0; i < limit; i++ {
					require.False(t, c.Consume(1), "charge %d of %d", i+1, limit)
				}
				assert.True(t, c.Consume(1), "charge past cap %d", limit)
			})
		}
	}
}

func TestClient_ConsumeChargesOverflowingRequest(t *testing.T) {
	clock := newFakeClock(base)
	c := NewClient("c", Limits{PerMinute: 3, PerHour: Unlimited, PerDay: Unlimited}, WithClientClock(clock.Now))

	assert.False(t, c.Consume(2))
	assert.True(t, c.Consume(2))
	assert.Equal(t, 4, c.Usage()[Minute].Used)
	assert.True(t, c.Consume(0), "zero cost still reports the window as over")
}

func TestClient_HugeCostSaturates(t *testing.T) {
	clock := newFakeClock(base)
	c := NewClient("c", Limits{PerMinute: 5, PerHour: Unlimited, PerDay: Unlimited}, WithClientClock(clock.Now))

	assert.False(t, c.Consume(1))
	assert.True(t, c.Consume(math.MaxInt))
	assert.Equal(t, math.MaxInt, c.Usage()[Minute].Used)
	assert.True(t, c.Consume(1), "window stays over its cap")
	assert.Equal(t, math.MaxInt, c.Usage()[Minute].Used)

	clock.Advance(time.Minute)
	assert.False(t, c.Consume(1))
}

func TestClient_UnlimitedNeverExceeds(t *testing.T) {
	c := NewClient("c", Limits{PerMinute: -1, PerHour: -7, PerDay: Unlimited})
	for i := 0; i < 1000; i++ {
		require.False(t, c.Consume(1000))
	}
	assert.Equal(t, UnlimitedLimits, c.Limits())
}

func TestClient_NegativeCostChargesNothing(t *testing.T) {
	c := NewClient("c", Limits{PerMinute: 1, PerHour: 1, PerDay: 1})
	assert.False(t, c.Consume(-5))
	assert.False(t, c.Consume(1))
	assert.Equal(t, 1, c.Usage()[Day].Used)
}

func TestClient_Rollover(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 14, 15, 59, 30, 0, time.UTC))
	c := NewClient("c", Limits{PerMinute: Unlimited, PerHour: 2, PerDay: 5}, WithClientClock(clock.Now))

	assert.False(t, c.Consume(1))
	assert.False(t, c.Consume(1))
	assert.True(t, c.Consume(1))

	clock.Set(time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC))
	assert.False(t, c.Consume(1), "hour window rolled over")

	usage := c.Usage()
	assert.Equal(t, 1, usage[Hour].Used)
	assert.Equal(t, 4, usage[Day].Used, "day window keeps accumulating")
	assert.Equal(t, time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC), usage[Hour].Start)
}

func TestClient_BackwardsClockDoesNotReset(t *testing.T) {
	clock := newFakeClock(base)
	c := NewClient("c", Limits{PerMinute: 1, PerHour: Unlimited, PerDay: Unlimited}, WithClientClock(clock.Now))

	assert.False(t, c.Consume(1))
	clock.Advance(-2 * time.Minute)
	assert.True(t, c.Consume(1))
}

func TestClient_UsageDoesNotMutate(t *testing.T) {
	clock := newFakeClock(base)
	c := NewClient("c", Limits{PerMinute: 10, PerHour: 20, PerDay: 30}, WithClientClock(clock.Now))
	c.Consume(3)

	clock.Advance(time.Minute)
	usage := c.Usage()
	assert.Equal(t, 0, usage[Minute].Used)
	assert.Equal(t, 3, usage[Hour].Used)
	assert.Equal(t, 10, usage[Minute].Limit)
	assert.Equal(t, "minute", usage[Minute].Window)

	clock.Set(base)
	assert.Equal(t, 3, c.Usage()[Minute].Used, "rolled-over view was not written back")
}

func TestClient_PasswordMatches(t *testing.T) {
	open := NewClient("open", UnlimitedLimits)
	assert.False(t, open.HasCredential())
	assert.True(t, open.PasswordMatches(""))
	assert.True(t, open.PasswordMatches("anything"))

	locked := NewClient("locked", UnlimitedLimits, WithPassword("p"))
	assert.True(t, locked.HasCredential())
	assert.True(t, locked.PasswordMatches("p"))
	assert.False(t, locked.PasswordMatches("P"))
	assert.False(t, locked.PasswordMatches(""))
	assert.False(t, locked.PasswordMatches("pp"))

	empty := NewClient("empty", UnlimitedLimits, WithPassword(""))
	assert.True(t, empty.PasswordMatches(""))
	assert.False(t, empty.PasswordMatches("x"))
}

func TestClient_ConcurrentConsumeIsLinearizable(t *testing.T) {
	for _, n := range []int{2, 8, 64} {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			clock := newFakeClock(base)
			c := NewClient("c", Limits{PerMinute: n - 1, PerHour: Unlimited, PerDay: Unlimited}, WithClientClock(clock.Now))

			var (
				wg       sync.WaitGroup
				start    = make(chan struct{})
				results  = make(chan bool, n)
				exceeded int
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					results <- c.Consume(1)
				}()
			}
			close(start)
			wg.Wait()
			close(results)

			for r := range results {
				if r {
					exceeded++
				}
			}
			assert.Equal(t, 1, exceeded)
			assert.Equal(t, n, c.Usage()[Minute].Used)
		})
	}
}
