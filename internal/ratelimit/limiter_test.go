package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances manually so window behavior can be tested without real
// delays.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
}

func newTestLimiter(perHour, burst int) (*Limiter, *fakeClock) {
	clock := newFakeClock()
	l := New(perHour, burst)
	l.Clock = clock.Now
	return l, clock
}

func TestHourlyLimit(t *testing.T) {
	l, clock := newTestLimiter(100, 10)

	for i := 0; i < 100; i++ {
		ok, _ := l.CanSend()
		assert.True(t, ok, "send %d should be allowed", i+1)
		l.RecordSent()
		clock.Advance(20 * time.Second) // stay clear of the burst cap
	}

	ok, reason := l.CanSend()
	assert.False(t, ok)
	assert.Equal(t, "Hourly limit reached", reason)
}

func TestHourlyLimitRecoversWhenOldestAges(t *testing.T) {
	l, clock := newTestLimiter(100, 10)

	for i := 0; i < 100; i++ {
		l.RecordSent()
		clock.Advance(20 * time.Second)
	}
	ok, _ := l.CanSend()
	assert.False(t, ok)

	// 100 sends over 2000s; once the oldest crosses the 1h horizon a slot
	// frees up.
	clock.Advance(time.Hour - 2000*time.Second)
	ok, reason := l.CanSend()
	assert.True(t, ok, "expected slot after oldest send aged out, got %q", reason)
}

func TestBurstLimit(t *testing.T) {
	l, clock := newTestLimiter(100, 10)

	for i := 0; i < 10; i++ {
		ok, _ := l.CanSend()
		assert.True(t, ok)
		l.RecordSent()
		clock.Advance(500 * time.Millisecond)
	}

	ok, reason := l.CanSend()
	assert.False(t, ok)
	assert.Equal(t, "Burst limit reached", reason)

	// Burst window is 10s; after it slides past, sends resume.
	clock.Advance(11 * time.Second)
	ok, _ = l.CanSend()
	assert.True(t, ok)
}

func TestWaitSeconds(t *testing.T) {
	l, clock := newTestLimiter(3, 10)

	assert.Equal(t, 0.0, l.WaitSeconds(), "no history means no wait")

	l.RecordSent()
	assert.Equal(t, 1.0, l.WaitSeconds(), "default pacing delay when under the cap")

	clock.Advance(time.Minute)
	l.RecordSent()
	clock.Advance(time.Minute)
	l.RecordSent()

	// Cap of 3 reached. The oldest entry is 2 minutes old, so the wait is
	// the remaining 58 minutes of its window.
	assert.InDelta(t, (58 * time.Minute).Seconds(), l.WaitSeconds(), 0.001)
}

func TestTryAcquireRecordsTheSend(t *testing.T) {
	l, _ := newTestLimiter(2, 10)

	ok, _ := l.TryAcquire()
	assert.True(t, ok)
	ok, _ = l.TryAcquire()
	assert.True(t, ok)

	ok, reason := l.TryAcquire()
	assert.False(t, ok, "acquires must count against the window")
	assert.Equal(t, "Hourly limit reached", reason)
}

func TestTryAcquireAtomicUnderConcurrency(t *testing.T) {
	l, _ := newTestLimiter(1, 10)

	const workers = 8
	var granted int32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if ok, _ := l.TryAcquire(); ok {
				atomic.AddInt32(&granted, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), granted, "a cap of 1 must admit exactly one concurrent acquirer")
	ok, reason := l.CanSend()
	assert.False(t, ok)
	assert.Equal(t, "Hourly limit reached", reason)
}

func TestPruneDropsExpiredEntries(t *testing.T) {
	l, clock := newTestLimiter(2, 10)

	l.RecordSent()
	l.RecordSent()
	ok, _ := l.CanSend()
	assert.False(t, ok)

	clock.Advance(61 * time.Minute)
	ok, _ = l.CanSend()
	assert.True(t, ok)
	assert.Equal(t, 0.0, l.WaitSeconds(), "expired history should not count")
}
