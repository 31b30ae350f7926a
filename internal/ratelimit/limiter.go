// internal/ratelimit/limiter.go
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultMaxPerHour = 100
	DefaultMaxBurst   = 10

	hourWindow  = time.Hour
	burstWindow = 10 * time.Second

	// defaultDelay is the inter-message pacing used when neither cap is hit.
	defaultDelay = time.Second
)

// Limiter is a sliding-window send gate with two independent caps: an hourly
// cap and a short burst cap. One instance must be shared across an entire
// dispatch run (and across campaigns in a multi-campaign deployment) so the
// caps reflect true send cadence. Safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	maxPerHour int
	maxBurst   int
	sent       []time.Time

	Clock func() time.Time
}

func New(maxPerHour, maxBurst int) *Limiter {
	if maxPerHour <= 0 {
		maxPerHour = DefaultMaxPerHour
	}
	if maxBurst <= 0 {
		maxBurst = DefaultMaxBurst
	}
	return &Limiter{
		maxPerHour: maxPerHour,
		maxBurst:   maxBurst,
		Clock:      time.Now,
	}
}

// CanSend reports whether a send is currently allowed. When denied, the
// second return value names the cap that was hit. The answer is advisory
// only: concurrent senders must gate through TryAcquire, otherwise several
// of them can pass the check before any send is recorded.
func (l *Limiter) CanSend() (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Clock()
	l.prune(now)
	return l.allow(now)
}

// TryAcquire checks both caps and, when allowed, records the send in the
// same critical section. This is the gate concurrent workers must use: the
// check and the recording are atomic, so the window can never overshoot a
// cap by the number of in-flight workers.
func (l *Limiter) TryAcquire() (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Clock()
	l.prune(now)
	if ok, reason := l.allow(now); !ok {
		return false, reason
	}
	l.sent = append(l.sent, now)
	return true, ""
}

// allow evaluates both caps against the pruned window. Callers hold l.mu.
func (l *Limiter) allow(now time.Time) (bool, string) {
	if len(l.sent) >= l.maxPerHour {
		return false, "Hourly limit reached"
	}

	recent := 0
	cutoff := now.Add(-burstWindow)
	for i := len(l.sent) - 1; i >= 0; i-- {
		if !l.sent[i].After(cutoff) {
			break
		}
		recent++
	}
	if recent >= l.maxBurst {
		return false, "Burst limit reached"
	}

	return true, ""
}

// RecordSent appends the current timestamp to the window. Only for
// single-sender callers that already gated through CanSend; concurrent
// senders use TryAcquire instead.
func (l *Limiter) RecordSent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, l.Clock())
}

// WaitSeconds returns how long to wait before the next send: the time until
// the oldest window entry expires when the hourly cap is exhausted, zero when
// nothing was sent yet, and a small fixed pacing delay otherwise.
func (l *Limiter) WaitSeconds() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Clock()
	l.prune(now)

	if len(l.sent) == 0 {
		return 0
	}
	if len(l.sent) >= l.maxPerHour {
		wait := l.sent[0].Add(hourWindow).Sub(now).Seconds()
		if wait < 0 {
			wait = 0
		}
		return wait
	}
	return defaultDelay.Seconds()
}

// prune drops timestamps older than the hourly window. Callers hold l.mu.
// Entries are appended in clock order, so the slice stays sorted.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-hourWindow)
	i := 0
	for i < len(l.sent) && !l.sent[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.sent = append(l.sent[:0:0], l.sent[i:]...)
	}
}
