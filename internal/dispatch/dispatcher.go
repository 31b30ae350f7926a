// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/reviewgarden/outreach-backend/internal/channel"
	"github.com/reviewgarden/outreach-backend/internal/model"
	"github.com/reviewgarden/outreach-backend/internal/optout"
	"github.com/reviewgarden/outreach-backend/internal/ratelimit"
)

// OptOutSuffix is appended to every dispatched message, regardless of how
// the body was generated.
const OptOutSuffix = "Reply STOP to unsubscribe."

const (
	defaultWorkers     = 4
	defaultSendTimeout = 30 * time.Second
	testModeDelay      = 50 * time.Millisecond
)

// Reason strings for non-sent terminal statuses.
const (
	ReasonMissingNameOrPhone = "missing name or phone"
	ReasonNoMessage          = "no generated message"
	ReasonDuplicatePhone     = "duplicate phone"
)

// Progress is a snapshot emitted after each recipient reaches a terminal
// status.
type Progress struct {
	Done     int
	Total    int
	Sent     int
	Failed   int
	Skipped  int
	OptedOut int
	Elapsed  time.Duration
	Rate     float64 // recipients per second
	ETA      time.Duration
}

// Dispatcher runs the per-recipient state machine:
// pending -> {skipped, opted_out, sent, failed}. All transitions are
// one-shot; there are no automatic retries.
type Dispatcher struct {
	Channel  channel.Channel
	Limiter  *ratelimit.Limiter
	Registry *optout.Registry

	// Pacer spaces real sends out even when the sliding-window caps are not
	// hit. Nil disables pacing.
	Pacer *rate.Limiter

	Workers      int
	DedupePhones bool // skip rows flagged as duplicates instead of sending to all
	SendTimeout  time.Duration

	// OnProgress, when set, receives a snapshot after every recipient.
	// Invocations are serialized.
	OnProgress func(Progress)

	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
	Log   zerolog.Logger
}

func NewDispatcher(ch channel.Channel, limiter *ratelimit.Limiter, registry *optout.Registry, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		Channel:     ch,
		Limiter:     limiter,
		Registry:    registry,
		Pacer:       rate.NewLimiter(rate.Every(time.Second), 1),
		Workers:     defaultWorkers,
		SendTimeout: defaultSendTimeout,
		Clock:       time.Now,
		Sleep:       sleepCtx,
		Log:         log,
	}
}

// Run dispatches the campaign. messages is parallel to campaign.Recipients;
// a nil entry means no message was generated for that row. The returned
// slice always has one result per recipient; on cancellation the untouched
// recipients stay pending and ctx.Err() is returned alongside the partial
// results.
func (d *Dispatcher) Run(ctx context.Context, campaign *model.Campaign, messages []*model.Message) ([]model.DispatchResult, error) {
	total := len(campaign.Recipients)
	results := make([]model.DispatchResult, total)
	for i := range results {
		results[i] = model.DispatchResult{Row: campaign.Recipients[i].Row, Status: model.StatusPending}
	}

	workers := d.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	start := d.Clock()
	track := newTracker(total, start)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				var msg *model.Message
				if idx < len(messages) {
					msg = messages[idx]
				}
				res := d.process(ctx, campaign.TestMode, &campaign.Recipients[idx], msg)
				if !res.Status.Terminal() {
					continue // cancelled mid-wait; leave pending
				}
				results[idx] = res
				track.record(res.Status, d.Clock(), d.OnProgress)
			}
		}()
	}

feed:
	// Cancellation is cooperative and checked between recipients, never
	// mid-send.
	for i := 0; i < total; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		d.Log.Warn().Str("campaign", campaign.ID).Int("done", track.done()).Int("total", total).
			Msg("dispatch cancelled, remaining recipients left pending")
		return results, err
	}
	return results, nil
}

// process takes one recipient to a terminal status. A pending result is
// returned only when the run was cancelled before the send happened.
func (d *Dispatcher) process(ctx context.Context, testMode bool, rec *model.Recipient, msg *model.Message) (res model.DispatchResult) {
	res = model.DispatchResult{Row: rec.Row, Status: model.StatusPending}

	// One recipient's failure must never prevent others from being
	// attempted.
	defer func() {
		if r := recover(); r != nil {
			d.Log.Error().Int("row", rec.Row).Interface("panic", r).Msg("recovered while processing recipient")
			res = model.DispatchResult{
				Row:    rec.Row,
				Status: model.StatusFailed,
				Reason: fmt.Sprintf("unexpected error: %v", r),
			}
		}
	}()

	if ctx.Err() != nil {
		return res // cancelled before this recipient started
	}

	if rec.CustomerName == "" || rec.Phone == "" {
		res.Status = model.StatusSkipped
		res.Reason = ReasonMissingNameOrPhone
		return res
	}
	if d.DedupePhones && rec.Duplicate {
		res.Status = model.StatusSkipped
		res.Reason = ReasonDuplicatePhone
		return res
	}
	if d.Registry != nil && d.Registry.IsOptedOut(rec.Phone) {
		res.Status = model.StatusOptedOut
		res.Reason = "destination opted out"
		return res
	}
	if msg == nil {
		res.Status = model.StatusFailed
		res.Reason = ReasonNoMessage
		return res
	}

	if testMode {
		// Simulated send: no channel call, no limiter bookkeeping.
		_ = d.Sleep(ctx, testModeDelay)
		now := d.Clock()
		res.Status = model.StatusSent
		res.MessageID = "test-" + uuid.NewString()
		res.SentAt = &now
		return res
	}

	if d.Pacer != nil {
		if err := d.Pacer.Wait(ctx); err != nil {
			return res
		}
	}

	// Block until the sliding-window caps admit a send. TryAcquire checks
	// and records atomically, so concurrent workers cannot all slip past
	// the gate before any send lands in the window.
	for {
		ok, reason := d.Limiter.TryAcquire()
		if ok {
			break
		}
		wait := time.Duration(d.Limiter.WaitSeconds() * float64(time.Second))
		if wait <= 0 {
			wait = time.Second
		}
		d.Log.Debug().Int("row", rec.Row).Str("reason", reason).Dur("wait", wait).Msg("rate limited, waiting")
		if err := d.Sleep(ctx, wait); err != nil {
			return res // still pending
		}
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.SendTimeout)
	defer cancel()

	id, err := d.Channel.Send(sendCtx, rec.Phone, FinalBody(msg.Body, rec.ReviewLink))
	now := d.Clock()
	if err != nil {
		d.Log.Warn().Int("row", rec.Row).Str("kind", string(channel.Classify(err))).Err(err).Msg("send failed")
		res.Status = model.StatusFailed
		res.Reason = err.Error()
		res.SentAt = &now
		return res
	}

	res.Status = model.StatusSent
	res.MessageID = id
	res.SentAt = &now
	return res
}

// FinalBody assembles the dispatched text: rendered message, review link,
// and the mandatory opt-out instruction.
func FinalBody(body, reviewLink string) string {
	out := body
	if reviewLink != "" {
		out += "\n\n" + reviewLink
	}
	return out + "\n\n" + OptOutSuffix
}

// tracker keeps running counts for progress reporting. The callback is
// invoked under the tracker lock, so observers never run concurrently.
type tracker struct {
	mu    sync.Mutex
	p     Progress
	start time.Time
}

func newTracker(total int, start time.Time) *tracker {
	return &tracker{p: Progress{Total: total}, start: start}
}

func (t *tracker) record(status model.Status, now time.Time, observe func(Progress)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.p.Done++
	switch status {
	case model.StatusSent:
		t.p.Sent++
	case model.StatusFailed:
		t.p.Failed++
	case model.StatusSkipped:
		t.p.Skipped++
	case model.StatusOptedOut:
		t.p.OptedOut++
	}

	t.p.Elapsed = now.Sub(t.start)
	if secs := t.p.Elapsed.Seconds(); secs > 0 {
		t.p.Rate = float64(t.p.Done) / secs
	}
	if t.p.Rate > 0 {
		remaining := t.p.Total - t.p.Done
		t.p.ETA = time.Duration(float64(remaining) / t.p.Rate * float64(time.Second))
	}
	if observe != nil {
		observe(t.p)
	}
}

func (t *tracker) done() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.p.Done
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
