package broadcast

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"autofilterbot/internal/transport"
)

type fakeSender struct {
	attempts map[int64]int
	fail     map[int64]error
	// failOnce returns the error only on the first attempt.
	failOnce map[int64]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		attempts: make(map[int64]int),
		fail:     make(map[int64]error),
		failOnce: make(map[int64]error),
	}
}

func (f *fakeSender) Send(ctx context.Context, recipientID int64, payload transport.Payload) error {
	f.attempts[recipientID]++
	if err, ok := f.failOnce[recipientID]; ok && f.attempts[recipientID] == 1 {
		return err
	}
	return f.fail[recipientID]
}

type fakeBans struct {
	banned map[int64]bool
	err    error
}

func (f *fakeBans) IsBanned(userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.banned[userID], nil
}

// newTestDispatcher swaps the real clock for a recording sleep.
func newTestDispatcher(sender Sender, bans BanStore) (*Dispatcher, *[]time.Duration) {
	d := New(Config{Sender: sender, Bans: bans, Pace: time.Millisecond})
	var sleeps []time.Duration
	d.sleep = func(ctx context.Context, dur time.Duration) bool {
		sleeps = append(sleeps, dur)
		return ctx.Err() == nil
	}
	return d, &sleeps
}

func TestDispatchFaultTolerance(t *testing.T) {
	sender := newFakeSender()
	sender.fail[4] = errors.New("peer gone")
	bans := &fakeBans{banned: map[int64]bool{3: true}}
	d, _ := newTestDispatcher(sender, bans)

	tally := d.Dispatch(context.Background(), "", transport.Payload{Text: "hi"},
		slices.Values([]int64{1, 2, 3, 4, 5}))

	if tally.Success != 3 || tally.Failed != 1 || tally.Skipped != 1 {
		t.Fatalf("tally = %+v, want success=3 failed=1 skipped=1", tally)
	}
	if tally.Attempted() != 5 {
		t.Fatalf("attempted = %d, want 5 (no early abort)", tally.Attempted())
	}
	if sender.attempts[3] != 0 {
		t.Fatalf("banned recipient was sent to %d times", sender.attempts[3])
	}
}

func TestDispatchRateLimitRetryOnce(t *testing.T) {
	wait := 7 * time.Second
	sender := newFakeSender()
	sender.failOnce[1] = &transport.RateLimitedError{Wait: wait}
	d, sleeps := newTestDispatcher(sender, &fakeBans{})

	tally := d.Dispatch(context.Background(), "", transport.Payload{Text: "hi"},
		slices.Values([]int64{1}))

	if tally.Success != 1 {
		t.Fatalf("tally = %+v, want success=1 after retry", tally)
	}
	if sender.attempts[1] != 2 {
		t.Fatalf("attempts = %d, want 2", sender.attempts[1])
	}
	var backoffs int
	for _, s := range *sleeps {
		if s == wait {
			backoffs++
		}
	}
	if backoffs != 1 {
		t.Fatalf("consumed %d backoff sleeps of %s, want exactly 1", backoffs, wait)
	}
}

func TestDispatchRateLimitSecondFailureCountsFailed(t *testing.T) {
	wait := 3 * time.Second
	sender := newFakeSender()
	sender.fail[1] = &transport.RateLimitedError{Wait: wait}
	d, sleeps := newTestDispatcher(sender, &fakeBans{})

	tally := d.Dispatch(context.Background(), "", transport.Payload{Text: "hi"},
		slices.Values([]int64{1}))

	if tally.Failed != 1 {
		t.Fatalf("tally = %+v, want failed=1", tally)
	}
	if sender.attempts[1] != 2 {
		t.Fatalf("attempts = %d, want 2 (retry exactly once, no loop)", sender.attempts[1])
	}
	var backoffs int
	for _, s := range *sleeps {
		if s == wait {
			backoffs++
		}
	}
	if backoffs != 1 {
		t.Fatalf("consumed %d backoff sleeps, want exactly 1", backoffs)
	}
}

func TestDispatchPacesBetweenSends(t *testing.T) {
	sender := newFakeSender()
	d, sleeps := newTestDispatcher(sender, &fakeBans{})

	d.Dispatch(context.Background(), "", transport.Payload{Text: "hi"},
		slices.Values([]int64{1, 2, 3}))

	var paced int
	for _, s := range *sleeps {
		if s == time.Millisecond {
			paced++
		}
	}
	if paced != 3 {
		t.Fatalf("pacing sleeps = %d, want one per recipient", paced)
	}
}

func TestDispatchBanCheckErrorProceeds(t *testing.T) {
	sender := newFakeSender()
	d, _ := newTestDispatcher(sender, &fakeBans{err: errors.New("store down")})

	tally := d.Dispatch(context.Background(), "", transport.Payload{Text: "hi"},
		slices.Values([]int64{1, 2}))

	if tally.Success != 2 {
		t.Fatalf("tally = %+v, want success=2 when ban re-check fails", tally)
	}
}

func TestDispatchStopsOnCanceledContext(t *testing.T) {
	sender := newFakeSender()
	d, _ := newTestDispatcher(sender, &fakeBans{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tally := d.Dispatch(ctx, "", transport.Payload{Text: "hi"},
		slices.Values([]int64{1, 2, 3}))

	if tally.Attempted() != 0 {
		t.Fatalf("tally = %+v, want nothing attempted after cancel", tally)
	}
}
