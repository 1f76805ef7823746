// Package broadcast fans a message out to every known recipient under the
// transport's rate budget.
package broadcast

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"autofilterbot/internal/transport"
	"autofilterbot/pkg/domain"
)

// DefaultPace is the fixed delay between consecutive sends. It keeps the
// run under the transport's ambient rate ceiling proactively, before any
// rate-limit signal arrives.
const DefaultPace = 100 * time.Millisecond

// Sender is the slice of the transport the dispatcher pushes through.
type Sender interface {
	Send(ctx context.Context, recipientID int64, payload transport.Payload) error
}

// BanStore is re-checked per recipient at dispatch time; ban state may
// change mid-broadcast.
type BanStore interface {
	IsBanned(userID int64) (bool, error)
}

// Config wires a dispatcher.
type Config struct {
	Sender      Sender
	Bans        BanStore
	Pace        time.Duration
	Checkpoints *CheckpointStore // optional; enables resume after a crash
}

// Dispatcher delivers one payload to a recipient sequence, strictly
// sequentially. Parallel sends would each independently trip the shared
// outbound rate budget, so there is exactly one in-flight send at a time
// and two suspension points: the pacing delay and the mandated backoff.
type Dispatcher struct {
	sender      Sender
	bans        BanStore
	pace        time.Duration
	checkpoints *CheckpointStore

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) bool
}

// New builds a dispatcher. Pace defaults to DefaultPace when unset.
func New(cfg Config) *Dispatcher {
	pace := cfg.Pace
	if pace <= 0 {
		pace = DefaultPace
	}
	return &Dispatcher{
		sender:      cfg.Sender,
		bans:        cfg.Bans,
		pace:        pace,
		checkpoints: cfg.Checkpoints,
		sleep:       sleepCtx,
	}
}

// Dispatch walks the recipient sequence and reports a final tally. A
// single recipient failure never aborts the batch. When a checkpoint
// store is configured, progress under runID is recorded after every
// recipient and a previously recorded prefix is skipped, so an
// interrupted run can be re-issued with the same runID.
func (d *Dispatcher) Dispatch(ctx context.Context, runID string, payload transport.Payload, recipients iter.Seq[int64]) domain.BroadcastTally {
	var tally domain.BroadcastTally
	skip := d.processed(ctx, runID)
	position := 0
	for recipientID := range recipients {
		position++
		if position <= skip {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		d.deliver(ctx, recipientID, payload, &tally)
		d.mark(ctx, runID, position)
		if !d.sleep(ctx, d.pace) {
			break
		}
	}
	slog.Info("broadcast finished",
		"run_id", runID,
		"success", tally.Success,
		"failed", tally.Failed,
		"skipped", tally.Skipped,
	)
	return tally
}

func (d *Dispatcher) deliver(ctx context.Context, recipientID int64, payload transport.Payload, tally *domain.BroadcastTally) {
	banned, err := d.bans.IsBanned(recipientID)
	if err != nil {
		slog.Warn("ban re-check failed, proceeding with send", "recipient", recipientID, "err", err)
	}
	if banned {
		tally.Skipped++
		return
	}

	err = d.sender.Send(ctx, recipientID, payload)
	var rateLimited *transport.RateLimitedError
	if errors.As(err, &rateLimited) {
		// Mandatory backoff, then exactly one retry for this recipient.
		// A bounded retry keeps worst-case broadcast duration finite.
		if !d.sleep(ctx, rateLimited.Wait) {
			tally.Failed++
			return
		}
		err = d.sender.Send(ctx, recipientID, payload)
	}
	if err != nil {
		tally.Failed++
		slog.Warn("broadcast send failed", "recipient", recipientID, "err", err)
		return
	}
	tally.Success++
}

func (d *Dispatcher) processed(ctx context.Context, runID string) int {
	if d.checkpoints == nil || runID == "" {
		return 0
	}
	n, err := d.checkpoints.Processed(ctx, runID)
	if err != nil {
		slog.Warn("checkpoint read failed, starting from beginning", "run_id", runID, "err", err)
		return 0
	}
	return n
}

func (d *Dispatcher) mark(ctx context.Context, runID string, position int) {
	if d.checkpoints == nil || runID == "" {
		return
	}
	if err := d.checkpoints.Mark(ctx, runID, position); err != nil {
		slog.Warn("checkpoint write failed", "run_id", runID, "err", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
