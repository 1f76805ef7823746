// Package app wires the catalog, gate, search, and broadcast components
// into one service and exposes the owner-facing command surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"autofilterbot/internal/broadcast"
	"autofilterbot/internal/gate"
	"autofilterbot/internal/indexer"
	"autofilterbot/internal/search"
	"autofilterbot/internal/store"
	"autofilterbot/internal/transport"
	"autofilterbot/pkg/domain"
)

const (
	browseLimit = 10
	inlineLimit = 20
)

// Config holds runtime configuration for the core application.
type Config struct {
	OwnerID           int64
	RequiredChannelID int64
	SourceChannelIDs  []int64
	BrandingTag       string
	BroadcastPace     time.Duration
	WorkerLimit       int
	Store             store.Store
	Transport         transport.Client
	Checkpoints       *broadcast.CheckpointStore
}

// App is the core service constructed once at startup and shared by every
// unit of work. It holds no record state of its own; every operation goes
// back through the store.
type App struct {
	ownerID     int64
	sources     map[int64]struct{}
	workerLimit int

	store      store.Store
	transport  transport.Client
	gate       *gate.Gate
	indexer    *indexer.Indexer
	resolver   *search.Resolver
	dispatcher *broadcast.Dispatcher

	checkpoints *broadcast.CheckpointStore
	startedAt   time.Time
}

// New constructs the application from its collaborators.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("record store required")
	}
	if cfg.Transport == nil {
		return nil, errors.New("transport required")
	}
	if cfg.OwnerID == 0 {
		return nil, errors.New("owner id required")
	}
	sources := make(map[int64]struct{}, len(cfg.SourceChannelIDs))
	for _, id := range cfg.SourceChannelIDs {
		sources[id] = struct{}{}
	}
	workerLimit := cfg.WorkerLimit
	if workerLimit <= 0 {
		workerLimit = 8
	}
	return &App{
		ownerID:     cfg.OwnerID,
		sources:     sources,
		workerLimit: workerLimit,
		store:       cfg.Store,
		transport:   cfg.Transport,
		gate:        gate.New(cfg.Store, cfg.Transport, cfg.RequiredChannelID),
		indexer:     indexer.New(cfg.Store, cfg.BrandingTag),
		resolver:    search.New(cfg.Store),
		dispatcher: broadcast.New(broadcast.Config{
			Sender:      cfg.Transport,
			Bans:        cfg.Store,
			Pace:        cfg.BroadcastPace,
			Checkpoints: cfg.Checkpoints,
		}),
		checkpoints: cfg.Checkpoints,
		startedAt:   time.Now().UTC(),
	}, nil
}

// Ban inserts a ban entry for the target.
func (a *App) Ban(targetID, byID int64) error {
	if targetID == a.ownerID {
		return ErrCannotBanOwner
	}
	inserted, err := a.store.BanUser(domain.BanEntry{
		UserID:   targetID,
		BannedAt: time.Now().UTC(),
		BannedBy: byID,
	})
	if err != nil {
		return fmt.Errorf("ban user %d: %w", targetID, err)
	}
	if !inserted {
		return ErrAlreadyBanned
	}
	slog.Info("user banned", "user_id", targetID, "banned_by", byID)
	return nil
}

// Unban removes the target's ban entry.
func (a *App) Unban(targetID int64) error {
	deleted, err := a.store.UnbanUser(targetID)
	if err != nil {
		return fmt.Errorf("unban user %d: %w", targetID, err)
	}
	if !deleted {
		return ErrNotBanned
	}
	slog.Info("user unbanned", "user_id", targetID)
	return nil
}

// Broadcast fans the payload out to every known user and reports the
// final tally. The run gets its own ID so progress checkpoints can
// resume it if the process dies mid-run.
func (a *App) Broadcast(ctx context.Context, payload transport.Payload) domain.BroadcastTally {
	runID := uuid.NewString()
	tally := a.dispatcher.Dispatch(ctx, runID, payload, a.recipients())
	if a.checkpoints != nil {
		if err := a.checkpoints.Clear(ctx, runID); err != nil {
			slog.Warn("clear broadcast checkpoint", "run_id", runID, "err", err)
		}
	}
	return tally
}

// recipients exposes the user set as a lazy sequence read from the store.
func (a *App) recipients() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		err := a.store.ForEachUserID(func(id int64) bool {
			return yield(id)
		})
		if err != nil {
			slog.Warn("recipient scan failed", "err", err)
		}
	}
}

// SendFile delivers a cataloged file to one user.
func (a *App) SendFile(ctx context.Context, targetID int64, fileKey string) error {
	if err := a.transport.Send(ctx, targetID, transport.Payload{FileKey: fileKey}); err != nil {
		return fmt.Errorf("send file to %d: %w", targetID, err)
	}
	return nil
}

// Status is the owner-facing status report.
type Status struct {
	Uptime time.Duration
	Users  int
	Files  int
	Banned int
}

// Status gathers counts from the store. Count failures degrade to zero
// with a logged warning rather than failing the report.
func (a *App) Status() Status {
	st := Status{Uptime: time.Since(a.startedAt)}
	var err error
	if st.Users, err = a.store.UserCount(); err != nil {
		slog.Warn("user count failed", "err", err)
	}
	if st.Files, err = a.store.FileCount(); err != nil {
		slog.Warn("file count failed", "err", err)
	}
	if st.Banned, err = a.store.BannedCount(); err != nil {
		slog.Warn("banned count failed", "err", err)
	}
	return st
}

// FormatUptime renders a duration as "1d 2h 3m 4s", dropping leading
// zero units.
func FormatUptime(d time.Duration) string {
	total := int(d.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// privilegedOrigin reports whether an event may write to the catalog:
// either it arrived from a designated source feed or the owner sent it.
func (a *App) privilegedOrigin(ev domain.MediaEvent) bool {
	if _, ok := a.sources[ev.OriginID]; ok {
		return true
	}
	return ev.ActorID == a.ownerID
}
