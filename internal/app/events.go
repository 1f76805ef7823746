package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"autofilterbot/internal/gate"
	"autofilterbot/internal/indexer"
	"autofilterbot/internal/transport"
	"autofilterbot/pkg/domain"
)

// Run consumes the transport event stream until the context is canceled
// or the stream closes. Each event is an independent unit of work; the
// group bounds how many run at once, and each handler is internally
// sequential.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workerLimit)
	events := a.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case ev, ok := <-events:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				a.handleEvent(gctx, ev)
				return nil
			})
		}
	}
}

func (a *App) handleEvent(ctx context.Context, ev transport.Event) {
	switch ev.Type {
	case transport.EventNewMedia:
		a.handleMedia(ev)
	case transport.EventCommand:
		a.handleCommand(ctx, ev)
	case transport.EventInlineQuery:
		a.handleInlineQuery(ctx, ev)
	case transport.EventCallback:
		a.handleCallback(ctx, ev)
	case transport.EventNewChatMember:
		a.handleNewChatMember(ev)
	}
}

func (a *App) handleMedia(ev transport.Event) {
	if ev.Media == nil {
		return
	}
	rec, err := a.indexer.Index(*ev.Media, a.privilegedOrigin(*ev.Media))
	if err != nil {
		// Unauthorized origins are ordinary traffic, not faults.
		if !errors.Is(err, indexer.ErrUnauthorizedOrigin) {
			slog.Error("index file failed", "content_id", ev.Media.ContentID, "err", err)
		}
		return
	}
	slog.Info("indexed file", "content_key", rec.ContentKey, "name", rec.DisplayName, "kind", rec.Kind)
}

func (a *App) handleCommand(ctx context.Context, ev transport.Event) {
	if ev.ActorID == a.ownerID && a.handleOwnerCommand(ctx, ev) {
		return
	}

	result := a.gate.Evaluate(ctx, ev.ActorID, true)
	switch result {
	case gate.BlockedBanned:
		if ev.Command != "" {
			a.reply(ctx, ev, "You are banned from using this bot.")
		}
		return
	case gate.BlockedUnsubscribed:
		a.reply(ctx, ev, "Subscription required. Join the channel, then try again.")
		return
	}
	a.touchUser(ev)

	switch ev.Command {
	case "start":
		a.reply(ctx, ev, "Welcome! Send me a search query inline, or use /help.")
	case "help":
		a.reply(ctx, ev, "Search the catalog via inline queries. Commands: /start /help /about /id")
	case "about":
		st := a.Status()
		a.reply(ctx, ev, fmt.Sprintf("Uptime: %s | Users: %d | Files: %d",
			FormatUptime(st.Uptime), st.Users, st.Files))
	case "id":
		a.reply(ctx, ev, fmt.Sprintf("Your ID: %d", ev.ActorID))
	case "":
		// Plain message: interaction already recorded, nothing to answer.
	default:
		a.reply(ctx, ev, "Unknown command. Try /help.")
	}
}

// handleOwnerCommand reports whether the command was an owner operation.
func (a *App) handleOwnerCommand(ctx context.Context, ev transport.Event) bool {
	switch ev.Command {
	case "ban":
		target, err := argID(ev.Args, 0)
		if err != nil {
			a.reply(ctx, ev, "Usage: /ban <user_id>")
			return true
		}
		switch err := a.Ban(target, ev.ActorID); {
		case errors.Is(err, ErrAlreadyBanned), errors.Is(err, ErrCannotBanOwner):
			a.reply(ctx, ev, err.Error())
		case err != nil:
			a.reply(ctx, ev, "Ban failed, see logs.")
		default:
			a.reply(ctx, ev, fmt.Sprintf("User %d banned.", target))
		}
		return true
	case "unban":
		target, err := argID(ev.Args, 0)
		if err != nil {
			a.reply(ctx, ev, "Usage: /unban <user_id>")
			return true
		}
		switch err := a.Unban(target); {
		case errors.Is(err, ErrNotBanned):
			a.reply(ctx, ev, err.Error())
		case err != nil:
			a.reply(ctx, ev, "Unban failed, see logs.")
		default:
			a.reply(ctx, ev, fmt.Sprintf("User %d unbanned.", target))
		}
		return true
	case "broadcast":
		text := strings.Join(ev.Args, " ")
		if text == "" {
			a.reply(ctx, ev, "Usage: /broadcast <message>")
			return true
		}
		tally := a.Broadcast(ctx, transport.Payload{Text: text})
		a.reply(ctx, ev, fmt.Sprintf("Broadcast done. Success: %d, Failed: %d, Skipped: %d",
			tally.Success, tally.Failed, tally.Skipped))
		return true
	case "status":
		st := a.Status()
		a.reply(ctx, ev, fmt.Sprintf("Uptime: %s | Users: %d | Files: %d | Banned: %d",
			FormatUptime(st.Uptime), st.Users, st.Files, st.Banned))
		return true
	case "send":
		target, err := argID(ev.Args, 0)
		if err != nil || len(ev.Args) < 2 {
			a.reply(ctx, ev, "Usage: /send <user_id> <file_key>")
			return true
		}
		if err := a.SendFile(ctx, target, ev.Args[1]); err != nil {
			slog.Warn("owner send failed", "target", target, "err", err)
			a.reply(ctx, ev, "Send failed, see logs.")
			return true
		}
		a.reply(ctx, ev, fmt.Sprintf("File sent to %d.", target))
		return true
	}
	return false
}

func (a *App) handleInlineQuery(ctx context.Context, ev transport.Event) {
	result := a.gate.Evaluate(ctx, ev.ActorID, true)
	if result == gate.BlockedBanned {
		return
	}
	if result == gate.BlockedUnsubscribed {
		a.reply(ctx, ev, "Subscription required. Join the channel, then try again.")
		return
	}
	a.touchUser(ev)

	limit := inlineLimit
	if strings.TrimSpace(ev.Query) == "" {
		limit = browseLimit
	}
	records := a.resolver.Search(ev.Query, limit)
	if len(records) == 0 {
		a.reply(ctx, ev, fmt.Sprintf("No files found for %q.", ev.Query))
		return
	}
	var b strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&b, "%s (%s, %d MB)\n", rec.DisplayName, rec.Kind, rec.SizeBytes/(1024*1024))
	}
	a.reply(ctx, ev, b.String())
}

func (a *App) handleCallback(ctx context.Context, ev transport.Event) {
	if ev.CallbackData != "check_sub" {
		return
	}
	switch a.gate.Evaluate(ctx, ev.ActorID, true) {
	case gate.Allow:
		a.touchUser(ev)
		a.reply(ctx, ev, "Subscription verified. You can use the bot now.")
	case gate.BlockedUnsubscribed:
		a.reply(ctx, ev, "Subscription not found. Join the channel first.")
	}
}

func (a *App) handleNewChatMember(ev transport.Event) {
	for _, joined := range ev.JoinedIDs {
		if joined != a.transport.SelfID() {
			continue
		}
		err := a.store.SaveGroup(domain.GroupRecord{
			GroupID:  ev.ChatID,
			Title:    ev.ChatTitle,
			JoinedAt: time.Now().UTC(),
			AddedBy:  ev.ActorID,
		})
		if err != nil {
			slog.Error("save group failed", "group_id", ev.ChatID, "err", err)
			continue
		}
		slog.Info("joined group", "group_id", ev.ChatID, "title", ev.ChatTitle)
	}
}

// touchUser records or refreshes the actor's UserRecord. The store keeps
// the original FirstSeenAt on conflict.
func (a *App) touchUser(ev transport.Event) {
	now := time.Now().UTC()
	err := a.store.SaveUser(domain.UserRecord{
		UserID:      ev.ActorID,
		Handle:      ev.ActorHandle,
		DisplayName: ev.ActorName,
		FirstSeenAt: now,
		LastSeenAt:  now,
	})
	if err != nil {
		slog.Warn("save user failed", "user_id", ev.ActorID, "err", err)
	}
}

func (a *App) reply(ctx context.Context, ev transport.Event, text string) {
	recipient := ev.ChatID
	if recipient == 0 {
		recipient = ev.ActorID
	}
	if err := a.transport.Send(ctx, recipient, transport.Payload{Text: text}); err != nil {
		slog.Warn("reply failed", "recipient", recipient, "err", err)
	}
}

func argID(args []string, idx int) (int64, error) {
	if idx >= len(args) {
		return 0, errors.New("missing argument")
	}
	return strconv.ParseInt(args[idx], 10, 64)
}
