package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"autofilterbot/pkg/domain"
)

// Telegram adapts the Bot API to the Client contract. It stays thin:
// update-to-event mapping and plain-text sends, no rendering logic.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	events chan Event
}

// NewTelegram connects to the Bot API and starts the update pump.
func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	t := &Telegram{
		bot:    bot,
		events: make(chan Event),
	}
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	go t.pump(bot.GetUpdatesChan(updateCfg))
	return t, nil
}

// SelfID returns the bot's own user ID.
func (t *Telegram) SelfID() int64 {
	return t.bot.Self.ID
}

// GetMembership reports the user's standing in the channel.
func (t *Telegram) GetMembership(ctx context.Context, channelID, userID int64) (MembershipStatus, error) {
	member, err := t.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: channelID,
			UserID: userID,
		},
	})
	if err != nil {
		return Unknown, fmt.Errorf("get chat member: %w", err)
	}
	switch member.Status {
	case "left":
		return Left, nil
	case "kicked":
		return Kicked, nil
	case "creator", "administrator", "member", "restricted":
		return Member, nil
	}
	return Unknown, nil
}

// Send delivers a payload to a recipient, translating Bot API failures
// into the transport error taxonomy.
func (t *Telegram) Send(ctx context.Context, recipientID int64, payload Payload) error {
	var chattable tgbotapi.Chattable
	if payload.FileKey != "" {
		doc := tgbotapi.NewDocument(recipientID, tgbotapi.FileID(payload.FileKey))
		doc.Caption = payload.Text
		chattable = doc
	} else {
		chattable = tgbotapi.NewMessage(recipientID, payload.Text)
	}
	if _, err := t.bot.Send(chattable); err != nil {
		return translateSendError(err)
	}
	return nil
}

// Events exposes the mapped inbound event stream.
func (t *Telegram) Events() <-chan Event {
	return t.events
}

// Stop halts the update pump and closes the event stream.
func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}

func (t *Telegram) pump(updates tgbotapi.UpdatesChannel) {
	defer close(t.events)
	for update := range updates {
		if ev, ok := mapUpdate(update); ok {
			t.events <- ev
		}
	}
}

func translateSendError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.RetryAfter > 0 {
			return &RateLimitedError{Wait: time.Duration(apiErr.RetryAfter) * time.Second}
		}
		if apiErr.Code == 403 || strings.Contains(apiErr.Message, "chat not found") {
			return fmt.Errorf("%w: %s", ErrPeerUnreachable, apiErr.Message)
		}
	}
	return fmt.Errorf("send: %w", err)
}

func mapUpdate(update tgbotapi.Update) (Event, bool) {
	switch {
	case update.InlineQuery != nil:
		q := update.InlineQuery
		return Event{
			Type:        EventInlineQuery,
			ActorID:     q.From.ID,
			ActorHandle: q.From.UserName,
			ActorName:   q.From.FirstName,
			Query:       q.Query,
		}, true
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		ev := Event{
			Type:         EventCallback,
			ActorID:      cb.From.ID,
			ActorHandle:  cb.From.UserName,
			ActorName:    cb.From.FirstName,
			CallbackData: cb.Data,
		}
		if cb.Message != nil {
			ev.ChatID = cb.Message.Chat.ID
		}
		return ev, true
	case update.Message != nil:
		return mapMessage(update.Message)
	}
	return Event{}, false
}

func mapMessage(msg *tgbotapi.Message) (Event, bool) {
	ev := Event{
		ChatID: msg.Chat.ID,
	}
	if msg.From != nil {
		ev.ActorID = msg.From.ID
		ev.ActorHandle = msg.From.UserName
		ev.ActorName = msg.From.FirstName
	}
	switch {
	case len(msg.NewChatMembers) > 0:
		ev.Type = EventNewChatMember
		ev.ChatTitle = msg.Chat.Title
		for _, member := range msg.NewChatMembers {
			ev.JoinedIDs = append(ev.JoinedIDs, member.ID)
		}
		return ev, true
	case msg.IsCommand():
		ev.Type = EventCommand
		ev.Command = msg.Command()
		ev.Args = strings.Fields(msg.CommandArguments())
		return ev, true
	}
	if media, ok := mapMedia(msg); ok {
		ev.Type = EventNewMedia
		media.OriginID = msg.Chat.ID
		media.ActorID = ev.ActorID
		ev.Media = &media
		return ev, true
	}
	// Plain text still counts as an interaction worth recording.
	if msg.Text != "" {
		ev.Type = EventCommand
		return ev, true
	}
	return Event{}, false
}

func mapMedia(msg *tgbotapi.Message) (domain.MediaEvent, bool) {
	switch {
	case msg.Document != nil:
		return domain.MediaEvent{
			Kind:        domain.KindDocument,
			ContentID:   msg.Document.FileID,
			DisplayName: msg.Document.FileName,
			SizeBytes:   int64(msg.Document.FileSize),
			Caption:     msg.Caption,
		}, true
	case msg.Video != nil:
		return domain.MediaEvent{
			Kind:        domain.KindVideo,
			ContentID:   msg.Video.FileID,
			DisplayName: msg.Video.FileName,
			SizeBytes:   int64(msg.Video.FileSize),
			Caption:     msg.Caption,
		}, true
	case msg.Audio != nil:
		return domain.MediaEvent{
			Kind:        domain.KindAudio,
			ContentID:   msg.Audio.FileID,
			DisplayName: msg.Audio.FileName,
			SizeBytes:   int64(msg.Audio.FileSize),
			Caption:     msg.Caption,
		}, true
	case len(msg.Photo) > 0:
		best := msg.Photo[len(msg.Photo)-1]
		return domain.MediaEvent{
			Kind:      domain.KindPhoto,
			ContentID: best.FileID,
			SizeBytes: int64(best.FileSize),
			Caption:   msg.Caption,
		}, true
	}
	return domain.MediaEvent{}, false
}
