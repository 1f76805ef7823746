package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autofilterbot/pkg/domain"
)

// MembershipStatus is a user's standing in a channel as reported by the
// transport.
type MembershipStatus string

const (
	Member  MembershipStatus = "member"
	Left    MembershipStatus = "left"
	Kicked  MembershipStatus = "kicked"
	Unknown MembershipStatus = "unknown"
)

// Payload is an outbound message: plain text, optionally carrying a
// catalog content key to deliver the underlying file.
type Payload struct {
	Text    string
	FileKey string
}

// RateLimitedError signals the transport mandated a backoff before the
// next send.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.Wait)
}

// ErrPeerUnreachable marks a recipient that cannot be delivered to
// (blocked the bot, deactivated, never started a chat).
var ErrPeerUnreachable = errors.New("peer unreachable")

type EventType string

const (
	EventNewMedia      EventType = "new_media"
	EventCommand       EventType = "command"
	EventInlineQuery   EventType = "inline_query"
	EventCallback      EventType = "callback"
	EventNewChatMember EventType = "new_chat_member"
)

// Event is one inbound unit of work delivered by the transport.
type Event struct {
	Type        EventType
	ActorID     int64
	ActorHandle string
	ActorName   string
	ChatID      int64

	// EventNewMedia
	Media *domain.MediaEvent

	// EventCommand
	Command string
	Args    []string

	// EventInlineQuery and EventCallback
	Query        string
	CallbackData string

	// EventNewChatMember
	ChatTitle string
	JoinedIDs []int64
}

// Client is the full transport surface the core consumes. Components
// depend on the narrow slices they need.
type Client interface {
	SelfID() int64
	GetMembership(ctx context.Context, channelID, userID int64) (MembershipStatus, error)
	Send(ctx context.Context, recipientID int64, payload Payload) error
	Events() <-chan Event
}
