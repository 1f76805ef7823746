// Package gate enforces ban and channel-subscription checks before any
// catalog operation proceeds.
package gate

import (
	"context"
	"log/slog"

	"autofilterbot/internal/transport"
)

// Result of evaluating a user against the gate.
type Result int

const (
	Allow Result = iota
	BlockedBanned
	BlockedUnsubscribed
)

func (r Result) String() string {
	switch r {
	case Allow:
		return "allow"
	case BlockedBanned:
		return "blocked_banned"
	case BlockedUnsubscribed:
		return "blocked_unsubscribed"
	}
	return "unknown"
}

// BanStore is the slice of the record store the gate reads.
type BanStore interface {
	IsBanned(userID int64) (bool, error)
}

// MembershipChecker is the slice of the transport the gate consumes.
type MembershipChecker interface {
	GetMembership(ctx context.Context, channelID, userID int64) (transport.MembershipStatus, error)
}

// Gate is side-effect-free and idempotent; callers record the UserRecord
// themselves after an Allow.
type Gate struct {
	bans      BanStore
	transport MembershipChecker
	channelID int64
}

// New builds a gate bound to the required subscription channel.
func New(bans BanStore, checker MembershipChecker, channelID int64) *Gate {
	return &Gate{bans: bans, transport: checker, channelID: channelID}
}

// Evaluate checks ban status first, always, then subscription only when
// required. The ban check never gets bypassed by a subscription failure.
func (g *Gate) Evaluate(ctx context.Context, userID int64, requireSubscription bool) Result {
	banned, err := g.bans.IsBanned(userID)
	if err != nil {
		// A transient store failure must not lock every user out; treat as
		// not banned and let the subscription branch decide.
		slog.Warn("ban lookup failed", "user_id", userID, "err", err)
	} else if banned {
		return BlockedBanned
	}
	if !requireSubscription {
		return Allow
	}
	status, err := g.transport.GetMembership(ctx, g.channelID, userID)
	if err != nil {
		// Fails closed: an unreachable channel or unknown user means not
		// subscribed, never a propagated error.
		return BlockedUnsubscribed
	}
	if status != transport.Member {
		return BlockedUnsubscribed
	}
	return Allow
}
