package gate

import (
	"context"
	"errors"
	"testing"

	"autofilterbot/internal/transport"
)

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

type fakeMembership struct {
	status transport.MembershipStatus
	err    error
	calls  int
}

func (f *fakeMembership) GetMembership(ctx context.Context, channelID, userID int64) (transport.MembershipStatus, error) {
	f.calls++
	return f.status, f.err
}

func TestEvaluateBanPrecedesSubscription(t *testing.T) {
	bans := &fakeBans{banned: map[int64]bool{42: true}}
	// Membership would also deny; the gate must never get that far.
	membership := &fakeMembership{status: transport.Left}
	g := New(bans, membership, -100)

	for _, requireSub := range []bool{true, false} {
		if got := g.Evaluate(context.Background(), 42, requireSub); got != BlockedBanned {
			t.Fatalf("requireSub=%v: got %v, want BlockedBanned", requireSub, got)
		}
	}
	if membership.calls != 0 {
		t.Fatalf("subscription checked %d times for a banned user, want 0", membership.calls)
	}
}

func TestEvaluateAllowsMember(t *testing.T) {
	g := New(&fakeBans{}, &fakeMembership{status: transport.Member}, -100)
	if got := g.Evaluate(context.Background(), 7, true); got != Allow {
		t.Fatalf("got %v, want Allow", got)
	}
}

func TestEvaluateSkipsSubscriptionWhenNotRequired(t *testing.T) {
	membership := &fakeMembership{status: transport.Left}
	g := New(&fakeBans{}, membership, -100)
	if got := g.Evaluate(context.Background(), 7, false); got != Allow {
		t.Fatalf("got %v, want Allow", got)
	}
	if membership.calls != 0 {
		t.Fatalf("membership called %d times, want 0", membership.calls)
	}
}

func TestEvaluateFailsClosedOnTransportError(t *testing.T) {
	membership := &fakeMembership{err: errors.New("channel unreachable")}
	g := New(&fakeBans{}, membership, -100)
	if got := g.Evaluate(context.Background(), 7, true); got != BlockedUnsubscribed {
		t.Fatalf("got %v, want BlockedUnsubscribed", got)
	}
}

func TestEvaluateNonMemberStatusesBlock(t *testing.T) {
	for _, status := range []transport.MembershipStatus{transport.Left, transport.Kicked, transport.Unknown} {
		g := New(&fakeBans{}, &fakeMembership{status: status}, -100)
		if got := g.Evaluate(context.Background(), 7, true); got != BlockedUnsubscribed {
			t.Fatalf("status %q: got %v, want BlockedUnsubscribed", status, got)
		}
	}
}

func TestEvaluateBanLookupErrorDoesNotBlockOutright(t *testing.T) {
	bans := &fakeBans{err: errors.New("store down")}
	g := New(bans, &fakeMembership{status: transport.Member}, -100)
	if got := g.Evaluate(context.Background(), 7, true); got != Allow {
		t.Fatalf("got %v, want Allow when ban lookup fails but user is subscribed", got)
	}
}
