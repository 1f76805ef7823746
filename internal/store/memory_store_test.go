package store

import (
	"testing"
	"time"

	"autofilterbot/pkg/domain"
)

func TestSaveFilePreservesFirstInsertFields(t *testing.T) {
	m := NewMemoryStore()
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := domain.FileRecord{
		ContentKey:     "key-1",
		DisplayName:    "a.mkv",
		Kind:           domain.KindVideo,
		IndexedAt:      first,
		RetrievalCount: 4,
	}
	if err := m.SaveFile(rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec.DisplayName = "b.mkv"
	rec.IndexedAt = first.Add(time.Hour)
	rec.RetrievalCount = 0
	if err := m.SaveFile(rec); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	stored, ok, _ := m.GetFile("key-1")
	if !ok {
		t.Fatalf("record missing")
	}
	if stored.DisplayName != "b.mkv" {
		t.Fatalf("mutable field not updated: %q", stored.DisplayName)
	}
	if !stored.IndexedAt.Equal(first) {
		t.Fatalf("IndexedAt reset on upsert: %v", stored.IndexedAt)
	}
	if stored.RetrievalCount != 4 {
		t.Fatalf("RetrievalCount reset on upsert: %d", stored.RetrievalCount)
	}
}

func TestSaveUserPreservesFirstSeenAt(t *testing.T) {
	m := NewMemoryStore()
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	u := domain.UserRecord{UserID: 7, Handle: "old", FirstSeenAt: first, LastSeenAt: first}
	if err := m.SaveUser(u); err != nil {
		t.Fatalf("save: %v", err)
	}

	later := first.Add(48 * time.Hour)
	u.Handle = "new"
	u.FirstSeenAt = later
	u.LastSeenAt = later
	if err := m.SaveUser(u); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	count, _ := m.UserCount()
	if count != 1 {
		t.Fatalf("got %d users, want 1", count)
	}
	var ids []int64
	_ = m.ForEachUserID(func(id int64) bool {
		ids = append(ids, id)
		return true
	})
	if len(ids) != 1 || ids[0] != 7 {
		t.Fatalf("user ids = %v, want [7]", ids)
	}
}

func TestBanLifecycle(t *testing.T) {
	m := NewMemoryStore()
	entry := domain.BanEntry{UserID: 42, BannedAt: time.Now().UTC(), BannedBy: 1}

	inserted, err := m.BanUser(entry)
	if err != nil || !inserted {
		t.Fatalf("first ban: inserted=%v err=%v", inserted, err)
	}
	inserted, err = m.BanUser(entry)
	if err != nil || inserted {
		t.Fatalf("second ban: inserted=%v err=%v, want false", inserted, err)
	}
	if banned, _ := m.IsBanned(42); !banned {
		t.Fatalf("user should be banned")
	}
	if n, _ := m.BannedCount(); n != 1 {
		t.Fatalf("banned count = %d, want 1", n)
	}

	deleted, err := m.UnbanUser(42)
	if err != nil || !deleted {
		t.Fatalf("unban: deleted=%v err=%v", deleted, err)
	}
	deleted, err = m.UnbanUser(42)
	if err != nil || deleted {
		t.Fatalf("second unban: deleted=%v err=%v, want false", deleted, err)
	}
	if banned, _ := m.IsBanned(42); banned {
		t.Fatalf("user should not be banned after unban")
	}
}

func TestSaveGroupPreservesJoinedAt(t *testing.T) {
	m := NewMemoryStore()
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	g := domain.GroupRecord{GroupID: -100, Title: "old title", JoinedAt: first, AddedBy: 1}
	if err := m.SaveGroup(g); err != nil {
		t.Fatalf("save: %v", err)
	}
	g.Title = "new title"
	g.JoinedAt = first.Add(time.Hour)
	if err := m.SaveGroup(g); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	stored := m.groups[-100]
	if stored.Title != "new title" {
		t.Fatalf("title not updated: %q", stored.Title)
	}
	if !stored.JoinedAt.Equal(first) {
		t.Fatalf("JoinedAt reset on re-add: %v", stored.JoinedAt)
	}
}
