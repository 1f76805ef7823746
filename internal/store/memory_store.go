package store

import (
	"sort"
	"strings"
	"sync"

	"autofilterbot/pkg/domain"
)

// MemoryStore keeps all records in-process. It mirrors the upsert semantics
// of GormStore and is used by tests.
type MemoryStore struct {
	mu        sync.RWMutex
	files     map[string]domain.FileRecord
	fileOrder []string
	users     map[int64]domain.UserRecord
	userOrder []int64
	bans      map[int64]domain.BanEntry
	groups    map[int64]domain.GroupRecord
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:  make(map[string]domain.FileRecord),
		users:  make(map[int64]domain.UserRecord),
		bans:   make(map[int64]domain.BanEntry),
		groups: make(map[int64]domain.GroupRecord),
	}
}

// SaveFile upserts a catalog record, preserving IndexedAt and
// RetrievalCount for an existing content key.
func (m *MemoryStore) SaveFile(rec domain.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.files[rec.ContentKey]; ok {
		rec.IndexedAt = existing.IndexedAt
		rec.RetrievalCount = existing.RetrievalCount
	} else {
		m.fileOrder = append(m.fileOrder, rec.ContentKey)
	}
	m.files[rec.ContentKey] = rec
	return nil
}

// GetFile retrieves a catalog record by content key.
func (m *MemoryStore) GetFile(contentKey string) (domain.FileRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.files[contentKey]
	return rec, ok, nil
}

// SearchFiles matches query case-insensitively against display name or
// caption, in insertion order.
func (m *MemoryStore) SearchFiles(query string, limit int) ([]domain.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(query)
	res := make([]domain.FileRecord, 0, limit)
	for _, key := range m.fileOrder {
		rec := m.files[key]
		if strings.Contains(strings.ToLower(rec.DisplayName), needle) ||
			strings.Contains(strings.ToLower(rec.Caption), needle) {
			res = append(res, rec)
			if len(res) >= limit {
				break
			}
		}
	}
	return res, nil
}

// RecentFiles returns the limit most recently indexed records, newest first.
func (m *MemoryStore) RecentFiles(limit int) ([]domain.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]domain.FileRecord, 0, len(m.fileOrder))
	for _, key := range m.fileOrder {
		all = append(all, m.files[key])
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].IndexedAt.After(all[j].IndexedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// FileCount returns the catalog size.
func (m *MemoryStore) FileCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files), nil
}

// SaveUser upserts a user, preserving FirstSeenAt for an existing user.
func (m *MemoryStore) SaveUser(u domain.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[u.UserID]; ok {
		u.FirstSeenAt = existing.FirstSeenAt
	} else {
		m.userOrder = append(m.userOrder, u.UserID)
	}
	m.users[u.UserID] = u
	return nil
}

// UserCount returns number of known users.
func (m *MemoryStore) UserCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// ForEachUserID streams user IDs in first-seen order.
func (m *MemoryStore) ForEachUserID(fn func(id int64) bool) error {
	m.mu.RLock()
	ids := make([]int64, len(m.userOrder))
	copy(ids, m.userOrder)
	m.mu.RUnlock()
	for _, id := range ids {
		if !fn(id) {
			return nil
		}
	}
	return nil
}

// BanUser inserts a ban entry. Returns false when already banned.
func (m *MemoryStore) BanUser(entry domain.BanEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bans[entry.UserID]; ok {
		return false, nil
	}
	m.bans[entry.UserID] = entry
	return true, nil
}

// UnbanUser deletes the ban entry. Returns false when no entry existed.
func (m *MemoryStore) UnbanUser(userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bans[userID]; !ok {
		return false, nil
	}
	delete(m.bans, userID)
	return true, nil
}

// IsBanned reports whether a ban entry exists for the user.
func (m *MemoryStore) IsBanned(userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.bans[userID]
	return ok, nil
}

// BannedCount returns number of banned users.
func (m *MemoryStore) BannedCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bans), nil
}

// GetGroup retrieves a group record.
func (m *MemoryStore) GetGroup(groupID int64) (domain.GroupRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[groupID]
	return g, ok
}

// SaveGroup upserts a group record, preserving JoinedAt on re-add.
func (m *MemoryStore) SaveGroup(g domain.GroupRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.groups[g.GroupID]; ok {
		g.JoinedAt = existing.JoinedAt
	}
	m.groups[g.GroupID] = g
	return nil
}
