package store

import "autofilterbot/pkg/domain"

// Store defines persistence operations for the catalog, users, bans, and groups.
//
// SaveFile and SaveUser are upserts: mutable fields are replaced, while
// first-insert fields (IndexedAt, RetrievalCount, FirstSeenAt, JoinedAt)
// are preserved on conflict.
type Store interface {
	// catalog
	SaveFile(rec domain.FileRecord) error
	GetFile(contentKey string) (domain.FileRecord, bool, error)
	SearchFiles(query string, limit int) ([]domain.FileRecord, error)
	RecentFiles(limit int) ([]domain.FileRecord, error)
	FileCount() (int, error)

	// users
	SaveUser(u domain.UserRecord) error
	UserCount() (int, error)
	// ForEachUserID streams user IDs in first-seen order until fn returns
	// false or the set is exhausted.
	ForEachUserID(fn func(id int64) bool) error

	// bans
	BanUser(entry domain.BanEntry) (inserted bool, err error)
	UnbanUser(userID int64) (deleted bool, err error)
	IsBanned(userID int64) (bool, error)
	BannedCount() (int, error)

	// groups
	SaveGroup(g domain.GroupRecord) error
}
