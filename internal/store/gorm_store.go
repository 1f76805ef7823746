package store

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"autofilterbot/pkg/domain"
)

const userIDBatchSize = 500

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&FileModel{}, &UserModel{}, &BanModel{}, &GroupModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveFile upserts a catalog record keyed by content key. Only mutable
// fields are replaced on conflict; indexed_at and retrieval_count keep
// their first-insert values.
func (s *GormStore) SaveFile(rec domain.FileRecord) error {
	model := fileToModel(rec)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "content_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "kind", "size_bytes", "caption", "origin_id"}),
	}).Create(&model).Error
}

// GetFile retrieves a catalog record by content key.
func (s *GormStore) GetFile(contentKey string) (domain.FileRecord, bool, error) {
	var model FileModel
	if err := s.db.First(&model, "content_key = ?", contentKey).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.FileRecord{}, false, nil
		}
		return domain.FileRecord{}, false, err
	}
	return fileFromModel(model), true, nil
}

// SearchFiles matches query case-insensitively against display name or
// caption, returning at most limit rows in store-native order.
func (s *GormStore) SearchFiles(query string, limit int) ([]domain.FileRecord, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var models []FileModel
	err := s.db.
		Where("LOWER(display_name) LIKE ? OR LOWER(caption) LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return filesFromModels(models), nil
}

// RecentFiles returns the limit most recently indexed records, newest first.
func (s *GormStore) RecentFiles(limit int) ([]domain.FileRecord, error) {
	var models []FileModel
	if err := s.db.Order("indexed_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	return filesFromModels(models), nil
}

// FileCount returns the catalog size.
func (s *GormStore) FileCount() (int, error) {
	var count int64
	if err := s.db.Model(&FileModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveUser upserts a user, refreshing mutable fields and last_seen_at
// while preserving first_seen_at.
func (s *GormStore) SaveUser(u domain.UserRecord) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"handle", "display_name", "last_seen_at"}),
	}).Create(&model).Error
}

// UserCount returns number of known users.
func (s *GormStore) UserCount() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// ForEachUserID streams user IDs in first-seen order, loading in batches so
// a large recipient set never sits in memory at once.
func (s *GormStore) ForEachUserID(fn func(id int64) bool) error {
	var batch []UserModel
	stopped := false
	err := s.db.Model(&UserModel{}).
		Order("first_seen_at ASC").
		FindInBatches(&batch, userIDBatchSize, func(tx *gorm.DB, _ int) error {
			for _, m := range batch {
				if !fn(m.UserID) {
					stopped = true
					return gorm.ErrRecordNotFound
				}
			}
			return nil
		}).Error
	if stopped {
		return nil
	}
	return err
}

// BanUser inserts a ban entry. Returns false when the user is already banned.
func (s *GormStore) BanUser(entry domain.BanEntry) (bool, error) {
	model := BanModel{
		UserID:   entry.UserID,
		BannedAt: entry.BannedAt,
		BannedBy: entry.BannedBy,
	}
	tx := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// UnbanUser deletes the ban entry. Returns false when no entry existed.
func (s *GormStore) UnbanUser(userID int64) (bool, error) {
	tx := s.db.Delete(&BanModel{}, "user_id = ?", userID)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// IsBanned reports whether a ban entry exists for the user.
func (s *GormStore) IsBanned(userID int64) (bool, error) {
	var count int64
	if err := s.db.Model(&BanModel{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// BannedCount returns number of banned users.
func (s *GormStore) BannedCount() (int, error) {
	var count int64
	if err := s.db.Model(&BanModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveGroup upserts a group record, preserving joined_at on re-add.
func (s *GormStore) SaveGroup(g domain.GroupRecord) error {
	model := GroupModel{
		GroupID:  g.GroupID,
		Title:    g.Title,
		JoinedAt: g.JoinedAt,
		AddedBy:  g.AddedBy,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "added_by"}),
	}).Create(&model).Error
}

func fileToModel(rec domain.FileRecord) FileModel {
	return FileModel{
		ContentKey:     rec.ContentKey,
		DisplayName:    rec.DisplayName,
		Kind:           string(rec.Kind),
		SizeBytes:      rec.SizeBytes,
		Caption:        rec.Caption,
		OriginID:       rec.OriginID,
		IndexedAt:      rec.IndexedAt,
		RetrievalCount: rec.RetrievalCount,
	}
}

func fileFromModel(m FileModel) domain.FileRecord {
	return domain.FileRecord{
		ContentKey:     m.ContentKey,
		DisplayName:    m.DisplayName,
		Kind:           domain.FileKind(m.Kind),
		SizeBytes:      m.SizeBytes,
		Caption:        m.Caption,
		OriginID:       m.OriginID,
		IndexedAt:      m.IndexedAt,
		RetrievalCount: m.RetrievalCount,
	}
}

func filesFromModels(models []FileModel) []domain.FileRecord {
	res := make([]domain.FileRecord, 0, len(models))
	for _, m := range models {
		res = append(res, fileFromModel(m))
	}
	return res
}

func userToModel(u domain.UserRecord) UserModel {
	return UserModel{
		UserID:      u.UserID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		FirstSeenAt: u.FirstSeenAt,
		LastSeenAt:  u.LastSeenAt,
	}
}
