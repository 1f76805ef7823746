package store

import "time"

// GORM models used for persistence.
type FileModel struct {
	ContentKey     string `gorm:"primaryKey"`
	DisplayName    string `gorm:"not null;index"`
	Kind           string `gorm:"not null"`
	SizeBytes      int64  `gorm:"not null"`
	Caption        string
	OriginID       int64     `gorm:"not null;index"`
	IndexedAt      time.Time `gorm:"not null;index"`
	RetrievalCount int64     `gorm:"not null;default:0"`
}

func (FileModel) TableName() string { return "files" }

type UserModel struct {
	UserID      int64 `gorm:"primaryKey"`
	Handle      string
	DisplayName string
	FirstSeenAt time.Time `gorm:"not null;index"`
	LastSeenAt  time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type BanModel struct {
	UserID   int64     `gorm:"primaryKey"`
	BannedAt time.Time `gorm:"not null"`
	BannedBy int64     `gorm:"not null"`
}

func (BanModel) TableName() string { return "banned_users" }

type GroupModel struct {
	GroupID  int64  `gorm:"primaryKey"`
	Title    string `gorm:"not null"`
	JoinedAt time.Time
	AddedBy  int64
}

func (GroupModel) TableName() string { return "groups" }
