package domain

import "time"

type FileKind string

const (
	KindDocument FileKind = "document"
	KindVideo    FileKind = "video"
	KindAudio    FileKind = "audio"
	KindPhoto    FileKind = "photo"
	KindOther    FileKind = "other"
)

// FileRecord is a catalog entry keyed by the transport-assigned content key.
// IndexedAt and RetrievalCount are set on first insert and survive re-indexing.
type FileRecord struct {
	ContentKey     string    `json:"contentKey"`
	DisplayName    string    `json:"displayName"`
	Kind           FileKind  `json:"kind"`
	SizeBytes      int64     `json:"sizeBytes"`
	Caption        string    `json:"caption,omitempty"`
	OriginID       int64     `json:"originId"`
	IndexedAt      time.Time `json:"indexedAt"`
	RetrievalCount int64     `json:"retrievalCount"`
}

// UserRecord is a known end user. LastSeenAt refreshes on every interaction.
type UserRecord struct {
	UserID      int64     `json:"userId"`
	Handle      string    `json:"handle,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

// BanEntry records a ban decision. Presence of the entry is the sole
// source of truth for ban status.
type BanEntry struct {
	UserID   int64     `json:"userId"`
	BannedAt time.Time `json:"bannedAt"`
	BannedBy int64     `json:"bannedBy"`
}

// GroupRecord is a chat the bot has joined.
type GroupRecord struct {
	GroupID  int64     `json:"groupId"`
	Title    string    `json:"title"`
	JoinedAt time.Time `json:"joinedAt"`
	AddedBy  int64     `json:"addedBy"`
}

// MediaEvent is an inbound media message with a uniform accessor surface
// across kinds. ContentID is the transport-assigned identifier for the
// underlying binary content.
type MediaEvent struct {
	Kind        FileKind `json:"kind"`
	ContentID   string   `json:"contentId"`
	DisplayName string   `json:"displayName,omitempty"`
	SizeBytes   int64    `json:"sizeBytes"`
	Caption     string   `json:"caption,omitempty"`
	OriginID    int64    `json:"originId"`
	ActorID     int64    `json:"actorId"`
}

// BroadcastTally aggregates the outcome of one broadcast run.
type BroadcastTally struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Attempted is the number of recipients the run reached.
func (t BroadcastTally) Attempted() int {
	return t.Success + t.Failed + t.Skipped
}
