// Package indexer normalizes inbound media events into catalog records.
package indexer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"autofilterbot/pkg/domain"
)

var (
	// ErrUnauthorizedOrigin is returned for events that come from neither a
	// designated source feed nor a privileged actor. This is the write-side
	// authorization boundary; the gate governs reads.
	ErrUnauthorizedOrigin = errors.New("origin not authorized to index files")

	// ErrUnsupportedMedia is returned for events without a recognized kind.
	ErrUnsupportedMedia = errors.New("unsupported media kind")

	// ErrStoreUnavailable wraps record-store failures on the write path.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// Store is the slice of the record store the indexer writes to.
type Store interface {
	SaveFile(rec domain.FileRecord) error
}

// Indexer converts media events into catalog records and upserts them.
type Indexer struct {
	store       Store
	brandingTag string
}

// New builds an indexer with the configured branding suffix.
func New(store Store, brandingTag string) *Indexer {
	return &Indexer{store: store, brandingTag: brandingTag}
}

// Index normalizes the event and upserts it keyed by content key. The
// store is the sole conflict-resolution point: mutable fields win on
// re-index, IndexedAt and RetrievalCount stay from the first insert.
// No retry here; the store adapter owns its own retry policy.
func (ix *Indexer) Index(event domain.MediaEvent, privilegedOrigin bool) (domain.FileRecord, error) {
	if !privilegedOrigin {
		return domain.FileRecord{}, ErrUnauthorizedOrigin
	}
	if event.ContentID == "" {
		return domain.FileRecord{}, fmt.Errorf("%w: missing content id", ErrUnsupportedMedia)
	}
	switch event.Kind {
	case domain.KindDocument, domain.KindVideo, domain.KindAudio, domain.KindPhoto:
	default:
		return domain.FileRecord{}, fmt.Errorf("%w: %q", ErrUnsupportedMedia, event.Kind)
	}

	rec := domain.FileRecord{
		ContentKey:  event.ContentID,
		DisplayName: displayNameFor(event),
		Kind:        event.Kind,
		SizeBytes:   max64(event.SizeBytes, 0),
		Caption:     ix.brandCaption(event.Caption),
		OriginID:    event.OriginID,
		IndexedAt:   time.Now().UTC(),
	}
	if err := ix.store.SaveFile(rec); err != nil {
		return domain.FileRecord{}, fmt.Errorf("%w: save %s: %v", ErrStoreUnavailable, rec.ContentKey, err)
	}
	return rec, nil
}

// displayNameFor substitutes a kind-specific placeholder so search and
// display never operate on an empty name.
func displayNameFor(event domain.MediaEvent) string {
	if event.DisplayName != "" {
		return event.DisplayName
	}
	switch event.Kind {
	case domain.KindDocument:
		return "Unknown Document"
	case domain.KindVideo:
		return "Unknown Video"
	case domain.KindAudio:
		return "Unknown Audio"
	case domain.KindPhoto:
		return "Photo"
	}
	return "Unknown File"
}

// brandCaption appends the branding suffix unless it is already present,
// separated by a blank line only when a caption exists. Repeated
// re-indexing of the same content never grows the caption.
func (ix *Indexer) brandCaption(caption string) string {
	if ix.brandingTag == "" {
		return caption
	}
	if strings.Contains(caption, ix.brandingTag) {
		return caption
	}
	if caption == "" {
		return ix.brandingTag
	}
	return caption + "\n\n" + ix.brandingTag
}

func max64(v, floor int64) int64 {
	if v < floor {
		return floor
	}
	return v
}
