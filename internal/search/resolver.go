// Package search resolves free-text queries against the catalog.
package search

import (
	"log/slog"
	"strings"

	"autofilterbot/pkg/domain"
)

// DefaultLimit applies when a caller passes a non-positive limit. It
// matches the browse-mode page size of the command surface.
const DefaultLimit = 10

// Store is the slice of the record store the resolver reads.
type Store interface {
	SearchFiles(query string, limit int) ([]domain.FileRecord, error)
	RecentFiles(limit int) ([]domain.FileRecord, error)
}

// Resolver turns a free-text query into a limited set of catalog records.
type Resolver struct {
	store Store
}

// New builds a resolver over the record store.
func New(store Store) *Resolver {
	return &Resolver{store: store}
}

// Search evaluates the query once. An empty or whitespace query is browse
// mode: the limit most recently indexed records, newest first. Non-empty
// queries match case-insensitively against display name or caption in
// store-native order. Store failures degrade to an empty result; no
// results is the empty slice, never an error.
func (r *Resolver) Search(queryText string, limit int) []domain.FileRecord {
	if limit <= 0 {
		limit = DefaultLimit
	}
	queryText = strings.TrimSpace(queryText)

	var (
		records []domain.FileRecord
		err     error
	)
	if queryText == "" {
		records, err = r.store.RecentFiles(limit)
	} else {
		records, err = r.store.SearchFiles(queryText, limit)
	}
	if err != nil {
		slog.Warn("catalog search failed", "query", queryText, "err", err)
		return nil
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records
}
