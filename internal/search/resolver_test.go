package search

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"autofilterbot/internal/store"
	"autofilterbot/pkg/domain"
)

func seedCatalog(t *testing.T, mem *store.MemoryStore, n int) []domain.FileRecord {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := make([]domain.FileRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := domain.FileRecord{
			ContentKey:  fmt.Sprintf("key-%d", i),
			DisplayName: fmt.Sprintf("Movie.%03d.mkv", i),
			Kind:        domain.KindVideo,
			IndexedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := mem.SaveFile(rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
		recs = append(recs, rec)
	}
	return recs
}

func TestSearchBrowseModeReturnsNewestFirst(t *testing.T) {
	mem := store.NewMemoryStore()
	seedCatalog(t, mem, 10)
	r := New(mem)

	got := r.Search("", 5)
	if len(got) != 5 {
		t.Fatalf("got %d records, want 5", len(got))
	}
	for i, rec := range got {
		want := fmt.Sprintf("key-%d", 9-i)
		if rec.ContentKey != want {
			t.Fatalf("position %d: got %s, want %s", i, rec.ContentKey, want)
		}
	}
}

func TestSearchSubstringMatchesNameOrCaption(t *testing.T) {
	mem := store.NewMemoryStore()
	files := []domain.FileRecord{
		{ContentKey: "a", DisplayName: "The.Forward.2024.mkv"},
		{ContentKey: "b", DisplayName: "Other.mkv", Caption: "forward slash edition"},
		{ContentKey: "c", DisplayName: "Backward.mkv", Caption: "nothing here"},
	}
	for _, f := range files {
		if err := mem.SaveFile(f); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	r := New(mem)

	got := r.Search("forward", 10)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	keys := map[string]bool{}
	for _, rec := range got {
		keys[rec.ContentKey] = true
	}
	if !keys["a"] || !keys["b"] || keys["c"] {
		t.Fatalf("unexpected match set: %v", keys)
	}
}

func TestSearchNeverExceedsLimit(t *testing.T) {
	mem := store.NewMemoryStore()
	seedCatalog(t, mem, 10)
	r := New(mem)

	if got := r.Search("movie", 3); len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
}

func TestSearchNoResultsIsEmptyNotError(t *testing.T) {
	r := New(store.NewMemoryStore())
	if got := r.Search("nothing", 10); len(got) != 0 {
		t.Fatalf("got %d records, want 0", len(got))
	}
}

type failingCatalog struct{}

func (failingCatalog) SearchFiles(string, int) ([]domain.FileRecord, error) {
	return nil, errors.New("connection refused")
}

func (failingCatalog) RecentFiles(int) ([]domain.FileRecord, error) {
	return nil, errors.New("connection refused")
}

func TestSearchDegradesToEmptyOnStoreFailure(t *testing.T) {
	r := New(failingCatalog{})
	if got := r.Search("anything", 10); got != nil {
		t.Fatalf("got %v, want nil on store failure", got)
	}
	if got := r.Search("", 10); got != nil {
		t.Fatalf("browse: got %v, want nil on store failure", got)
	}
}

func TestSearchDefaultsNonPositiveLimit(t *testing.T) {
	mem := store.NewMemoryStore()
	seedCatalog(t, mem, 20)
	r := New(mem)
	if got := r.Search("", 0); len(got) != DefaultLimit {
		t.Fatalf("got %d records, want %d", len(got), DefaultLimit)
	}
}
