package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sebas/ridecall/internal/call"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	store := NewFileStore(path)

	// Missing file reads as an empty history.
	records, err := store.Load()
	if err != nil {
		t.Fatalf("Load() on missing file error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("missing file returned %d records", len(records))
	}

	start := time.Now().Truncate(time.Second)
	rec := newRecord(call.TypeSupport, "Support", start)
	rec.EndTime = start.Add(time.Minute)
	rec.Duration = 60

	if err := store.Save([]CallRecord{rec}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d records, want 1", len(loaded))
	}
	got := loaded[0]
	if got.ID != rec.ID || got.Duration != 60 || got.CallType != call.TypeSupport {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.StartTime.Equal(rec.StartTime) {
		t.Errorf("StartTime = %v, want %v", got.StartTime, rec.StartTime)
	}
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewFileStore(path)

	rec := newRecord(call.TypeCustomer, "Driver", time.Now())
	if err := store.Save([]CallRecord{rec}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	records, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after clear error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("clear left %d records", len(records))
	}
	// Clearing an already empty store is fine.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}

func TestMemoryStoreCopiesOnLoad(t *testing.T) {
	store := NewMemoryStore()
	rec := newRecord(call.TypeCustomer, "Driver", time.Now())
	if err := store.Save([]CallRecord{rec}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, _ := store.Load()
	loaded[0].ContactName = "mutated"

	again, _ := store.Load()
	if again[0].ContactName != "Driver" {
		t.Error("Load() exposed internal slice to mutation")
	}
}
