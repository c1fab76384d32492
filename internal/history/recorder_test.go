package history

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sebas/ridecall/internal/call"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorderDiscardsShortCalls(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, testLogger())

	start := time.Now()
	r.Open(call.TypeCustomer, "Driver", start)
	r.Close(start.Add(2999 * time.Millisecond))

	records, err := r.History()
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("short call persisted: %d records", len(records))
	}
}

func TestRecorderPersistsCompletedCall(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, testLogger())

	start := time.Now()
	r.Open(call.TypeCustomer, "Driver", start)
	r.Close(start.Add(4500 * time.Millisecond))

	records, err := r.History()
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Duration != 4 {
		t.Errorf("Duration = %d, want 4 (whole seconds)", rec.Duration)
	}
	if rec.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", rec.Status)
	}
	if rec.CallType != call.TypeCustomer {
		t.Errorf("CallType = %v, want Customer", rec.CallType)
	}
	if rec.ContactName != "Driver" {
		t.Errorf("ContactName = %q, want Driver", rec.ContactName)
	}
	if rec.ID == "" {
		t.Error("record has no ID")
	}
	if rec.EndTime.IsZero() {
		t.Error("record has no end time")
	}
}

func TestRecorderCloseWithoutOpenIsNoop(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, testLogger())

	r.Close(time.Now())
	records, _ := r.History()
	if len(records) != 0 {
		t.Errorf("close without open persisted %d records", len(records))
	}
}

func TestRecorderCloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, testLogger())

	start := time.Now()
	r.Open(call.TypeCustomer, "Driver", start)
	end := start.Add(10 * time.Second)
	r.Close(end)
	r.Close(end)

	records, _ := r.History()
	if len(records) != 1 {
		t.Errorf("double close persisted %d records, want 1", len(records))
	}
}

func TestRecorderSecondOpenReplacesPending(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, testLogger())

	start := time.Now()
	r.Open(call.TypeCustomer, "Driver", start)
	r.Open(call.TypeSupport, "Support", start)
	r.Close(start.Add(5 * time.Second))

	records, _ := r.History()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].CallType != call.TypeSupport {
		t.Errorf("CallType = %v, want Support", records[0].CallType)
	}
}

func TestRecorderCloseWithStatus(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, testLogger())

	start := time.Now()
	r.Open(call.TypeDriver, "Customer", start)
	r.CloseWithStatus(start.Add(5*time.Second), StatusMissed)

	records, _ := r.History()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Status != StatusMissed {
		t.Errorf("Status = %q, want missed", records[0].Status)
	}
}

func TestRecorderDiscard(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, testLogger())

	start := time.Now()
	r.Open(call.TypeCustomer, "Driver", start)
	r.Discard()
	r.Close(start.Add(time.Minute))

	records, _ := r.History()
	if len(records) != 0 {
		t.Errorf("discarded call persisted %d records", len(records))
	}
}

func TestRecorderPrependsAndCapsHistory(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, testLogger())

	// Fill to the cap.
	seed := make([]CallRecord, maxEntries)
	base := time.Now().Add(-time.Hour)
	for i := range seed {
		seed[i] = newRecord(call.TypeCustomer, "Driver", base)
		seed[i].Duration = int64(i)
	}
	if err := store.Save(seed); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	start := time.Now()
	r.Open(call.TypeDriver, "Customer", start)
	r.Close(start.Add(5 * time.Second))

	records, _ := r.History()
	if len(records) != maxEntries {
		t.Fatalf("got %d records, want %d", len(records), maxEntries)
	}
	if records[0].CallType != call.TypeDriver {
		t.Errorf("newest record not first, got %v", records[0].CallType)
	}
	// The oldest seeded record fell off the end.
	if records[len(records)-1].Duration != int64(maxEntries-2) {
		t.Errorf("oldest record duration = %d, want %d", records[len(records)-1].Duration, maxEntries-2)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00"},
		{-5, "00:00"},
		{59, "00:59"},
		{65, "01:05"},
		{3599, "59:59"},
		{3600, "01:00:00"},
		{3725, "01:02:05"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatCallTime(t *testing.T) {
	if got := FormatCallTime(time.Time{}); got != "Unknown" {
		t.Errorf("FormatCallTime(zero) = %q, want Unknown", got)
	}
	ts := time.Date(2025, time.March, 7, 14, 5, 0, 0, time.UTC)
	if got := FormatCallTime(ts); got != "Mar 07, 14:05" {
		t.Errorf("FormatCallTime = %q, want %q", got, "Mar 07, 14:05")
	}
}
