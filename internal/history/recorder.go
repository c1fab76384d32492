package history

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sebas/ridecall/internal/call"
)

const (
	// maxEntries caps the stored history; the oldest record is evicted.
	maxEntries = 100

	// minDuration filters out instantaneous or failed connects; calls
	// shorter than this are treated as noise and never persisted.
	minDuration = 3 * time.Second
)

// Recorder turns session lifecycle boundaries into persisted call
// records. At most one record is pending at a time.
type Recorder struct {
	mu      sync.Mutex
	store   Store
	log     *slog.Logger
	pending *CallRecord
}

// NewRecorder creates a recorder backed by the given store.
func NewRecorder(store Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{store: store, log: log}
}

// Open starts a pending record for a call that just connected. A
// second Open replaces the pending record.
func (r *Recorder) Open(callType call.Type, contactName string, start time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := newRecord(callType, contactName, start)
	r.pending = &rec
	r.log.Debug("[History] Record opened", "id", rec.ID, "type", callType, "contact", contactName)
}

// Close finalizes the pending record with StatusCompleted. No-op when
// nothing is pending.
func (r *Recorder) Close(end time.Time) {
	r.CloseWithStatus(end, StatusCompleted)
}

// CloseWithStatus finalizes the pending record, computing the
// duration and persisting it unless the call was too short to matter.
func (r *Recorder) CloseWithStatus(end time.Time, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return
	}
	rec := *r.pending
	r.pending = nil

	elapsed := end.Sub(rec.StartTime)
	if elapsed < minDuration {
		r.log.Debug("[History] Discarding short call", "id", rec.ID, "elapsed", elapsed)
		return
	}

	rec.EndTime = end
	rec.Duration = int64(elapsed / time.Second)
	rec.Status = status

	if err := r.add(rec); err != nil {
		r.log.Error("[History] Failed to persist record", "id", rec.ID, "error", err)
		return
	}
	r.log.Info("[History] Call saved", "id", rec.ID, "duration_s", rec.Duration, "status", status)
}

// Discard drops the pending record without persisting it.
func (r *Recorder) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
}

// add prepends a record and evicts beyond the cap. Caller holds r.mu.
func (r *Recorder) add(rec CallRecord) error {
	records, err := r.store.Load()
	if err != nil {
		return err
	}
	records = append([]CallRecord{rec}, records...)
	if len(records) > maxEntries {
		records = records[:maxEntries]
	}
	return r.store.Save(records)
}

// History returns all stored records, newest first.
func (r *Recorder) History() ([]CallRecord, error) {
	return r.store.Load()
}

// ClearHistory removes every stored record.
func (r *Recorder) ClearHistory() error {
	r.log.Info("[History] Clearing call history")
	return r.store.Clear()
}
