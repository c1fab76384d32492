// Package history derives terminal call records from session
// lifecycle boundaries and keeps a capped, newest-first call log
// behind a pluggable store.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sebas/ridecall/internal/call"
)

// Status is the disposition of a finished call.
type Status string

const (
	// StatusCompleted means the call connected and ended normally.
	StatusCompleted Status = "completed"
	// StatusMissed means the call rang but was never answered.
	StatusMissed Status = "missed"
	// StatusCancelled means the caller gave up before the call connected.
	StatusCancelled Status = "cancelled"
	// StatusFailed means the call could not be established.
	StatusFailed Status = "failed"
)

// CallRecord is one finished call. Immutable once closed.
type CallRecord struct {
	ID          string    `json:"id"`
	CallType    call.Type `json:"call_type"`
	ContactName string    `json:"contact_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time,omitzero"`
	// Duration is the call length in whole seconds, computed at close.
	Duration int64  `json:"duration"`
	Status   Status `json:"status"`
}

// newRecord creates a pending record with no end time.
func newRecord(callType call.Type, contactName string, start time.Time) CallRecord {
	return CallRecord{
		ID:          uuid.NewString(),
		CallType:    callType,
		ContactName: contactName,
		StartTime:   start,
		Status:      StatusCompleted,
	}
}

// FormatDuration renders a duration in seconds as MM:SS, or HH:MM:SS
// for calls an hour or longer.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatCallTime renders a call timestamp for list display.
func FormatCallTime(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("Jan 02, 15:04")
}
