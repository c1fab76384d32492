package call

import (
	"fmt"
	"log/slog"
)

// Monitor is a read-only facade over a Session for status displays
// and diagnostics.
type Monitor struct {
	session *Session
	log     *slog.Logger
}

// NewMonitor creates a monitor for the given session.
func NewMonitor(session *Session, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{session: session, log: log}
}

// FormattedStatus renders the room status for display.
func (m *Monitor) FormattedStatus() string {
	snap := m.session.Snapshot()
	switch snap.Status {
	case StatusIdle:
		return "Not connected to room"
	case StatusConnecting:
		return "Connecting to room..."
	case StatusConnected:
		return fmt.Sprintf("Connected to room (%d participants)", snap.ParticipantCount)
	case StatusMultipleParticipants:
		return "Multiple participants: " + m.session.ParticipantDetails()
	case StatusCallActive:
		return "Call active: " + m.session.ParticipantDetails()
	case StatusDisconnected:
		return "Disconnected from room"
	default:
		return "Connection error"
	}
}

// IsCallActive reports whether a customer↔driver call is up.
func (m *Monitor) IsCallActive() bool {
	return m.session.IsCustomerDriverCallActive()
}

// LogRoomStatus dumps the current room status to the log.
func (m *Monitor) LogRoomStatus() {
	snap := m.session.Snapshot()
	m.log.Debug("[Monitor] Room status",
		"status", snap.Status,
		"state", snap.State,
		"participants", snap.ParticipantCount,
		"details", m.session.ParticipantDetails(),
		"customer_and_driver", m.session.HasCustomerAndDriver(),
		"call_active", m.session.IsCustomerDriverCallActive(),
	)
}
