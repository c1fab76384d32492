// Package types defines shared API types for the callerd HTTP surface.
package types

// HealthResponse is the response from /api/v1/health
type HealthResponse struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime"`
}

// SessionResponse describes the current call session.
type SessionResponse struct {
	CallType         string `json:"call_type"`
	State            string `json:"state"`
	Status           string `json:"status"`
	ParticipantCount int    `json:"participant_count"`
	StartTime        string `json:"start_time,omitempty"`
	DurationSeconds  int64  `json:"duration_seconds"`
	Display          string `json:"display"`
}

// Participant is one roster entry of the current call.
type Participant struct {
	SID         string `json:"sid"`
	Identity    string `json:"identity"`
	IsLocal     bool   `json:"is_local"`
	Type        string `json:"type"`
	ConnectedAt string `json:"connected_at"`
}

// CallRecord is one finished call in the history.
type CallRecord struct {
	ID          string `json:"id"`
	CallType    string `json:"call_type"`
	ContactName string `json:"contact_name"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	Duration    int64  `json:"duration"`
	DurationHMS string `json:"duration_hms"`
	Status      string `json:"status"`
}

// ActionResponse acknowledges a session action.
type ActionResponse struct {
	OK    bool   `json:"ok"`
	State string `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}
