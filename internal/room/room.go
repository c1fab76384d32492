// Package room abstracts the real-time media room a call session joins.
//
// The session core never talks to a media SDK directly; it consumes the
// Room interface below and reacts to the events the transport delivers.
// Implementations: the production media SDK adapter lives outside this
// module, a scripted fake lives in the call package tests.
package room

import "context"

// EventKind identifies a room-level event.
type EventKind int

const (
	// EventConnected indicates the local participant joined the room.
	EventConnected EventKind = iota
	// EventParticipantConnected indicates a remote participant joined.
	EventParticipantConnected
	// EventParticipantDisconnected indicates a remote participant left.
	EventParticipantDisconnected
	// EventDisconnected indicates the room connection closed.
	EventDisconnected
	// EventConnectionQualityChanged reports a transport quality change.
	EventConnectionQualityChanged
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "Connected"
	case EventParticipantConnected:
		return "ParticipantConnected"
	case EventParticipantDisconnected:
		return "ParticipantDisconnected"
	case EventDisconnected:
		return "Disconnected"
	case EventConnectionQualityChanged:
		return "ConnectionQualityChanged"
	default:
		return "Unknown"
	}
}

// Participant is the transport's view of one room member.
type Participant struct {
	SID      string
	Identity string
}

// Event is a single room event as delivered by the transport, in the
// order the transport emits them.
type Event struct {
	Kind        EventKind
	Participant Participant
	// Quality carries the new quality label for
	// EventConnectionQualityChanged, empty otherwise.
	Quality string
}

// Credentials carries what the transport needs to join a room.
type Credentials struct {
	URL   string
	Token string
}

// ConnectOptions configures the media published on join.
type ConnectOptions struct {
	Audio         bool
	Video         bool
	AutoSubscribe bool
}

// Room is the media transport collaborator. Connect is the only call
// that awaits the remote end; everything else is best effort.
type Room interface {
	// OnEvent registers the handler receiving room events. Must be set
	// before Connect. Events are delivered one at a time, in transport
	// order.
	OnEvent(handler func(Event))

	// Connect joins the room and starts delivering events to the
	// registered handler. It returns once the connect request has been
	// handed to the transport; the Connected event confirms the join.
	Connect(ctx context.Context, creds Credentials, opts ConnectOptions) error

	// Disconnect leaves the room. Safe to call when not connected.
	Disconnect()

	// SetMicrophoneEnabled toggles the local audio track.
	SetMicrophoneEnabled(ctx context.Context, enabled bool) error

	// SetCameraEnabled toggles the local video track.
	SetCameraEnabled(ctx context.Context, enabled bool) error

	// RemoteParticipants returns the transport's current remote roster.
	RemoteParticipants() []Participant

	// LocalParticipant returns the transport's local participant, valid
	// after the Connected event.
	LocalParticipant() Participant
}
