package call

import "fmt"

// Type identifies the role this device plays in the current call.
type Type int

const (
	// TypeCustomer is a rider placing or receiving a call.
	TypeCustomer Type = iota
	// TypeDriver is a driver placing or receiving a call.
	TypeDriver
	// TypeSupport is a call to the support desk over the telephony bridge.
	TypeSupport
)

// String returns the string representation of the call type.
func (t Type) String() string {
	switch t {
	case TypeCustomer:
		return "Customer"
	case TypeDriver:
		return "Driver"
	case TypeSupport:
		return "Support"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// ContactName returns the display name used for history records of
// calls of this type.
func (t Type) ContactName() string {
	switch t {
	case TypeCustomer:
		return "Customer"
	case TypeDriver:
		return "Driver"
	case TypeSupport:
		return "Support"
	default:
		return "Unknown"
	}
}

// State is the externally observed lifecycle state of a call session.
// Exactly one value holds at a time.
type State int

const (
	// StateIdle means no call is in progress.
	StateIdle State = iota
	// StateConnecting means a connect request is in flight.
	StateConnecting
	// StateConnected means the room join was confirmed but the call has
	// not been established yet.
	StateConnected
	// StateWaitingForAcceptance means the caller is waiting for the
	// remote side to join (customer outgoing, support bridge dialing).
	StateWaitingForAcceptance
	// StateWaitingForDriverAcceptance means the customer is in the room
	// and the driver must accept to proceed.
	StateWaitingForDriverAcceptance
	// StateIncomingCall means a push-signaled call is ringing locally,
	// ahead of any room connection.
	StateIncomingCall
	// StateInCall means the call is established.
	StateInCall
	// StateError means the last connect attempt failed.
	StateError
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateWaitingForAcceptance:
		return "WaitingForAcceptance"
	case StateWaitingForDriverAcceptance:
		return "WaitingForDriverAcceptance"
	case StateIncomingCall:
		return "IncomingCall"
	case StateInCall:
		return "InCall"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// IsTerminal returns true if no further room events may move the
// session out of this state on their own.
func (s State) IsTerminal() bool {
	return s == StateIdle || s == StateError
}

// Acceptable returns true if AcceptCall is valid from this state.
func (s State) Acceptable() bool {
	return s == StateIncomingCall || s == StateWaitingForDriverAcceptance
}

// ConnectionStatus is the room-level connection status, derived purely
// from the roster size.
type ConnectionStatus int

const (
	// StatusIdle means no room connection exists.
	StatusIdle ConnectionStatus = iota
	// StatusConnecting means the room connection is being established.
	StatusConnecting
	// StatusConnected means only the local participant is in the room.
	StatusConnected
	// StatusMultipleParticipants means two participants are in the room.
	StatusMultipleParticipants
	// StatusCallActive means more than two participants are in the room.
	StatusCallActive
	// StatusDisconnected means the room connection closed.
	StatusDisconnected
	// StatusError means the room connection failed.
	StatusError
)

// String returns the string representation of the connection status.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	case StatusMultipleParticipants:
		return "MultipleParticipants"
	case StatusCallActive:
		return "CallActive"
	case StatusDisconnected:
		return "Disconnected"
	case StatusError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// StatusForCount derives the connection status from the total
// participant count, local included. Recomputed on every roster change.
func StatusForCount(count int) ConnectionStatus {
	switch {
	case count == 1:
		return StatusConnected
	case count == 2:
		return StatusMultipleParticipants
	case count > 2:
		return StatusCallActive
	default:
		return StatusConnected
	}
}
