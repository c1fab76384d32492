package call

import "log/slog"

// policy encodes the per-call-type transition rules applied by the
// session's event dispatcher. One policy is selected at connect time
// and holds for the call's duration.
//
// Each hook returns the target state plus an optional connection
// status override. When override is false the count-derived status
// from StatusForCount stands.
type policy interface {
	// onConnected runs after the local join is confirmed.
	onConnected(remotePresent bool) (State, ConnectionStatus, bool)

	// onParticipantJoined runs after a remote participant was added to
	// the roster. Returning the current state with override false is a
	// no-op transition.
	onParticipantJoined(current State, identity string, remotePresent bool) (State, ConnectionStatus, bool)
}

// policyFor returns the policy for a call type.
func policyFor(t Type, log *slog.Logger) policy {
	switch t {
	case TypeCustomer:
		return customerPolicy{log: log}
	case TypeDriver:
		return driverPolicy{log: log}
	default:
		return supportPolicy{log: log}
	}
}

// customerPolicy drives the outgoing customer→driver call.
type customerPolicy struct {
	log *slog.Logger
}

func (p customerPolicy) onConnected(remotePresent bool) (State, ConnectionStatus, bool) {
	if remotePresent {
		p.log.Debug("[Session] Remote already present on connect, call active")
		return StateInCall, StatusCallActive, true
	}
	return StateWaitingForAcceptance, StatusIdle, false
}

func (p customerPolicy) onParticipantJoined(current State, identity string, remotePresent bool) (State, ConnectionStatus, bool) {
	// Identity matching is advisory; any remote participant moves the
	// customer into the call.
	if identityMatchesRole(identity, "driver") {
		p.log.Debug("[Session] Driver joined", "identity", identity)
		return StateInCall, StatusCallActive, true
	}
	if remotePresent {
		p.log.Debug("[Session] Remote joined without driver identity, treating as driver", "identity", identity)
		return StateInCall, StatusCallActive, true
	}
	return current, StatusIdle, false
}

// driverPolicy drives the incoming customer→driver call as seen by
// the driver device.
type driverPolicy struct {
	log *slog.Logger
}

func (p driverPolicy) onConnected(remotePresent bool) (State, ConnectionStatus, bool) {
	if remotePresent {
		p.log.Debug("[Session] Customer already present on connect, awaiting driver acceptance")
		return StateWaitingForDriverAcceptance, StatusMultipleParticipants, true
	}
	return StateConnected, StatusIdle, false
}

func (p driverPolicy) onParticipantJoined(current State, identity string, remotePresent bool) (State, ConnectionStatus, bool) {
	if identityMatchesRole(identity, "customer") {
		p.log.Debug("[Session] Customer joined, awaiting driver acceptance", "identity", identity)
		return StateWaitingForDriverAcceptance, StatusMultipleParticipants, true
	}
	// Covers the case where the driver UI already signaled acceptance
	// before the customer landed in the room.
	if remotePresent {
		p.log.Debug("[Session] Remote joined, driver already accepted", "identity", identity)
		return StateInCall, StatusCallActive, true
	}
	return current, StatusIdle, false
}

// supportPolicy drives the customer→support call over the telephony
// bridge. The remote side is a bridged agent, not an app client.
type supportPolicy struct {
	log *slog.Logger
}

func (p supportPolicy) onConnected(bool) (State, ConnectionStatus, bool) {
	// The bridge dials out after we join, so support calls always wait.
	return StateWaitingForAcceptance, StatusIdle, false
}

func (p supportPolicy) onParticipantJoined(current State, identity string, remotePresent bool) (State, ConnectionStatus, bool) {
	if identityMatchesRole(identity, "sip") || identityMatchesRole(identity, "support") {
		p.log.Debug("[Session] Bridge participant joined", "identity", identity)
		return StateInCall, StatusCallActive, true
	}
	if remotePresent {
		p.log.Debug("[Session] Remote joined without bridge identity, treating as agent", "identity", identity)
		return StateInCall, StatusCallActive, true
	}
	return current, StatusIdle, false
}
