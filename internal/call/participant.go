package call

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParticipantType is the role inferred for a room participant.
type ParticipantType int

const (
	// ParticipantCustomer is a rider endpoint.
	ParticipantCustomer ParticipantType = iota
	// ParticipantDriver is a driver endpoint.
	ParticipantDriver
	// ParticipantSupport is a support/bridge endpoint.
	ParticipantSupport
	// ParticipantUnknown is a participant whose identity carries no
	// recognized role prefix.
	ParticipantUnknown
)

// String returns the string representation of the participant type.
func (t ParticipantType) String() string {
	switch t {
	case ParticipantCustomer:
		return "Customer"
	case ParticipantDriver:
		return "Driver"
	case ParticipantSupport:
		return "Support"
	case ParticipantUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// ParticipantInfo is one roster entry, unique by SID within a session.
type ParticipantInfo struct {
	SID         string          `json:"sid"`
	Identity    string          `json:"identity"`
	IsLocal     bool            `json:"is_local"`
	Type        ParticipantType `json:"type"`
	ConnectedAt time.Time       `json:"connected_at"`
}

// ParticipantTypeFromIdentity derives a role from the identity prefix.
// Identities are role-prefixed by the backend ("customer_...",
// "driver_...", "support_..."). This is advisory only: state
// transitions key off remote presence, not off the derived role.
func ParticipantTypeFromIdentity(identity string) ParticipantType {
	switch {
	case strings.HasPrefix(identity, "customer_"):
		return ParticipantCustomer
	case strings.HasPrefix(identity, "driver_"):
		return ParticipantDriver
	case strings.HasPrefix(identity, "support_"):
		return ParticipantSupport
	default:
		return ParticipantUnknown
	}
}

// identityMatchesRole reports whether an identity looks like the given
// role. Substring match, mirroring how the backend labels bridge
// participants ("sip_...") and app participants ("driver_...").
func identityMatchesRole(identity, role string) bool {
	return strings.Contains(identity, role)
}

// newLocalParticipant builds the roster entry for the local side. The
// transport does not expose a stable SID before the join completes, so
// the session mints its own and derives the identity from the call type.
func newLocalParticipant(t Type, transportIdentity string, now time.Time) ParticipantInfo {
	identity := transportIdentity
	if identity == "" {
		switch t {
		case TypeCustomer:
			identity = "customer_" + uuid.NewString()
		case TypeDriver:
			identity = "driver_" + uuid.NewString()
		default:
			identity = "support_" + uuid.NewString()
		}
	}
	return ParticipantInfo{
		SID:         "sid_local_" + uuid.NewString(),
		Identity:    identity,
		IsLocal:     true,
		Type:        ParticipantTypeFromIdentity(identity),
		ConnectedAt: now,
	}
}

// newRemoteParticipant builds the roster entry for a remote join.
func newRemoteParticipant(sid, identity string, now time.Time) ParticipantInfo {
	if sid == "" {
		sid = "sid_remote_" + uuid.NewString()
	}
	if identity == "" {
		identity = "remote_" + uuid.NewString()
	}
	return ParticipantInfo{
		SID:         sid,
		Identity:    identity,
		IsLocal:     false,
		Type:        ParticipantTypeFromIdentity(identity),
		ConnectedAt: now,
	}
}

// roster is the locally tracked participant list, ordered by join time
// with the local participant first.
type roster struct {
	entries []ParticipantInfo
}

// reset empties the roster.
func (r *roster) reset() {
	r.entries = nil
}

// setLocal replaces the roster with the local participant alone.
func (r *roster) setLocal(p ParticipantInfo) {
	r.entries = []ParticipantInfo{p}
}

// add appends a participant, replacing any entry with the same SID.
func (r *roster) add(p ParticipantInfo) {
	for i, e := range r.entries {
		if e.SID == p.SID {
			r.entries[i] = p
			return
		}
	}
	r.entries = append(r.entries, p)
}

// removeBySID removes a participant by SID, if present.
func (r *roster) removeBySID(sid string) {
	for i, e := range r.entries {
		if e.SID == sid {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// size returns the total participant count, local included.
func (r *roster) size() int {
	return len(r.entries)
}

// remoteCount returns the number of remote participants.
func (r *roster) remoteCount() int {
	n := 0
	for _, e := range r.entries {
		if !e.IsLocal {
			n++
		}
	}
	return n
}

// hasType reports whether any entry carries the given role.
func (r *roster) hasType(t ParticipantType) bool {
	for _, e := range r.entries {
		if e.Type == t {
			return true
		}
	}
	return false
}

// snapshot returns a copy of the roster entries.
func (r *roster) snapshot() []ParticipantInfo {
	out := make([]ParticipantInfo, len(r.entries))
	copy(out, r.entries)
	return out
}

// details formats the roster as "Type(identity), Type(identity)".
func (r *roster) details() string {
	parts := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		identity := e.Identity
		if identity == "" {
			identity = "unknown"
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", e.Type, identity))
	}
	return strings.Join(parts, ", ")
}
