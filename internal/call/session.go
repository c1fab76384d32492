// Package call implements the call lifecycle state machine for one
// client of a ride-hailing voice service. A Session reconciles
// asynchronous room events (connect confirmation, participant joins
// and leaves, disconnects) with user actions (accept, decline, mute,
// hangup) into a single consistent call state, across the three call
// topologies: customer↔driver, driver↔customer, and customer↔support
// over the telephony bridge.
package call

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sebas/ridecall/internal/room"
)

// HistoryRecorder receives call lifecycle boundaries and turns them
// into persisted history records. Implemented by history.Recorder.
type HistoryRecorder interface {
	// Open starts a pending record. A second Open replaces the pending
	// record.
	Open(callType Type, contactName string, start time.Time)

	// Close finalizes and persists the pending record, if any. Safe to
	// call with no pending record.
	Close(end time.Time)
}

// BridgeAPI ends a bridged support call on the backend. Implemented
// by backend.Client.
type BridgeAPI interface {
	EndBridgeCall(ctx context.Context, participantIdentity, roomName string) error
}

// Snapshot is the observable state of a session at one point in time.
type Snapshot struct {
	Type             Type
	State            State
	Status           ConnectionStatus
	ParticipantCount int
	Participants     []ParticipantInfo
}

// Session is the single mutable call state machine. All public
// methods serialize on an internal mutex, so room-event callbacks and
// user actions may arrive from any goroutine; once Disconnect has
// forced Idle, later room events are no-ops instead of resurrecting a
// stale call.
type Session struct {
	mu sync.Mutex

	log      *slog.Logger
	room     room.Room
	recorder HistoryRecorder
	bridge   BridgeAPI

	callType  Type
	state     State
	status    ConnectionStatus
	roster    roster
	policy    policy
	callStart time.Time

	// Bridge teardown keys for support calls, held here instead of in
	// process-wide statics so they die with the session.
	bridgeIdentity string
	bridgeRoom     string

	observers map[chan Snapshot]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup
	closed bool
}

// Config wires a Session's collaborators.
type Config struct {
	Room     room.Room
	Recorder HistoryRecorder
	Bridge   BridgeAPI
	Logger   *slog.Logger
}

// NewSession creates an idle session.
func NewSession(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		log:       log,
		room:      cfg.Room,
		recorder:  cfg.Recorder,
		bridge:    cfg.Bridge,
		state:     StateIdle,
		status:    StatusIdle,
		policy:    policyFor(TypeDriver, log),
		observers: make(map[chan Snapshot]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// --- Observation ---

// Subscribe returns a channel that receives a snapshot after every
// state or roster change. Slow consumers drop updates rather than
// blocking the state machine.
func (s *Session) Subscribe() <-chan Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Snapshot, 16)
	s.observers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (s *Session) Unsubscribe(ch <-chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for o := range s.observers {
		if o == ch {
			delete(s.observers, o)
			close(o)
			return
		}
	}
}

// notifyLocked pushes the current snapshot to all observers. Caller
// holds s.mu.
func (s *Session) notifyLocked() {
	snap := s.snapshotLocked()
	for o := range s.observers {
		select {
		case o <- snap:
		default:
			s.log.Warn("[Session] Observer lagging, dropping update")
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Type:             s.callType,
		State:            s.state,
		Status:           s.status,
		ParticipantCount: s.roster.size(),
		Participants:     s.roster.snapshot(),
	}
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// --- Setup ---

// SetCallType fixes the role this device plays before connecting. For
// support calls the call timer starts immediately: the UI-level timer
// has no room-connected event to key off, because support audio is
// bridged externally.
func (s *Session) SetCallType(t Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callType = t
	s.policy = policyFor(t, s.log)
	s.log.Debug("[Session] Call type set", "type", t)
	if t == TypeSupport && s.callStart.IsZero() {
		s.callStart = time.Now()
		s.log.Debug("[Session] Call timer started for support call", "start", s.callStart)
	}
}

// SetBridgeCallInfo stores the keys needed to end a bridged support
// call on the backend. Cleared when Disconnect fires the teardown.
func (s *Session) SetBridgeCallInfo(participantIdentity, roomName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bridgeIdentity = participantIdentity
	s.bridgeRoom = roomName
}

// SignalIncomingCall moves an idle session to the ringing state in
// response to a push-delivered incoming call, ahead of any room
// connection.
func (s *Session) SignalIncomingCall(t Type, callerName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		s.log.Warn("[Session] Ignoring incoming call signal", "state", s.state, "caller", callerName)
		return
	}
	s.callType = t
	s.policy = policyFor(t, s.log)
	s.state = StateIncomingCall
	s.log.Info("[Session] Incoming call", "type", t, "caller", callerName)
	s.notifyLocked()
}

// --- Connect ---

// Connect validates credentials, transitions Idle→Connecting and asks
// the room transport to join. The error, if any, is both returned and
// observable as StateError. The session re-arms itself at the start of
// each attempt.
func (s *Session) Connect(ctx context.Context, creds room.Credentials, roomName string, t Type) error {
	s.mu.Lock()
	if s.state == StateConnecting || s.state == StateConnected || s.state == StateInCall {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}

	// Re-arm for the new attempt. A support timer started by
	// SetCallType survives into the call.
	if t != TypeSupport {
		s.callStart = time.Time{}
	}
	s.roster.reset()
	s.callType = t
	s.policy = policyFor(t, s.log)
	s.state = StateConnecting
	s.status = StatusConnecting

	if creds.Token == "" || creds.URL == "" {
		s.state = StateError
		s.status = StatusError
		s.notifyLocked()
		s.mu.Unlock()
		s.log.Error("[Session] Connect rejected, empty credentials", "room", roomName)
		return ErrInvalidCredentials
	}
	if !strings.HasPrefix(creds.URL, "ws://") && !strings.HasPrefix(creds.URL, "wss://") {
		s.log.Warn("[Session] Transport URL has unexpected scheme", "url", creds.URL)
	}
	s.log.Info("[Session] Connecting", "room", roomName, "type", t, "url", creds.URL)
	s.notifyLocked()
	s.mu.Unlock()

	// The transport call awaits the remote end, so it runs outside the
	// lock; a concurrent Disconnect must not block on it.
	opts := room.ConnectOptions{Audio: true, Video: false, AutoSubscribe: true}
	if err := s.room.Connect(ctx, creds, opts); err != nil {
		s.mu.Lock()
		s.state = StateError
		s.status = StatusError
		s.notifyLocked()
		s.mu.Unlock()
		s.log.Error("[Session] Connect failed", "room", roomName, "error", err)
		return &ConnectError{URL: creds.URL, Cause: err}
	}
	return nil
}

// --- Room event dispatch ---

// OnRoomEvent is the central dispatcher for transport events. It must
// never panic or error on out-of-order events from an unreliable
// transport: anything unexpected is logged and absorbed.
func (s *Session) OnRoomEvent(ev room.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A disconnect already forced the terminal state; a late roster
	// event must not resurrect the call.
	if s.state.IsTerminal() && ev.Kind != room.EventConnected {
		s.log.Debug("[Session] Dropping room event in terminal state", "event", ev.Kind, "state", s.state)
		return
	}
	if s.state == StateIdle {
		s.log.Debug("[Session] Dropping room event while idle", "event", ev.Kind)
		return
	}

	switch ev.Kind {
	case room.EventConnected:
		s.handleConnectedLocked()
	case room.EventParticipantConnected:
		s.handleParticipantConnectedLocked(ev.Participant)
	case room.EventParticipantDisconnected:
		s.handleParticipantDisconnectedLocked(ev.Participant)
	case room.EventDisconnected:
		s.handleDisconnectedLocked()
	case room.EventConnectionQualityChanged:
		s.log.Debug("[Session] Connection quality changed", "quality", ev.Quality)
	default:
		s.log.Debug("[Session] Unhandled room event", "event", ev.Kind)
	}
}

func (s *Session) handleConnectedLocked() {
	now := time.Now()
	s.state = StateConnected

	local := newLocalParticipant(s.callType, s.room.LocalParticipant().Identity, now)
	s.roster.setLocal(local)
	// Absorb remotes that joined before us; they never produce their
	// own join events.
	remotes := s.room.RemoteParticipants()
	for _, p := range remotes {
		s.roster.add(newRemoteParticipant(p.SID, p.Identity, now))
	}
	s.status = StatusForCount(s.roster.size())
	s.log.Info("[Session] Room connected",
		"type", s.callType,
		"local", local.Identity,
		"remotes", len(remotes),
	)

	if s.callStart.IsZero() {
		s.callStart = now
	}
	if s.recorder != nil {
		s.recorder.Open(s.callType, s.callType.ContactName(), s.callStart)
	}

	state, status, force := s.policy.onConnected(s.roster.remoteCount() > 0)
	s.state = state
	if force {
		s.status = status
	}
	s.notifyLocked()
}

func (s *Session) handleParticipantConnectedLocked(p room.Participant) {
	now := time.Now()
	remote := newRemoteParticipant(p.SID, p.Identity, now)
	s.roster.add(remote)
	s.status = StatusForCount(s.roster.size())
	s.log.Info("[Session] Participant connected",
		"identity", remote.Identity,
		"participant_type", remote.Type,
		"count", s.roster.size(),
	)

	state, status, force := s.policy.onParticipantJoined(s.state, remote.Identity, s.roster.remoteCount() > 0)
	s.state = state
	if force {
		s.status = status
	}

	if s.roster.hasType(ParticipantCustomer) && s.roster.hasType(ParticipantDriver) {
		s.log.Debug("[Session] Customer and driver share the room", "participants", s.roster.details())
	}
	s.notifyLocked()
}

func (s *Session) handleParticipantDisconnectedLocked(p room.Participant) {
	s.roster.removeBySID(p.SID)
	s.log.Info("[Session] Participant disconnected", "identity", p.Identity, "count", s.roster.size())

	if s.roster.remoteCount() <= 0 {
		// Only the local participant remains: the call is over.
		s.log.Info("[Session] Remote side left, ending call")
		s.finishLocked(StatusDisconnected)
		return
	}
	s.status = StatusForCount(s.roster.size())
	s.notifyLocked()
}

func (s *Session) handleDisconnectedLocked() {
	s.log.Info("[Session] Room disconnected")
	s.finishLocked(StatusDisconnected)
}

// finishLocked applies the terminal transition: Idle state, empty
// roster, finalized history record. Caller holds s.mu.
func (s *Session) finishLocked(status ConnectionStatus) {
	s.state = StateIdle
	s.status = status
	s.roster.reset()
	if s.recorder != nil {
		s.recorder.Close(time.Now())
	}
	s.notifyLocked()
}

// --- User actions ---

// AcceptCall confirms an incoming call. Valid only while ringing or
// waiting for driver acceptance; from any other state it logs and
// returns without effect.
func (s *Session) AcceptCall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Acceptable() {
		s.log.Warn("[Session] AcceptCall ignored", "state", s.state)
		return
	}
	s.log.Info("[Session] Call accepted", "from", s.state)
	s.state = StateInCall
	s.notifyLocked()
}

// Disconnect ends the call. Idempotent: a session that is already
// idle is left untouched. The state flips to Idle synchronously so
// observers can react ahead of the transport's own confirmation; the
// transport teardown and the bridge end-call run in the background.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.log.Debug("[Session] Already disconnected, ignoring")
		s.mu.Unlock()
		return
	}
	s.log.Info("[Session] Disconnecting", "type", s.callType, "state", s.state)

	wasSupport := s.callType == TypeSupport
	// Clear the teardown keys before the network call fires so a
	// repeated disconnect cannot end the bridge call twice.
	identity, roomName := s.bridgeIdentity, s.bridgeRoom
	s.bridgeIdentity, s.bridgeRoom = "", ""

	s.finishLocked(StatusDisconnected)
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return
	}

	if wasSupport && identity != "" && roomName != "" && s.bridge != nil {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			if err := s.bridge.EndBridgeCall(s.ctx, identity, roomName); err != nil {
				s.log.Error("[Session] Bridge end call failed", "error", &BridgeCallError{Op: "end", RoomName: roomName, Cause: err})
				return
			}
			s.log.Info("[Session] Bridge call ended", "room", roomName)
		}()
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.room.Disconnect()
		s.log.Debug("[Session] Room teardown complete")
	}()
}

// MuteAudio disables the local microphone. Side effect only; failures
// are logged, not surfaced.
func (s *Session) MuteAudio() { s.setMicrophone(false) }

// UnmuteAudio enables the local microphone.
func (s *Session) UnmuteAudio() { s.setMicrophone(true) }

func (s *Session) setMicrophone(enabled bool) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if err := s.room.SetMicrophoneEnabled(s.ctx, enabled); err != nil {
			s.log.Error("[Session] Microphone toggle failed", "enabled", enabled, "error", err)
			return
		}
		s.log.Debug("[Session] Microphone toggled", "enabled", enabled)
	}()
}

// EnableCamera enables the local camera.
func (s *Session) EnableCamera() { s.setCamera(true) }

// DisableCamera disables the local camera.
func (s *Session) DisableCamera() { s.setCamera(false) }

func (s *Session) setCamera(enabled bool) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if err := s.room.SetCameraEnabled(s.ctx, enabled); err != nil {
			s.log.Error("[Session] Camera toggle failed", "enabled", enabled, "error", err)
			return
		}
		s.log.Debug("[Session] Camera toggled", "enabled", enabled)
	}()
}

// Close cancels pending background work and waits for it, so no side
// effect outlives the session. The session is unusable afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for o := range s.observers {
		delete(s.observers, o)
		close(o)
	}
	s.mu.Unlock()

	s.cancel()
	s.bg.Wait()
}

// --- Queries ---

// Type returns the current call type.
func (s *Session) Type() Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callType
}

// State returns the current call state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the current room connection status.
func (s *Session) Status() ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Participants returns a copy of the roster.
func (s *Session) Participants() []ParticipantInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.snapshot()
}

// ParticipantCount returns the roster size, local included.
func (s *Session) ParticipantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.size()
}

// ParticipantDetails formats the roster for display and logs.
func (s *Session) ParticipantDetails() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.details()
}

// HasCustomerAndDriver reports whether the roster holds both roles.
func (s *Session) HasCustomerAndDriver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.hasType(ParticipantCustomer) && s.roster.hasType(ParticipantDriver)
}

// IsCustomerDriverCallActive reports whether a two-party
// customer↔driver call is up.
func (s *Session) IsCustomerDriverCallActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusMultipleParticipants &&
		s.roster.hasType(ParticipantCustomer) && s.roster.hasType(ParticipantDriver)
}

// StartTimestamp returns the call start time, zero until the call
// timer starts.
func (s *Session) StartTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callStart
}

// CurrentCallDuration returns the elapsed call time in whole seconds,
// zero when the timer has not started.
func (s *Session) CurrentCallDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callStart.IsZero() {
		return 0
	}
	return time.Since(s.callStart).Truncate(time.Second)
}
