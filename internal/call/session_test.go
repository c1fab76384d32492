package call

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sebas/ridecall/internal/room"
)

type recorderSpy struct {
	mu          sync.Mutex
	opens       int
	closes      int
	lastType    Type
	lastContact string
	lastStart   time.Time
}

func (r *recorderSpy) Open(callType Type, contactName string, start time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opens++
	r.lastType = callType
	r.lastContact = contactName
	r.lastStart = start
}

func (r *recorderSpy) Close(time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++
}

func (r *recorderSpy) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens, r.closes
}

type bridgeSpy struct {
	calls chan string
}

func newBridgeSpy() *bridgeSpy {
	return &bridgeSpy{calls: make(chan string, 4)}
}

func (b *bridgeSpy) EndBridgeCall(_ context.Context, participantIdentity, roomName string) error {
	b.calls <- participantIdentity + "/" + roomName
	return nil
}

func newTestSession(lb *room.Loopback) (*Session, *recorderSpy, *bridgeSpy) {
	rec := &recorderSpy{}
	bridge := newBridgeSpy()
	s := NewSession(Config{
		Room:     lb,
		Recorder: rec,
		Bridge:   bridge,
		Logger:   testLogger(),
	})
	lb.OnEvent(s.OnRoomEvent)
	return s, rec, bridge
}

func validCreds() room.Credentials {
	return room.Credentials{URL: "wss://media.example.com", Token: "tok"}
}

func TestCustomerConnectThenDriverJoins(t *testing.T) {
	lb := room.NewLoopback()
	s, rec, _ := newTestSession(lb)
	defer s.Close()

	if err := s.Connect(context.Background(), validCreds(), "room1", TypeCustomer); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got := s.State(); got != StateWaitingForAcceptance {
		t.Fatalf("state after connect = %v, want WaitingForAcceptance", got)
	}
	if opens, _ := rec.counts(); opens != 1 {
		t.Errorf("recorder opens = %d, want 1", opens)
	}

	lb.SimulateJoin(room.Participant{SID: "sid_d", Identity: "driver_abc"})

	if got := s.State(); got != StateInCall {
		t.Errorf("state after driver join = %v, want InCall", got)
	}
	if got := s.Status(); got != StatusCallActive {
		t.Errorf("status after driver join = %v, want CallActive", got)
	}
	if got := s.ParticipantCount(); got != 2 {
		t.Errorf("participant count = %d, want 2", got)
	}
}

func TestCustomerConnectWithDriverAlreadyWaiting(t *testing.T) {
	lb := room.NewLoopback()
	lb.SeedRemote(room.Participant{SID: "sid_d", Identity: "driver_abc"})
	s, _, _ := newTestSession(lb)
	defer s.Close()

	if err := s.Connect(context.Background(), validCreds(), "room1", TypeCustomer); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got := s.State(); got != StateInCall {
		t.Errorf("state = %v, want InCall", got)
	}
	if got := s.Status(); got != StatusCallActive {
		t.Errorf("status = %v, want CallActive", got)
	}
}

func TestDriverIncomingCallFlow(t *testing.T) {
	lb := room.NewLoopback()
	lb.SeedRemote(room.Participant{SID: "sid_c", Identity: "customer_abc"})
	s, _, _ := newTestSession(lb)
	defer s.Close()

	s.SignalIncomingCall(TypeDriver, "Alice")
	if got := s.State(); got != StateIncomingCall {
		t.Fatalf("state after push = %v, want IncomingCall", got)
	}

	if err := s.Connect(context.Background(), validCreds(), "room1", TypeDriver); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got := s.State(); got != StateWaitingForDriverAcceptance {
		t.Fatalf("state after connect = %v, want WaitingForDriverAcceptance", got)
	}
	if got := s.Status(); got != StatusMultipleParticipants {
		t.Errorf("status = %v, want MultipleParticipants", got)
	}

	s.AcceptCall()
	if got := s.State(); got != StateInCall {
		t.Errorf("state after accept = %v, want InCall", got)
	}
}

func TestDriverConnectThenCustomerJoins(t *testing.T) {
	lb := room.NewLoopback()
	s, _, _ := newTestSession(lb)
	defer s.Close()

	if err := s.Connect(context.Background(), validCreds(), "room1", TypeDriver); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got := s.State(); got != StateConnected {
		t.Fatalf("state after connect = %v, want Connected", got)
	}

	lb.SimulateJoin(room.Participant{SID: "sid_c", Identity: "customer_abc"})
	if got := s.State(); got != StateWaitingForDriverAcceptance {
		t.Fatalf("state after customer join = %v, want WaitingForDriverAcceptance", got)
	}

	s.AcceptCall()
	if got := s.State(); got != StateInCall {
		t.Errorf("state after accept = %v, want InCall", got)
	}
}

func TestSignalIncomingCallIgnoredWhenBusy(t *testing.T) {
	lb := room.NewLoopback()
	s, _, _ := newTestSession(lb)
	defer s.Close()

	s.SignalIncomingCall(TypeDriver, "Alice")
	s.SignalIncomingCall(TypeCustomer, "Bob")

	if got := s.Type(); got != TypeDriver {
		t.Errorf("second signal overwrote call type, got %v", got)
	}
}

func TestAcceptCallIgnoredWhenIdle(t *testing.T) {
	lb := room.NewLoopback()
	s, _, _ := newTestSession(lb)
	defer s.Close()

	s.AcceptCall()
	if got := s.State(); got != StateIdle {
		t.Errorf("state = %v, want Idle", got)
	}
}

func TestSupportCallFlow(t *testing.T) {
	lb := room.NewLoopback()
	s, _, bridge := newTestSession(lb)

	s.SetCallType(TypeSupport)
	started := s.StartTimestamp()
	if started.IsZero() {
		t.Fatal("support timer did not start at SetCallType")
	}
	s.SetBridgeCallInfo("sip_outbound_1", "support_room_1")

	if err := s.Connect(context.Background(), validCreds(), "support_room_1", TypeSupport); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got := s.State(); got != StateWaitingForAcceptance {
		t.Fatalf("state after connect = %v, want WaitingForAcceptance", got)
	}
	if got := s.StartTimestamp(); !got.Equal(started) {
		t.Errorf("connect reset the support timer: %v != %v", got, started)
	}

	lb.SimulateJoin(room.Participant{SID: "sid_s", Identity: "sip_outbound_1"})
	if got := s.State(); got != StateInCall {
		t.Fatalf("state after bridge join = %v, want InCall", got)
	}

	s.Disconnect()
	select {
	case got := <-bridge.calls:
		if got != "sip_outbound_1/support_room_1" {
			t.Errorf("bridge teardown keys = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("bridge end call never fired")
	}

	// A repeated disconnect must not end the bridge call twice.
	s.Disconnect()
	s.Close()
	select {
	case got := <-bridge.calls:
		t.Errorf("bridge end call fired twice: %q", got)
	default:
	}
}

func TestRemoteLeaveEndsCall(t *testing.T) {
	lb := room.NewLoopback()
	s, rec, _ := newTestSession(lb)
	defer s.Close()

	if err := s.Connect(context.Background(), validCreds(), "room1", TypeCustomer); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	lb.SimulateJoin(room.Participant{SID: "sid_d", Identity: "driver_abc"})
	lb.SimulateLeave(room.Participant{SID: "sid_d", Identity: "driver_abc"})

	if got := s.State(); got != StateIdle {
		t.Errorf("state after remote leave = %v, want Idle", got)
	}
	if got := s.ParticipantCount(); got != 0 {
		t.Errorf("participant count = %d, want 0", got)
	}
	if _, closes := rec.counts(); closes != 1 {
		t.Errorf("recorder closes = %d, want 1", closes)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	lb := room.NewLoopback()
	s, rec, _ := newTestSession(lb)

	if err := s.Connect(context.Background(), validCreds(), "room1", TypeCustomer); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	s.Disconnect()
	s.Disconnect()
	s.Close()

	if got := s.State(); got != StateIdle {
		t.Errorf("state = %v, want Idle", got)
	}
	if _, closes := rec.counts(); closes != 1 {
		t.Errorf("recorder closes = %d, want 1", closes)
	}
}

func TestDisconnectWhileIdleTouchesNothing(t *testing.T) {
	lb := room.NewLoopback()
	s, rec, bridge := newTestSession(lb)

	s.Disconnect()
	s.Close()

	if opens, closes := rec.counts(); opens != 0 || closes != 0 {
		t.Errorf("recorder touched while idle: opens=%d closes=%d", opens, closes)
	}
	select {
	case got := <-bridge.calls:
		t.Errorf("bridge call fired while idle: %q", got)
	default:
	}
}

func TestConnectRejectsEmptyCredentials(t *testing.T) {
	lb := room.NewLoopback()
	s, _, _ := newTestSession(lb)
	defer s.Close()

	err := s.Connect(context.Background(), room.Credentials{}, "room1", TypeCustomer)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Connect() error = %v, want ErrInvalidCredentials", err)
	}
	if got := s.State(); got != StateError {
		t.Errorf("state = %v, want Error", got)
	}
	if got := s.Status(); got != StatusError {
		t.Errorf("status = %v, want Error", got)
	}
}

func TestConnectSurfacesTransportFailure(t *testing.T) {
	lb := room.NewLoopback()
	cause := errors.New("dial refused")
	lb.FailConnect = cause
	s, _, _ := newTestSession(lb)
	defer s.Close()

	err := s.Connect(context.Background(), validCreds(), "room1", TypeCustomer)
	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("Connect() error = %v, want *ConnectError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("ConnectError does not wrap the transport cause")
	}
	if got := s.State(); got != StateError {
		t.Errorf("state = %v, want Error", got)
	}
}

func TestConnectAfterErrorRecovers(t *testing.T) {
	lb := room.NewLoopback()
	s, _, _ := newTestSession(lb)
	defer s.Close()

	if err := s.Connect(context.Background(), room.Credentials{}, "room1", TypeCustomer); err == nil {
		t.Fatal("expected credential error")
	}
	if err := s.Connect(context.Background(), validCreds(), "room1", TypeCustomer); err != nil {
		t.Fatalf("reconnect after error failed: %v", err)
	}
	if got := s.State(); got != StateWaitingForAcceptance {
		t.Errorf("state = %v, want WaitingForAcceptance", got)
	}
}

func TestConnectWhileConnectedRefused(t *testing.T) {
	lb := room.NewLoopback()
	s, _, _ := newTestSession(lb)
	defer s.Close()

	if err := s.Connect(context.Background(), validCreds(), "room1", TypeCustomer); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	lb.SimulateJoin(room.Participant{SID: "sid_d", Identity: "driver_abc"})

	if err := s.Connect(context.Background(), validCreds(), "room2", TypeCustomer); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect() error = %v, want ErrAlreadyConnected", err)
	}
}

func TestLateRoomEventsDroppedAfterDisconnect(t *testing.T) {
	lb := room.NewLoopback()
	s, _, _ := newTestSession(lb)
	defer s.Close()

	if err := s.Connect(context.Background(), validCreds(), "room1", TypeCustomer); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	s.Disconnect()

	// Stale transport events must not resurrect the call.
	s.OnRoomEvent(room.Event{Kind: room.EventParticipantConnected, Participant: room.Participant{SID: "sid_d", Identity: "driver_abc"}})
	if got := s.State(); got != StateIdle {
		t.Errorf("state = %v, want Idle", got)
	}
	if got := s.ParticipantCount(); got != 0 {
		t.Errorf("participant count = %d, want 0", got)
	}
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	lb := room.NewLoopback()
	s, _, _ := newTestSession(lb)
	defer s.Close()

	updates := s.Subscribe()
	s.SignalIncomingCall(TypeDriver, "Alice")

	select {
	case snap := <-updates:
		if snap.State != StateIncomingCall {
			t.Errorf("snapshot state = %v, want IncomingCall", snap.State)
		}
		if snap.Type != TypeDriver {
			t.Errorf("snapshot type = %v, want Driver", snap.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	s.Unsubscribe(updates)
}

func TestHasCustomerAndDriver(t *testing.T) {
	lb := room.NewLoopback()
	s, _, _ := newTestSession(lb)
	defer s.Close()

	if err := s.Connect(context.Background(), validCreds(), "room1", TypeCustomer); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if s.HasCustomerAndDriver() {
		t.Error("HasCustomerAndDriver() = true before driver joined")
	}
	lb.SimulateJoin(room.Participant{SID: "sid_d", Identity: "driver_abc"})
	if !s.HasCustomerAndDriver() {
		t.Error("HasCustomerAndDriver() = false with both roles present")
	}
}

func TestCurrentCallDuration(t *testing.T) {
	lb := room.NewLoopback()
	s, _, _ := newTestSession(lb)
	defer s.Close()

	if got := s.CurrentCallDuration(); got != 0 {
		t.Errorf("duration before call = %v, want 0", got)
	}
	if err := s.Connect(context.Background(), validCreds(), "room1", TypeCustomer); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if s.StartTimestamp().IsZero() {
		t.Error("start timestamp not set after connect")
	}
	if got := s.CurrentCallDuration(); got < 0 {
		t.Errorf("duration = %v, want >= 0", got)
	}
}
