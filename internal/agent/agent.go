// Package agent orchestrates call flows end to end. It glues the
// backend client, the push intake, and the call session together:
// fetching tokens, connecting, auto-accepting pushed calls, and
// tearing down.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sebas/ridecall/internal/backend"
	"github.com/sebas/ridecall/internal/call"
	"github.com/sebas/ridecall/internal/profile"
	"github.com/sebas/ridecall/internal/push"
	"github.com/sebas/ridecall/internal/room"
)

// acceptTimeout bounds how long an accepted incoming call may wait
// for the room to reach an acceptable state.
const acceptTimeout = 15 * time.Second

// Agent drives the call session on behalf of the local user.
type Agent struct {
	log          *slog.Logger
	backend      *backend.Client
	session      *call.Session
	prof         profile.Profile
	bridgeNumber string

	mu      sync.Mutex
	pending *push.IncomingCall
}

// Config wires an Agent.
type Config struct {
	Backend      *backend.Client
	Session      *call.Session
	Profile      profile.Profile
	BridgeNumber string
	Logger       *slog.Logger
}

// New creates an agent.
func New(cfg Config) *Agent {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	number := cfg.BridgeNumber
	if number == "" {
		number = backend.DefaultBridgeNumber
	}
	return &Agent{
		log:          log,
		backend:      cfg.Backend,
		session:      cfg.Session,
		prof:         cfg.Profile,
		bridgeNumber: number,
	}
}

// RegisterDevice registers the local push token with the backend.
func (a *Agent) RegisterDevice(ctx context.Context) error {
	if a.prof.DeviceToken == "" {
		a.log.Warn("[Agent] No device token, skipping push registration")
		return nil
	}
	return a.backend.RegisterPushToken(ctx, backend.RegisterPushTokenRequest{
		UserType:    a.prof.UserType,
		UserID:      a.prof.UserID,
		DeviceToken: a.prof.DeviceToken,
		DeviceInfo:  map[string]string{"name": a.prof.DisplayName()},
	})
}

// StartCustomerCall places an outgoing customer→driver call into the
// given room.
func (a *Agent) StartCustomerCall(ctx context.Context, roomName string) error {
	return a.startOutgoing(ctx, roomName, call.TypeCustomer, "customer")
}

// StartDriverCall places an outgoing driver→customer call into the
// given room.
func (a *Agent) StartDriverCall(ctx context.Context, roomName string) error {
	return a.startOutgoing(ctx, roomName, call.TypeDriver, "driver")
}

func (a *Agent) startOutgoing(ctx context.Context, roomName string, t call.Type, role string) error {
	if roomName == "" {
		roomName = fmt.Sprintf("%s_room_%s", role, uuid.NewString())
	}
	identity := fmt.Sprintf("%s_%s", role, uuid.NewString())
	creds, err := a.backend.CallerToken(ctx, backend.CallerTokenRequest{
		RoomName:                roomName,
		ParticipantIdentity:     identity,
		ParticipantIdentityName: a.prof.DisplayName(),
		ParticipantIdentityType: role,
		CallerUserID:            a.prof.UserID,
	})
	if err != nil {
		return fmt.Errorf("start %s call: %w", role, err)
	}
	a.log.Info("[Agent] Starting outgoing call", "room", roomName, "type", t)
	return a.session.Connect(ctx, creds, roomName, t)
}

// StartSupportCall asks the bridge to dial the support desk and joins
// the resulting room.
func (a *Agent) StartSupportCall(ctx context.Context) error {
	roomName := "support_room_" + uuid.NewString()
	data, err := a.backend.MakeBridgeCall(ctx, backend.BridgeCallRequest{
		PhoneNumber:     a.bridgeNumber,
		RoomName:        roomName,
		ParticipantName: a.prof.DisplayName(),
	})
	if err != nil {
		return fmt.Errorf("start support call: %w", err)
	}

	// The support timer starts now; there is no room-connected event
	// driving the UI timer for bridged audio.
	a.session.SetCallType(call.TypeSupport)
	a.session.SetBridgeCallInfo(data.CallDetails.ParticipantIdentity, data.RoomName)

	creds := room.Credentials{URL: data.WsURL, Token: data.RoomToken}
	a.log.Info("[Agent] Starting support call", "room", data.RoomName)
	return a.session.Connect(ctx, creds, data.RoomName, call.TypeSupport)
}

// HandleIncomingCall implements push.Handler: ring the session and
// remember the tuple for a later accept.
func (a *Agent) HandleIncomingCall(ic push.IncomingCall) {
	t := call.TypeCustomer
	if ic.Type == push.TypeCustomerIncomingCall {
		// A customer is calling: this device answers as the driver.
		t = call.TypeDriver
	}
	a.mu.Lock()
	a.pending = &ic
	a.mu.Unlock()
	a.session.SignalIncomingCall(t, ic.CallerName)
}

// HandleCallEnded implements push.Handler: the far end hung up.
func (a *Agent) HandleCallEnded(ended push.CallEnded) {
	a.log.Info("[Agent] Far end ended the call", "call_type", ended.CallType, "duration", ended.Duration)
	a.session.Disconnect()
}

// AcceptIncoming answers the pending pushed call: fetch the callee
// token, join the room, and accept once the session is ready.
func (a *Agent) AcceptIncoming(ctx context.Context) error {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()
	if pending == nil {
		return fmt.Errorf("accept incoming: no pending call")
	}

	role, t := "customer", call.TypeCustomer
	if pending.Type == push.TypeCustomerIncomingCall {
		role, t = "driver", call.TypeDriver
	}
	identity := fmt.Sprintf("%s_%s", role, uuid.NewString())
	creds, err := a.backend.CalledToken(ctx, backend.CalledTokenRequest{
		RoomName:                pending.RoomName,
		ParticipantIdentity:     identity,
		ParticipantIdentityName: a.prof.DisplayName(),
		ParticipantIdentityType: role,
		CalledUserID:            a.prof.UserID,
	})
	if err != nil {
		return fmt.Errorf("accept incoming: %w", err)
	}

	updates := a.session.Subscribe()
	defer a.session.Unsubscribe(updates)

	if err := a.session.Connect(ctx, creds, pending.RoomName, t); err != nil {
		return err
	}

	// Auto-accept as soon as the state machine is ready for it; the
	// push already carried the user's intent to answer.
	deadline := time.NewTimer(acceptTimeout)
	defer deadline.Stop()
	for {
		if a.session.State().Acceptable() {
			a.session.AcceptCall()
			return nil
		}
		select {
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if snap.State == call.StateInCall {
				return nil
			}
			if snap.State.IsTerminal() {
				return fmt.Errorf("accept incoming: call ended before acceptance (state %s)", snap.State)
			}
		case <-deadline.C:
			a.log.Warn("[Agent] Timed out waiting to accept, leaving call as is")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// DeclineIncoming rejects the pending pushed call.
func (a *Agent) DeclineIncoming() {
	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()
	a.log.Info("[Agent] Incoming call declined")
	a.session.Disconnect()
}

// Hangup ends the current call.
func (a *Agent) Hangup() {
	a.session.Disconnect()
}
