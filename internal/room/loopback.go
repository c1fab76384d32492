package room

import (
	"context"
	"sync"
)

// Loopback is an in-memory Room for development and tests. Connect
// succeeds immediately and delivers a Connected event; remote
// participants are scripted via SimulateJoin and SimulateLeave.
type Loopback struct {
	mu        sync.Mutex
	handler   func(Event)
	connected bool
	local     Participant
	remotes   []Participant

	// FailConnect, when set, makes Connect return this error.
	FailConnect error
}

// NewLoopback creates a disconnected loopback room.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// OnEvent implements Room.
func (l *Loopback) OnEvent(handler func(Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = handler
}

// Connect implements Room. The Connected event fires synchronously.
func (l *Loopback) Connect(ctx context.Context, creds Credentials, _ ConnectOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	if l.FailConnect != nil {
		err := l.FailConnect
		l.mu.Unlock()
		return err
	}
	l.connected = true
	handler := l.handler
	l.mu.Unlock()

	if handler != nil {
		handler(Event{Kind: EventConnected})
	}
	return nil
}

// Disconnect implements Room.
func (l *Loopback) Disconnect() {
	l.mu.Lock()
	if !l.connected {
		l.mu.Unlock()
		return
	}
	l.connected = false
	l.remotes = nil
	handler := l.handler
	l.mu.Unlock()

	if handler != nil {
		handler(Event{Kind: EventDisconnected})
	}
}

// SetMicrophoneEnabled implements Room.
func (l *Loopback) SetMicrophoneEnabled(context.Context, bool) error { return nil }

// SetCameraEnabled implements Room.
func (l *Loopback) SetCameraEnabled(context.Context, bool) error { return nil }

// RemoteParticipants implements Room.
func (l *Loopback) RemoteParticipants() []Participant {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Participant, len(l.remotes))
	copy(out, l.remotes)
	return out
}

// LocalParticipant implements Room.
func (l *Loopback) LocalParticipant() Participant {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.local
}

// SetLocalParticipant fixes the transport-side local identity.
func (l *Loopback) SetLocalParticipant(p Participant) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.local = p
}

// SeedRemote places a remote participant in the room before Connect,
// for the caller-joins-second scenarios.
func (l *Loopback) SeedRemote(p Participant) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remotes = append(l.remotes, p)
}

// SimulateJoin adds a remote participant and emits the join event.
func (l *Loopback) SimulateJoin(p Participant) {
	l.mu.Lock()
	l.remotes = append(l.remotes, p)
	handler := l.handler
	l.mu.Unlock()

	if handler != nil {
		handler(Event{Kind: EventParticipantConnected, Participant: p})
	}
}

// SimulateLeave removes a remote participant and emits the leave event.
func (l *Loopback) SimulateLeave(p Participant) {
	l.mu.Lock()
	for i, r := range l.remotes {
		if r.SID == p.SID {
			l.remotes = append(l.remotes[:i], l.remotes[i+1:]...)
			break
		}
	}
	handler := l.handler
	l.mu.Unlock()

	if handler != nil {
		handler(Event{Kind: EventParticipantDisconnected, Participant: p})
	}
}
