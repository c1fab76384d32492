// Package push receives incoming-call notifications over a long-lived
// websocket to the notification gateway and hands the extracted call
// tuple to the session layer. Payload parsing stays here; the call
// core never sees raw push messages.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types emitted by the notification gateway.
const (
	// TypeCustomerIncomingCall is a customer calling a driver device.
	TypeCustomerIncomingCall = "customer_incoming_call"
	// TypeDriverIncomingCall is a driver calling a customer device.
	TypeDriverIncomingCall = "driver_incoming_call"
	// TypeCallEnded reports the far end hung up.
	TypeCallEnded = "call_ended"
	// TypeGeneral is an informational notification.
	TypeGeneral = "general"
)

// IncomingCall is the tuple extracted from an incoming-call push.
type IncomingCall struct {
	Type                string
	RoomName            string
	ParticipantIdentity string
	CallerName          string
}

// CallEnded reports a remotely terminated call.
type CallEnded struct {
	CallType string
	Duration string
}

// Handler receives parsed push notifications. Calls arrive from the
// listener's read goroutine, one at a time.
type Handler interface {
	HandleIncomingCall(call IncomingCall)
	HandleCallEnded(ended CallEnded)
}

// payload is the gateway wire format.
type payload struct {
	Type                string `json:"type"`
	Title               string `json:"title,omitempty"`
	RoomName            string `json:"room_name,omitempty"`
	ParticipantIdentity string `json:"participant_identity,omitempty"`
	CallerName          string `json:"caller_name,omitempty"`
	CallType            string `json:"call_type,omitempty"`
	Duration            string `json:"duration,omitempty"`
	Action              string `json:"action,omitempty"`
}

// Config configures a Listener.
type Config struct {
	// URL is the gateway websocket endpoint.
	URL string

	// DeviceToken authenticates this device with the gateway.
	DeviceToken string

	// UserType is the local role ("customer" or "driver"); pushes meant
	// for the other role are suppressed, matching how each device class
	// only rings for calls addressed to it.
	UserType string

	// ReconnectInterval is the delay between dial attempts.
	ReconnectInterval time.Duration

	Handler Handler
	Logger  *slog.Logger
}

// Listener maintains the gateway connection and dispatches pushes.
type Listener struct {
	cfg  Config
	log  *slog.Logger
	wg   sync.WaitGroup
	stop context.CancelFunc

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewListener creates a listener; Run starts it.
func NewListener(cfg Config) (*Listener, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("push listener: gateway URL required")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("push listener: handler required")
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 5 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Listener{cfg: cfg, log: log}, nil
}

// Run connects and dispatches until the context is canceled,
// redialing after connection loss.
func (l *Listener) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.stop = cancel
	l.wg.Add(1)
	defer l.wg.Done()

	for {
		if err := l.runOnce(ctx); err != nil && ctx.Err() == nil {
			l.log.Warn("[Push] Gateway connection lost", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.cfg.ReconnectInterval):
		}
	}
}

// Close tears down the connection and waits for the read loop.
func (l *Listener) Close() {
	if l.stop != nil {
		l.stop()
	}
	l.mu.Lock()
	if l.conn != nil {
		l.conn.Close()
	}
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *Listener) runOnce(ctx context.Context) error {
	header := map[string][]string{}
	if l.cfg.DeviceToken != "" {
		header["Authorization"] = []string{"Bearer " + l.cfg.DeviceToken}
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.conn = nil
		l.mu.Unlock()
		conn.Close()
	}()
	l.log.Info("[Push] Connected to notification gateway", "url", l.cfg.URL)

	// Drop the connection when the context dies so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read gateway: %w", err)
		}
		l.dispatch(data)
	}
}

// dispatch parses one push payload and routes it by type and local
// role. Malformed payloads are logged and dropped.
func (l *Listener) dispatch(data []byte) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		l.log.Warn("[Push] Malformed payload", "error", err)
		return
	}

	userType := strings.ToLower(l.cfg.UserType)
	switch p.Type {
	case TypeCustomerIncomingCall:
		if userType != "driver" {
			l.log.Debug("[Push] Suppressing customer call for non-driver device")
			return
		}
		l.cfg.Handler.HandleIncomingCall(incomingCall(p, "Customer"))
	case TypeDriverIncomingCall:
		if userType != "customer" {
			l.log.Debug("[Push] Suppressing driver call for non-customer device")
			return
		}
		l.cfg.Handler.HandleIncomingCall(incomingCall(p, "Driver"))
	case TypeCallEnded:
		l.cfg.Handler.HandleCallEnded(CallEnded{CallType: p.CallType, Duration: p.Duration})
	case TypeGeneral:
		l.log.Info("[Push] Notification", "title", p.Title)
	default:
		l.log.Warn("[Push] Unknown message type", "type", p.Type)
	}
}

func incomingCall(p payload, fallbackCaller string) IncomingCall {
	caller := p.CallerName
	if caller == "" {
		// Older gateways pack the caller into the notification title.
		caller = strings.TrimPrefix(p.Title, "Incoming Call from ")
	}
	if caller == "" {
		caller = fallbackCaller
	}
	return IncomingCall{
		Type:                p.Type,
		RoomName:            p.RoomName,
		ParticipantIdentity: p.ParticipantIdentity,
		CallerName:          caller,
	}
}
