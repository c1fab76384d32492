package call

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrInvalidCredentials indicates an empty token or transport URL.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAlreadyConnected indicates a connect attempt while a call is
	// already in progress.
	ErrAlreadyConnected = errors.New("call already in progress")
)

// ConnectError reports a transport-level connect failure.
type ConnectError struct {
	// URL is the transport URL that was dialed.
	URL string

	// Cause is the underlying error.
	Cause error
}

// Error returns the error message.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// BridgeCallError reports a bridge make/end call failure. Non-fatal:
// the media room may still be healthy, so it never alters call state.
type BridgeCallError struct {
	// Op is "make" or "end".
	Op string

	// RoomName is the bridge room involved.
	RoomName string

	// Cause is the underlying error.
	Cause error
}

// Error returns the error message.
func (e *BridgeCallError) Error() string {
	return fmt.Sprintf("bridge %s call (room %s): %v", e.Op, e.RoomName, e.Cause)
}

// Unwrap returns the underlying error.
func (e *BridgeCallError) Unwrap() error {
	return e.Cause
}
