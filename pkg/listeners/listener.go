// Package listeners accepts MQTT byte streams over TCP and WebSocket and
// hands each connection to the inspector.
package listeners

import (
	"errors"
	"net"
)

// ErrListenerClosed is returned by Close on a listener that is already closed.
var ErrListenerClosed = errors.New("listener already closed")

// ConnectionHandler handles new connections from listeners.
// HandleConnection must not block the accept loop for long.
type ConnectionHandler interface {
	HandleConnection(conn net.Conn)
}

// Listener is the interface that all transport listeners implement.
type Listener interface {
	// ID returns the unique identifier for this listener.
	ID() string

	// Addr returns the bound address, or nil before Serve has bound it.
	Addr() net.Addr

	// Serve binds the address and passes accepted connections to handler.
	// It blocks until Close is called.
	Serve(handler ConnectionHandler) error

	// Close stops the listener.
	Close() error
}

// readySignal is closed once a listener has bound its address.
type readySignal chan struct{}

func (r readySignal) fire() {
	select {
	case <-r:
	default:
		close(r)
	}
}
