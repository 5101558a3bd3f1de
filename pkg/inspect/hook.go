package inspect

import (
	"context"

	"github.com/bromq-dev/mqttparse/pkg/packet"
)

// Hook provides extension points for observing decoded traffic.
// A hook implements any subset of the interfaces below; Hooks.Register
// checks for each of them.
//
// Hook methods are called synchronously from the connection goroutine, so
// implementations must be safe for concurrent use. For long-running
// operations, implementations should spawn goroutines internally.
type Hook interface {
	// ID returns a unique identifier for this hook.
	ID() string
}

// ConnectionHook observes connection lifecycle events.
type ConnectionHook interface {
	Hook

	// OnConnect is called when a connection is accepted, before any bytes
	// are read.
	OnConnect(ctx context.Context, conn ConnInfo)

	// OnDisconnect is called once the connection is closed. err is nil for
	// a clean end of stream.
	OnDisconnect(ctx context.Context, conn ConnInfo, err error)
}

// PacketHook observes every packet that decoded successfully.
type PacketHook interface {
	Hook

	// OnPacket is called with the decoded packet. pkt must not be modified.
	OnPacket(ctx context.Context, conn ConnInfo, pkt packet.Packet)
}

// MalformedHook observes Malformed Packets. The connection is closed right
// after the hook returns.
type MalformedHook interface {
	Hook

	// OnMalformed is called with the decoding or framing error.
	OnMalformed(ctx context.Context, conn ConnInfo, err error)
}
