package inspect

import (
	"context"
	"fmt"
	"sync"

	"github.com/bromq-dev/mqttparse/pkg/packet"
)

// Hooks manages registered hooks and dispatches events.
type Hooks struct {
	mu sync.RWMutex

	ids        map[string]struct{}
	connection []ConnectionHook
	packet     []PacketHook
	malformed  []MalformedHook
}

// NewHooks creates a new hook manager.
func NewHooks() *Hooks {
	return &Hooks{ids: make(map[string]struct{})}
}

// Register registers a hook. The hook is checked for all supported interfaces.
// Registering a second hook with the same ID fails with ErrHookExists.
func (h *Hooks) Register(hook Hook) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.ids[hook.ID()]; ok {
		return fmt.Errorf("%w: %q", ErrHookExists, hook.ID())
	}
	h.ids[hook.ID()] = struct{}{}

	if ch, ok := hook.(ConnectionHook); ok {
		h.connection = append(h.connection, ch)
	}
	if ph, ok := hook.(PacketHook); ok {
		h.packet = append(h.packet, ph)
	}
	if mh, ok := hook.(MalformedHook); ok {
		h.malformed = append(h.malformed, mh)
	}
	return nil
}

// Len returns the number of registered hooks.
func (h *Hooks) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ids)
}

// OnConnect notifies all connection hooks of a new connection.
func (h *Hooks) OnConnect(ctx context.Context, conn ConnInfo) {
	h.mu.RLock()
	hooks := h.connection
	h.mu.RUnlock()

	for _, hook := range hooks {
		hook.OnConnect(ctx, conn)
	}
}

// OnDisconnect notifies all connection hooks of a closed connection.
func (h *Hooks) OnDisconnect(ctx context.Context, conn ConnInfo, err error) {
	h.mu.RLock()
	hooks := h.connection
	h.mu.RUnlock()

	for _, hook := range hooks {
		hook.OnDisconnect(ctx, conn, err)
	}
}

// OnPacket passes a decoded packet to all packet hooks.
func (h *Hooks) OnPacket(ctx context.Context, conn ConnInfo, pkt packet.Packet) {
	h.mu.RLock()
	hooks := h.packet
	h.mu.RUnlock()

	for _, hook := range hooks {
		hook.OnPacket(ctx, conn, pkt)
	}
}

// OnMalformed passes a decoding failure to all malformed hooks.
func (h *Hooks) OnMalformed(ctx context.Context, conn ConnInfo, err error) {
	h.mu.RLock()
	hooks := h.malformed
	h.mu.RUnlock()

	for _, hook := range hooks {
		hook.OnMalformed(ctx, conn, err)
	}
}
