// Package inspect decodes the MQTT traffic arriving on a set of listeners
// and reports every packet, and every Malformed Packet, to hooks.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bromq-dev/mqttparse/pkg/listeners"
	"github.com/bromq-dev/mqttparse/pkg/packet"
	"github.com/bromq-dev/mqttparse/pkg/stream"
)

// Config holds inspector configuration.
type Config struct {
	// MaxPacketSize limits the size of a single packet, fixed header
	// included (0 = protocol max ~256MB).
	MaxPacketSize uint32

	// ReadTimeout closes a connection that sends nothing for this long
	// (0 = no limit). Once CONNECT has been seen with a non-zero Keep Alive,
	// one and a half times the Keep Alive is used instead [MQTT-3.1.2-24].
	ReadTimeout time.Duration

	// Logger receives connection-level diagnostics (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxPacketSize: 0, // Protocol max
		ReadTimeout:   30 * time.Second,
		Logger:        slog.Default(),
	}
}

// Stats holds inspector statistics.
type Stats struct {
	ActiveConnections int
	Connections       uint64
	Packets           uint64
	Malformed         uint64
}

// Inspector accepts connections and decodes their packets.
type Inspector struct {
	config *Config
	log    *slog.Logger
	hooks  *Hooks

	listenersMu sync.Mutex
	listeners   map[string]listeners.Listener

	connsMu sync.Mutex
	conns   map[string]net.Conn

	connections atomic.Uint64
	packets     atomic.Uint64
	malformed   atomic.Uint64

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new inspector with the given configuration.
func New(config *Config) *Inspector {
	if config == nil {
		config = DefaultConfig()
	}
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Inspector{
		config:    config,
		log:       log,
		hooks:     NewHooks(),
		listeners: make(map[string]listeners.Listener),
		conns:     make(map[string]net.Conn),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// AddHook registers a hook. Hook IDs must be unique.
func (in *Inspector) AddHook(hook Hook) error {
	return in.hooks.Register(hook)
}

// AddListener adds a listener to be started by Serve. Listener IDs must be
// unique.
func (in *Inspector) AddListener(l listeners.Listener) error {
	in.listenersMu.Lock()
	defer in.listenersMu.Unlock()

	if _, ok := in.listeners[l.ID()]; ok {
		return fmt.Errorf("%w: %q", ErrListenerExists, l.ID())
	}
	in.listeners[l.ID()] = l
	return nil
}

// Serve runs all listeners until ctx is done or one of them fails.
// The listeners are closed on return; open connections are left to Shutdown.
func (in *Inspector) Serve(ctx context.Context) error {
	in.listenersMu.Lock()
	ls := make([]listeners.Listener, 0, len(in.listeners))
	for _, l := range in.listeners {
		ls = append(ls, l)
	}
	in.listenersMu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range ls {
		l := l
		g.Go(func() error {
			in.log.Info("listener starting", "listener", l.ID())
			if err := l.Serve(in); err != nil {
				return fmt.Errorf("listener %s: %w", l.ID(), err)
			}
			return nil
		})
	}
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-in.ctx.Done():
		}
		in.closeListeners(ls)
		return nil
	})
	return g.Wait()
}

func (in *Inspector) closeListeners(ls []listeners.Listener) {
	for _, l := range ls {
		if err := l.Close(); err != nil && !errors.Is(err, listeners.ErrListenerClosed) {
			in.log.Warn("listener close failed", "listener", l.ID(), "error", err)
		}
	}
}

// HandleConnection inspects a new connection in its own goroutine.
// This should be called by the transport layer when a new connection is accepted.
// After Shutdown has started the connection is closed immediately.
func (in *Inspector) HandleConnection(conn net.Conn) {
	id := uuid.NewString()

	// Checked and tracked under connsMu: Shutdown either rejects the
	// connection here or closes it and waits for its goroutine.
	in.connsMu.Lock()
	if in.ctx.Err() != nil {
		in.connsMu.Unlock()
		conn.Close()
		return
	}
	in.conns[id] = conn
	in.wg.Add(1)
	in.connsMu.Unlock()

	go func() {
		defer in.wg.Done()
		in.handleConnection(id, conn)
	}()
}

func (in *Inspector) handleConnection(id string, conn net.Conn) {
	info := ConnInfo{
		ID:          id,
		RemoteAddr:  conn.RemoteAddr().String(),
		ConnectedAt: time.Now(),
	}

	defer in.untrack(info.ID)
	in.connections.Add(1)

	in.hooks.OnConnect(in.ctx, info)
	in.log.Debug("connection opened", "conn", info)

	err := in.readLoop(conn, &info)
	conn.Close()

	switch {
	case errors.Is(err, io.EOF):
		err = nil
	case in.ctx.Err() != nil && errors.Is(err, net.ErrClosed):
		err = ErrClosed
	}
	in.log.Debug("connection closed", "conn", info, "error", err)
	in.hooks.OnDisconnect(in.ctx, info, err)
}

// readLoop decodes packets until the stream ends or fails. A Malformed Packet
// is reported to the malformed hooks before readLoop returns.
func (in *Inspector) readLoop(conn net.Conn, info *ConnInfo) error {
	reader := stream.NewReader(conn, stream.WithMaxPacketSize(in.config.MaxPacketSize))
	seenConnect := false

	for {
		if timeout := in.readTimeout(info); timeout > 0 {
			conn.SetReadDeadline(time.Now().Add(timeout))
		}

		frame, err := reader.ReadFrame()
		if err != nil {
			if errors.Is(err, packet.ErrMalformedVarInt) || errors.Is(err, packet.ErrPacketTooLarge) {
				in.reportMalformed(*info, err)
			}
			return err
		}

		pkt, err := packet.Parse(frame.Header, frame.Payload)
		if err != nil {
			in.reportMalformed(*info, err)
			return err
		}
		in.packets.Add(1)

		if c, ok := pkt.(*packet.Connect); ok && !seenConnect {
			seenConnect = true
			info.ClientID = c.Payload.ClientID
			info.UserName = c.Payload.UserName
			info.KeepAlive = c.KeepAlive
		}

		in.hooks.OnPacket(in.ctx, *info, pkt)
	}
}

func (in *Inspector) reportMalformed(info ConnInfo, err error) {
	in.malformed.Add(1)
	in.log.Warn("malformed packet", "conn", info, "error", err, "rule", packet.RuleOf(err))
	in.hooks.OnMalformed(in.ctx, info, err)
}

func (in *Inspector) readTimeout(info *ConnInfo) time.Duration {
	if info.KeepAlive > 0 {
		return time.Duration(info.KeepAlive) * time.Second * 3 / 2
	}
	return in.config.ReadTimeout
}

func (in *Inspector) untrack(id string) {
	in.connsMu.Lock()
	delete(in.conns, id)
	in.connsMu.Unlock()
}

// Stats returns inspector statistics.
func (in *Inspector) Stats() Stats {
	in.connsMu.Lock()
	active := len(in.conns)
	in.connsMu.Unlock()

	return Stats{
		ActiveConnections: active,
		Connections:       in.connections.Load(),
		Packets:           in.packets.Load(),
		Malformed:         in.malformed.Load(),
	}
}

// Shutdown closes all listeners and connections and waits for the
// connection goroutines to finish.
func (in *Inspector) Shutdown(ctx context.Context) error {
	// Cancel before taking connsMu: HandleConnection checks in.ctx under it.
	in.cancel()

	in.listenersMu.Lock()
	ls := make([]listeners.Listener, 0, len(in.listeners))
	for _, l := range in.listeners {
		ls = append(ls, l)
	}
	in.listenersMu.Unlock()
	in.closeListeners(ls)

	in.connsMu.Lock()
	for _, conn := range in.conns {
		conn.Close()
	}
	in.connsMu.Unlock()

	// Wait for all goroutines
	done := make(chan struct{})
	go func() {
		in.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
