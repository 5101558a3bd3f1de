package listeners

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrTextFrame is returned by a WebSocket connection that received a text
// frame. MQTT Control Packets MUST be sent in WebSocket binary data frames
// [MQTT-6.0.0-1].
var ErrTextFrame = errors.New("websocket text frame received, MQTT requires binary frames")

// Subprotocol is the WebSocket subprotocol name for MQTT 3.1.1
// [MQTT-6.0.0-4].
const Subprotocol = "mqtt"

// WebSocketConfig holds configuration for WebSocket listeners.
type WebSocketConfig struct {
	// TLSConfig enables TLS if set.
	TLSConfig *tls.Config

	// Path is the URL path to listen on. Default: "/mqtt".
	Path string

	// CheckOrigin is a function to validate the Origin header.
	// If nil, all origins are allowed.
	CheckOrigin func(r *http.Request) bool

	// ReadHeaderTimeout bounds the HTTP upgrade request. Default: 10s.
	ReadHeaderTimeout time.Duration
}

// WebSocket is a WebSocket listener.
type WebSocket struct {
	id       string
	addr     string
	config   *WebSocketConfig
	server   *http.Server
	ln       net.Listener
	upgrader websocket.Upgrader
	handler  ConnectionHandler
	ready    readySignal
	wg       sync.WaitGroup
	closed   chan struct{}
	mu       sync.Mutex
}

// NewWebSocket creates a new WebSocket listener.
func NewWebSocket(id, addr string, config *WebSocketConfig) *WebSocket {
	if config == nil {
		config = &WebSocketConfig{}
	}
	if config.Path == "" {
		config.Path = "/mqtt"
	}
	if config.ReadHeaderTimeout == 0 {
		config.ReadHeaderTimeout = 10 * time.Second
	}
	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	return &WebSocket{
		id:     id,
		addr:   addr,
		config: config,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{Subprotocol},
			CheckOrigin:  checkOrigin,
		},
		ready:  make(readySignal),
		closed: make(chan struct{}),
	}
}

// ID returns the listener ID.
func (w *WebSocket) ID() string {
	return w.id
}

// Addr returns the bound address, or nil before Serve.
func (w *WebSocket) Addr() net.Addr {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ln == nil {
		return nil
	}
	return w.ln.Addr()
}

// Ready is closed once the address is bound.
func (w *WebSocket) Ready() <-chan struct{} {
	return w.ready
}

// Serve starts the WebSocket server.
func (w *WebSocket) Serve(handler ConnectionHandler) error {
	mux := http.NewServeMux()
	mux.HandleFunc(w.config.Path, w.handleWebSocket)

	server := &http.Server{
		Addr:              w.addr,
		Handler:           mux,
		ReadHeaderTimeout: w.config.ReadHeaderTimeout,
	}

	var ln net.Listener
	var err error

	if w.config.TLSConfig != nil {
		server.TLSConfig = w.config.TLSConfig
		ln, err = tls.Listen("tcp", w.addr, w.config.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", w.addr)
	}
	if err != nil {
		return err
	}

	w.mu.Lock()
	select {
	case <-w.closed:
		w.mu.Unlock()
		return ln.Close()
	default:
	}
	w.handler = handler
	w.server = server
	w.ln = ln
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	w.ready.fire()

	err = server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (w *WebSocket) handleWebSocket(rw http.ResponseWriter, r *http.Request) {
	select {
	case <-w.closed:
		http.Error(rw, "server closing", http.StatusServiceUnavailable)
		return
	default:
	}

	ws, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		return
	}

	w.handler.HandleConnection(&wsConn{
		Conn:       ws,
		remoteAddr: r.RemoteAddr,
	})
}

// Close stops the WebSocket server.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	select {
	case <-w.closed:
		w.mu.Unlock()
		return ErrListenerClosed
	default:
		close(w.closed)
	}

	if w.server != nil {
		w.server.Close()
	}
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

// wsConn adapts a websocket.Conn to net.Conn. Consecutive binary messages
// form one continuous byte stream; a packet may span several messages.
type wsConn struct {
	*websocket.Conn
	reader     io.Reader
	remoteAddr string
	readMu     sync.Mutex
	writeMu    sync.Mutex
}

func (c *wsConn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		if c.reader == nil {
			messageType, r, err := c.Conn.NextReader()
			if err != nil {
				return 0, err
			}
			if messageType != websocket.BinaryMessage {
				return 0, ErrTextFrame
			}
			c.reader = r
		}

		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.Conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) RemoteAddr() net.Addr {
	return &wsAddr{addr: c.remoteAddr}
}

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.Conn.SetReadDeadline(t); err != nil {
		return err
	}
	return c.Conn.SetWriteDeadline(t)
}

// wsAddr implements net.Addr for WebSocket connections.
type wsAddr struct {
	addr string
}

func (a *wsAddr) Network() string { return "websocket" }
func (a *wsAddr) String() string  { return a.addr }
