package inspect

import (
	"log/slog"
	"time"
)

// ConnInfo describes one inspected connection. Hooks receive a copy; the
// CONNECT fields are filled in once the first CONNECT has decoded.
type ConnInfo struct {
	// ID is a random UUID assigned on accept.
	ID string

	RemoteAddr  string
	ConnectedAt time.Time

	// From the first CONNECT packet.
	ClientID  string
	UserName  string
	KeepAlive uint16
}

// LogValue groups the identifying fields for slog.
func (c ConnInfo) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("conn_id", c.ID),
		slog.String("remote_addr", c.RemoteAddr),
	}
	if c.ClientID != "" {
		attrs = append(attrs, slog.String("client_id", c.ClientID))
	}
	return slog.GroupValue(attrs...)
}
