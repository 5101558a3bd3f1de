// Package hooks provides hook implementations for the inspector.
package hooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/bromq-dev/mqttparse/pkg/inspect"
	"github.com/bromq-dev/mqttparse/pkg/packet"
)

// LoggerHook logs inspector events using slog.
type LoggerHook struct {
	logger *slog.Logger
	level  LogLevel
}

// LogLevel controls which events are logged.
type LogLevel int

const (
	// LogLevelConnection logs connect/disconnect events.
	LogLevelConnection LogLevel = 1 << iota
	// LogLevelPacket logs every decoded packet at debug level.
	LogLevelPacket
	// LogLevelMalformed logs Malformed Packets.
	LogLevelMalformed
	// LogLevelAll logs all events.
	LogLevelAll = LogLevelConnection | LogLevelPacket | LogLevelMalformed
)

// LoggerConfig configures the logger hook.
type LoggerConfig struct {
	// Logger is the slog.Logger to use (default: slog.Default()).
	Logger *slog.Logger

	// Level controls which events are logged (default: LogLevelAll).
	Level LogLevel
}

// NewLoggerHook creates a new logging hook.
func NewLoggerHook(cfg LoggerConfig) *LoggerHook {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Level == 0 {
		cfg.Level = LogLevelAll
	}
	return &LoggerHook{
		logger: cfg.Logger,
		level:  cfg.Level,
	}
}

func (h *LoggerHook) ID() string { return "logger" }

// ConnectionHook implementation

func (h *LoggerHook) OnConnect(ctx context.Context, conn inspect.ConnInfo) {
	if h.level&LogLevelConnection == 0 {
		return
	}
	h.logger.Info("connection accepted",
		"conn_id", conn.ID,
		"remote_addr", conn.RemoteAddr,
	)
}

func (h *LoggerHook) OnDisconnect(ctx context.Context, conn inspect.ConnInfo, err error) {
	if h.level&LogLevelConnection == 0 {
		return
	}
	attrs := []any{
		"conn_id", conn.ID,
		"client_id", conn.ClientID,
		"duration", time.Since(conn.ConnectedAt),
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	h.logger.Info("connection closed", attrs...)
}

// PacketHook implementation

func (h *LoggerHook) OnPacket(ctx context.Context, conn inspect.ConnInfo, pkt packet.Packet) {
	if h.level&LogLevelPacket == 0 {
		return
	}
	attrs := []any{
		"conn_id", conn.ID,
		"client_id", conn.ClientID,
		"type", pkt.Type().String(),
		"size", pkt.EncodedSize(),
	}
	if id, ok := pkt.(packet.Identified); ok && id.Identifier() != 0 {
		attrs = append(attrs, "packet_id", id.Identifier())
	}

	switch p := pkt.(type) {
	case *packet.Connect:
		attrs = append(attrs,
			"username", p.Payload.UserName,
			"clean_session", p.Flags.CleanSession,
			"keep_alive", p.KeepAlive,
			"will", p.Flags.WillFlag,
		)
	case *packet.Connack:
		attrs = append(attrs,
			"session_present", p.SessionPresent,
			"return_code", p.ReturnCode.String(),
		)
	case *packet.Publish:
		attrs = append(attrs,
			"topic", p.TopicName,
			"qos", p.QoS,
			"retain", p.Retain,
			"dup", p.Dup,
			"payload_size", len(p.Payload),
		)
	case *packet.Subscribe:
		for _, sub := range p.Subscriptions {
			attrs = append(attrs, slog.Group("subscription",
				"topic", sub.TopicFilter,
				"qos", sub.QoS,
			))
		}
	case *packet.Suback:
		attrs = append(attrs, "return_code", p.ReturnCode.String())
	case *packet.Unsubscribe:
		attrs = append(attrs, "topics", p.TopicFilters)
	}

	h.logger.Debug("packet decoded", attrs...)
}

// MalformedHook implementation

func (h *LoggerHook) OnMalformed(ctx context.Context, conn inspect.ConnInfo, err error) {
	if h.level&LogLevelMalformed == 0 {
		return
	}
	attrs := []any{
		"conn_id", conn.ID,
		"client_id", conn.ClientID,
		"remote_addr", conn.RemoteAddr,
		"error", err.Error(),
	}
	if kind := packet.KindOf(err); kind != nil {
		attrs = append(attrs, "kind", kind.Error())
	}
	if rule := packet.RuleOf(err); rule != "" {
		attrs = append(attrs, "rule", rule)
	}
	h.logger.Warn("malformed packet", attrs...)
}
