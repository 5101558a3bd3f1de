package hooks

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bromq-dev/mqttparse/pkg/inspect"
	"github.com/bromq-dev/mqttparse/pkg/packet"
)

// MetricsHook exports decode counters to Prometheus.
type MetricsHook struct {
	packets     *prometheus.CounterVec
	malformed   *prometheus.CounterVec
	connections prometheus.Counter
	active      prometheus.Gauge
	packetBytes prometheus.Histogram
}

// MetricsConfig configures the metrics hook.
type MetricsConfig struct {
	// Registerer receives the collectors (default: prometheus.DefaultRegisterer).
	Registerer prometheus.Registerer

	// Namespace prefixes every metric name (default: "mqttparse").
	Namespace string
}

// NewMetricsHook creates the collectors and registers them.
func NewMetricsHook(cfg MetricsConfig) (*MetricsHook, error) {
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "mqttparse"
	}

	h := &MetricsHook{
		packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "packets_total",
			Help:      "Control packets decoded, by packet type.",
		}, []string{"type"}),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "malformed_total",
			Help:      "Malformed Packets, by error kind.",
		}, []string{"kind"}),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "connections_total",
			Help:      "Connections accepted.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "active_connections",
			Help:      "Connections currently open.",
		}),
		packetBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "packet_bytes",
			Help:      "Encoded size of decoded packets, fixed header included.",
			Buckets:   prometheus.ExponentialBuckets(2, 4, 10),
		}),
	}

	for _, c := range []prometheus.Collector{h.packets, h.malformed, h.connections, h.active, h.packetBytes} {
		if err := cfg.Registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *MetricsHook) ID() string { return "metrics" }

func (h *MetricsHook) OnConnect(ctx context.Context, conn inspect.ConnInfo) {
	h.connections.Inc()
	h.active.Inc()
}

func (h *MetricsHook) OnDisconnect(ctx context.Context, conn inspect.ConnInfo, err error) {
	h.active.Dec()
}

func (h *MetricsHook) OnPacket(ctx context.Context, conn inspect.ConnInfo, pkt packet.Packet) {
	h.packets.WithLabelValues(pkt.Type().String()).Inc()
	h.packetBytes.Observe(float64(pkt.EncodedSize()))
}

func (h *MetricsHook) OnMalformed(ctx context.Context, conn inspect.ConnInfo, err error) {
	h.malformed.WithLabelValues(kindLabel(err)).Inc()
}

func kindLabel(err error) string {
	if kind := packet.KindOf(err); kind != nil {
		return kind.Error()
	}
	return "unknown"
}
