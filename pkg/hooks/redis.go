package hooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bromq-dev/mqttparse/pkg/inspect"
	"github.com/bromq-dev/mqttparse/pkg/packet"
)

// StreamClient is the subset of *redis.Client used by RedisHook.
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisHook appends a Record for every decoded and every malformed packet
// to a Redis (or Valkey) stream.
type RedisHook struct {
	client  StreamClient
	stream  string
	maxLen  int64
	timeout time.Duration
	log     *slog.Logger
}

// RedisConfig configures the Redis hook.
type RedisConfig struct {
	// Addr is the Redis server address (default: "localhost:6379").
	Addr string

	// Password for Redis authentication (optional).
	Password string

	// DB is the Redis database number (default: 0).
	DB int

	// KeyPrefix is prepended to the stream key (default: "mqttparse:").
	KeyPrefix string

	// MaxLen caps the stream length, approximately (0 = unbounded).
	MaxLen int64

	// Timeout bounds each write (default: 2s).
	Timeout time.Duration

	// Client allows providing a pre-configured client.
	// If set, Addr/Password/DB are ignored.
	Client StreamClient

	// Logger reports failed writes (default: slog.Default()).
	Logger *slog.Logger
}

// NewRedisHook creates the hook and checks the connection.
func NewRedisHook(ctx context.Context, cfg RedisConfig) (*RedisHook, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "mqttparse:"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := cfg.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	cfg.Logger.Info("redis hook initialized",
		"addr", cfg.Addr,
		"stream", cfg.KeyPrefix+"packets",
	)

	return &RedisHook{
		client:  client,
		stream:  cfg.KeyPrefix + "packets",
		maxLen:  cfg.MaxLen,
		timeout: cfg.Timeout,
		log:     cfg.Logger,
	}, nil
}

func (h *RedisHook) ID() string { return "redis" }

// Stream returns the key records are appended to.
func (h *RedisHook) Stream() string { return h.stream }

// Close closes the Redis connection.
func (h *RedisHook) Close() error {
	return h.client.Close()
}

func (h *RedisHook) OnPacket(ctx context.Context, conn inspect.ConnInfo, pkt packet.Packet) {
	h.append(ctx, NewRecord(conn, pkt, nil))
}

func (h *RedisHook) OnMalformed(ctx context.Context, conn inspect.ConnInfo, err error) {
	h.append(ctx, NewRecord(conn, nil, err))
}

func (h *RedisHook) append(ctx context.Context, rec *Record) {
	data, err := rec.Encode()
	if err != nil {
		h.log.Error("record encode failed", "conn_id", rec.ConnID, "error", err)
		return
	}

	// Records of the last packets before shutdown are still written.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: h.stream,
		Values: map[string]any{
			"conn_id": rec.ConnID,
			"record":  data,
		},
	}
	if h.maxLen > 0 {
		args.MaxLen = h.maxLen
		args.Approx = true
	}
	if err := h.client.XAdd(ctx, args).Err(); err != nil {
		h.log.Warn("redis stream append failed",
			"stream", h.stream,
			"conn_id", rec.ConnID,
			"error", err,
		)
	}
}
