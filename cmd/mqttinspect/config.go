package main

import (
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "MQTTINSPECT_"

// Config is read from MQTTINSPECT_* environment variables.
type Config struct {
	TCPAddr string `env:"TCP_ADDR" envDefault:":1883"`
	TLSAddr string `env:"TLS_ADDR" envDefault:":8883"`
	WSAddr  string `env:"WS_ADDR" envDefault:":8083"`
	WSPath  string `env:"WS_PATH" envDefault:"/mqtt"`

	// The TLS listener only starts when both are set.
	TLSCert string `env:"TLS_CERT"`
	TLSKey  string `env:"TLS_KEY"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`
	PprofAddr   string `env:"PPROF_ADDR"`

	// The Redis stream hook is disabled when RedisAddr is empty.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"mqttparse:"`
	RedisMaxLen   int64  `env:"REDIS_MAX_LEN" envDefault:"100000"`

	MaxPacketSize   uint32        `env:"MAX_PACKET_SIZE" envDefault:"0"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// loadConfig parses the configuration. environ overrides the process
// environment when non-nil.
func loadConfig(environ map[string]string) (Config, error) {
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) tlsConfig() (*tls.Config, error) {
	if c.TLSCert == "" || c.TLSKey == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(c.TLSCert, c.TLSKey)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
