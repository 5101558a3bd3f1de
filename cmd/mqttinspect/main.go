// Command mqttinspect accepts MQTT 3.1.1 connections, decodes every packet
// and reports the traffic to logs, Prometheus and optionally a Redis stream.
// It never answers a client; a Malformed Packet closes the connection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/bromq-dev/mqttparse/pkg/hooks"
	"github.com/bromq-dev/mqttparse/pkg/inspect"
	"github.com/bromq-dev/mqttparse/pkg/listeners"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := loadConfig(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %s\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Warn("no .env file found, using environment variables")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error(fmt.Sprintf("mqttinspect terminated with error: %s", err))
		os.Exit(1)
	}
	logger.Info("mqttinspect stopped")
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	in := inspect.New(&inspect.Config{
		MaxPacketSize: cfg.MaxPacketSize,
		ReadTimeout:   cfg.ReadTimeout,
		Logger:        logger,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := hooks.NewMetricsHook(hooks.MetricsConfig{Registerer: registry})
	if err != nil {
		return err
	}

	hookList := []inspect.Hook{
		hooks.NewLoggerHook(hooks.LoggerConfig{Logger: logger}),
		metrics,
	}
	if cfg.RedisAddr != "" {
		redisHook, err := hooks.NewRedisHook(ctx, hooks.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisPrefix,
			MaxLen:    cfg.RedisMaxLen,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisHook.Close()
		hookList = append(hookList, redisHook)
	}
	for _, h := range hookList {
		if err := in.AddHook(h); err != nil {
			return err
		}
	}

	if err := addListeners(in, cfg, logger); err != nil {
		return err
	}

	g.Go(func() error {
		return in.Serve(ctx)
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	serveHTTP(ctx, g, "metrics", cfg.MetricsAddr, mux, logger)

	if cfg.PprofAddr != "" {
		pprofMux := http.NewServeMux()
		pprofMux.HandleFunc("/debug/pprof/", pprof.Index)
		pprofMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		pprofMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		pprofMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		pprofMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
		serveHTTP(ctx, g, "pprof", cfg.PprofAddr, pprofMux, logger)
	}

	g.Go(func() error {
		return stopSignalHandler(ctx, cancel, logger)
	})

	err = g.Wait()

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer done()
	if serr := in.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("shutdown did not complete", "error", serr)
	}
	stats := in.Stats()
	logger.Info("inspector stats",
		"connections", stats.Connections,
		"packets", stats.Packets,
		"malformed", stats.Malformed,
	)
	return err
}

func addListeners(in *inspect.Inspector, cfg Config, logger *slog.Logger) error {
	if cfg.TCPAddr != "" {
		if err := in.AddListener(listeners.NewTCP("tcp", cfg.TCPAddr, nil)); err != nil {
			return err
		}
		logger.Info("TCP listener configured", "addr", cfg.TCPAddr)
	}

	if cfg.WSAddr != "" {
		ws := listeners.NewWebSocket("ws", cfg.WSAddr, &listeners.WebSocketConfig{Path: cfg.WSPath})
		if err := in.AddListener(ws); err != nil {
			return err
		}
		logger.Info("WebSocket listener configured", "addr", cfg.WSAddr, "path", cfg.WSPath)
	}

	tlsConfig, err := cfg.tlsConfig()
	if err != nil {
		return fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	if tlsConfig != nil && cfg.TLSAddr != "" {
		tcp := listeners.NewTCP("tcp+tls", cfg.TLSAddr, &listeners.TCPConfig{TLSConfig: tlsConfig})
		if err := in.AddListener(tcp); err != nil {
			return err
		}
		logger.Info("TLS listener configured", "addr", cfg.TLSAddr)
	}
	return nil
}

func serveHTTP(ctx context.Context, g *errgroup.Group, name, addr string, handler http.Handler, logger *slog.Logger) {
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Info("http server started", "server", name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func stopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	select {
	case sig := <-c:
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
		return nil
	case <-ctx.Done():
		return nil
	}
}
