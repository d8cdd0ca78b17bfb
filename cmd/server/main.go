package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xizhibei/go-wasm-htmx/api"
	"github.com/xizhibei/go-wasm-htmx/config"
	"github.com/xizhibei/go-wasm-htmx/httpserver"
	"github.com/xizhibei/go-wasm-htmx/hub"
	"github.com/xizhibei/go-wasm-htmx/mqttadapter"
	"github.com/xizhibei/go-wasm-htmx/mqttsink"
	"github.com/xizhibei/go-wasm-htmx/telemetry"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Sugar().Errorf("Server stopped: %+v", err)
		os.Exit(1)
	}
}

func newLogger(format string) (*zap.Logger, error) {
	if format == config.LogFormatJSON {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(ctx context.Context, cfg *config.Config) error {
	log := zap.S().With("module", "main")

	tel, err := telemetry.NewFromEnv(ctx, serverName, serviceVersion)
	if err != nil {
		log.Warnf("Failed to initialize telemetry: %v", err)
		tel, _ = telemetry.NewNoop()
	}
	if tel.IsEnabled() {
		log.Infof("Telemetry enabled")
	} else {
		log.Infof("Telemetry disabled (set OTEL_ENABLED=true to enable)")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Error shutting down telemetry: %v", err)
		}
	}()

	wsHub := hub.New()
	defer wsHub.Close()

	sinks := []api.CalculationSink{wsHub}
	if cfg.MQTTBroker != "" {
		opts, err := mqttOptions(cfg)
		if err != nil {
			return err
		}
		client, err := mqttadapter.New(cfg.MQTTBroker, cfg.MQTTClientID, opts...)
		if err != nil {
			return errors.Wrap(err, "create mqtt client")
		}
		client.EnsureConnected()
		defer client.Disconnect()

		sink := mqttsink.New(client, cfg.MQTTTopicPrefix)
		sinks = append(sinks, sink)
		log.Infof("Publishing calculations to MQTT topic %s", sink.Topic())
	}

	srv, err := newServer(cfg, prometheus.NewRegistry(), wsHub, sinks...)
	if err != nil {
		return err
	}
	srv.SetTelemetry(tel)

	return srv.ListenAndServe(ctx, httpserver.ListenConfig{
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.ShutdownTimeout,
		OnListen:        startupBanner(log, cfg.ServeRoot),
	})
}

func startupBanner(log *zap.SugaredLogger, root string) func(addr net.Addr) {
	return func(addr net.Addr) {
		port := 0
		if tcp, ok := addr.(*net.TCPAddr); ok {
			port = tcp.Port
		}
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}

		log.Infof("🚀 Server running at http://localhost:%d", port)
		log.Infof("📁 Serving files from: %s", root)
		log.Infof("🦀 WASM files should be available at: /pkg/")
		log.Infof("🔄 HTMX endpoints available at: /api/*")
		log.Infof("🔌 WebSocket available at: ws://localhost:%d/ws", port)
	}
}
