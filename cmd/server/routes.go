package main

import (
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	wasmhtmx "github.com/xizhibei/go-wasm-htmx"
	"github.com/xizhibei/go-wasm-htmx/api"
	"github.com/xizhibei/go-wasm-htmx/config"
	"github.com/xizhibei/go-wasm-htmx/httpserver"
)

const serverName = "wasm-htmx"

// newServer wires the static host, the demo endpoints and the operational
// routes. ws serves the WebSocket upgrade at /ws.
func newServer(cfg *config.Config, reg *prometheus.Registry, ws http.Handler, sinks ...api.CalculationSink) (*httpserver.Server, error) {
	srv := httpserver.NewServer(
		validator.New(),
		wasmhtmx.WithServerName(serverName),
		wasmhtmx.WithLogResponse(cfg.LogResponse),
	)

	responseTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wasmhtmx",
		Name:      "response_time_seconds",
		Help:      "Time spent handling API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"name", "method", "path", "status"})
	errorCount := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wasmhtmx",
		Name:      "error_count",
		Help:      "API requests answered with an error.",
	}, []string{"name", "method", "path", "status", "message"})

	for _, c := range []prometheus.Collector{
		responseTime,
		errorCount,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register collector")
		}
	}
	srv.RegisterMetrics(responseTime, errorCount)

	api.Register(srv, api.WithSinks(sinks...))

	static := srv.ServeStatic(os.DirFS(cfg.ServeRoot))
	srv.Handle("GET /{$}", static.File("index.html"))
	srv.Handle("GET /play", static.File("play.html"))

	srv.Handle("GET /healthz", httpserver.Health())
	srv.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if ws != nil {
		srv.Handle("GET /ws", ws)
	}

	return srv, nil
}
