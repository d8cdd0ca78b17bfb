package httpserver

import (
	"context"
	"io/fs"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	wasmhtmx "github.com/xizhibei/go-wasm-htmx"
	"github.com/xizhibei/go-wasm-htmx/compressor"
	"github.com/xizhibei/go-wasm-htmx/static"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultShutdownTimeout = 30 * time.Second

var (
	errNoAddr = errors.New("listen address is empty")
)

// Server serves registered handlers over HTTP.
// Requests first go to the static file host, if one is configured, and fall
// through to the route handlers.
type Server struct {
	*wasmhtmx.Server
	log        *zap.SugaredLogger
	mux        *http.ServeMux
	validator  *validator.Validate
	compressor *compressor.CompressorManager
	static     *static.Host
}

// NewServer creates a new HTTP server whose Bind validates with the given validator.
func NewServer(validator *validator.Validate, options ...wasmhtmx.ServerOption) *Server {
	if validator != nil {
		validator.RegisterCustomTypeFunc(wasmhtmx.ValueTypeFunc, wasmhtmx.Value{})
	}
	return &Server{
		Server:     wasmhtmx.NewServer(options...),
		log:        zap.S().With("module", "httpserver"),
		mux:        http.NewServeMux(),
		validator:  validator,
		compressor: compressor.NewCompressorManager(),
	}
}

// Register registers hdl for an http.ServeMux pattern such as "POST /api/echo".
// Registering a pattern again replaces its handler.
func (s *Server) Register(pattern string, hdl *wasmhtmx.Handler) {
	exists := slices.Contains(s.Server.Methods(), pattern)
	s.Server.Register(pattern, hdl)
	if exists {
		return
	}
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		s.serve(pattern, w, r)
	})
}

// Handle registers a plain http.Handler that bypasses the handler pipeline.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// ServeStatic puts a static file host for root in front of the routes.
func (s *Server) ServeStatic(root fs.FS) *static.Host {
	s.static = static.New(root, s.mux, s.compressor)
	return s.static
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.static != nil {
		s.static.ServeHTTP(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) serve(pattern string, w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Telemetry().StartSpan(r.Context(), pattern,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		),
	)
	defer span.End()

	c := NewHTTPContext(w, r.WithContext(ctx), pattern, s)
	s.Server.Call(c)

	if res := c.GetResponse(); res != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", res.Status))
		if res.Error != nil {
			span.RecordError(res.Error)
		}
	}
}

// ListenConfig configures ListenAndServe.
type ListenConfig struct {
	// Addr is a network address to listen on (in the form of "host:port").
	Addr string
	// ShutdownTimeout bounds graceful shutdown, 30 seconds when zero.
	ShutdownTimeout time.Duration
	// OnListen is called once the listener is bound.
	OnListen func(addr net.Addr)
}

// ListenAndServe serves until ctx is done and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg ListenConfig) error {
	if cfg.Addr == "" {
		return errNoAddr
	}

	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", cfg.Addr)
	}
	defer l.Close()

	return s.Serve(ctx, l, cfg)
}

// Serve serves on l until ctx is done and then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener, cfg ListenConfig) error {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.log.Desugar()),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Infof("Listening on %s", l.Addr().String())
	if cfg.OnListen != nil {
		cfg.OnListen(l.Addr())
	}

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
		s.log.Infof("Gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
	}

	return nil
}
