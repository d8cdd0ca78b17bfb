package wasmhtmx

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xizhibei/go-wasm-htmx/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// ErrNoReply is an error indicating the handler returned without replying.
	ErrNoReply = errors.New("empty reply")

	// ErrUnhandledMethod is returned for a route that has no registered handler.
	ErrUnhandledMethod = errors.New("unhandled method")

	// ErrInvalidBody is returned by Context.Bind when the body cannot be decoded.
	ErrInvalidBody = errors.New("invalid request body")
)

// Server dispatches requests to registered handlers and reports every response
// to after-response callbacks, metrics and telemetry.
type Server struct {
	log        *zap.SugaredLogger
	handlerMap map[string]*Handler
	handlerMu  sync.RWMutex

	cbList       []OnAfterResponseCallback
	afterResPool sync.Pool

	options   *serverOptions
	telemetry telemetry.Telemetry
}

// NewServer creates a new instance of the Server struct with the provided options.
// It initializes the server with default values for the options that are not provided.
func NewServer(options ...ServerOption) *Server {
	o := serverOptions{
		name:        uuid.New().String(),
		logResponse: false,
	}

	for _, option := range options {
		option(&o)
	}

	tel, err := telemetry.NewNoop()
	if err != nil {
		panic(err)
	}

	server := Server{
		log:        zap.S().With("module", "wasmhtmx.server"),
		handlerMap: make(map[string]*Handler),
		options:    &o,
		telemetry:  tel,

		afterResPool: sync.Pool{
			New: func() interface{} {
				return new(AfterResponseEvent)
			},
		},
	}

	return &server
}

// Name returns the server name used in metric labels.
func (s *Server) Name() string {
	return s.options.name
}

// SetTelemetry sets the telemetry used to record every response.
func (s *Server) SetTelemetry(tel telemetry.Telemetry) {
	s.telemetry = tel
}

// Telemetry returns the telemetry in use, a no-op one unless SetTelemetry was called.
func (s *Server) Telemetry() telemetry.Telemetry {
	return s.telemetry
}

// Register registers a handler for the given route pattern.
// If the pattern is already registered, it will be overridden.
func (s *Server) Register(method string, hdl *Handler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()

	if _, ok := s.handlerMap[method]; ok {
		s.log.Warnf("Method %s already registered, will override", method)
	}

	s.handlerMap[method] = hdl
	s.log.Debugf("Method %s registered", method)
}

// Methods returns the registered route patterns in sorted order.
func (s *Server) Methods() []string {
	s.handlerMu.RLock()
	defer s.handlerMu.RUnlock()

	methods := make([]string, 0, len(s.handlerMap))
	for m := range s.handlerMap {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

func (s *Server) handler(method string) (*Handler, bool) {
	s.handlerMu.RLock()
	defer s.handlerMu.RUnlock()
	hdl, ok := s.handlerMap[method]
	return hdl, ok
}

// Call handles a request by executing the handler registered for its route and
// making sure exactly one response is sent.
// A panicking handler or one that returns without replying results in a server error.
func (s *Server) Call(c Context) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Round(time.Millisecond)

		evt := s.afterResPool.Get().(*AfterResponseEvent)
		evt.Labels = c.PrometheusLabels()
		evt.Duration = duration
		evt.Res = c.GetResponse()

		status := 0
		var resErr error
		if evt.Res != nil {
			status = evt.Res.Status
			resErr = evt.Res.Error
		}

		if s.options.logResponse {
			s.log.Infof("Response to %s [%d] (%v)", c.ReplyDesc(), status, duration)
		}

		s.telemetry.RecordRequest(c.Ctx(), duration, c.Method(), strconv.Itoa(status), resErr)

		s.emitAfterResponse(evt)
	}()

	hdl, ok := s.handler(c.Method())
	if !ok {
		c.ReplyError(StatusNotFound, errors.Wrapf(ErrUnhandledMethod, "%s", c.Method()))
		return
	}

	func() {
		defer func() {
			if i := recover(); i != nil {
				err := fmt.Errorf("panic in method %s %v", c.Method(), i)
				s.log.Desugar().WithOptions(zap.AddStacktrace(zapcore.ErrorLevel)).Sugar().Error(err)
				c.ReplyError(StatusServerError, err)
			}
		}()

		hdl.Method(c)
	}()

	// If the send is successful, it means that the method did not reply with any message.
	if c.ReplyError(StatusServerError, ErrNoReply) {
		s.log.Warnf("Method %s no reply", c.Method())
	}
}

// AfterResponseEvent describes a finished request.
// Labels are the Prometheus labels of the request context.
// Duration is the time spent in Call.
// Res is the response that was sent.
type AfterResponseEvent struct {
	Labels   prometheus.Labels
	Duration time.Duration
	Res      *Response
}

// OnAfterResponseCallback is a function type that represents a callback function
// to be executed after a response is sent.
// The event is recycled once all callbacks return, so it must not be retained.
type OnAfterResponseCallback func(e *AfterResponseEvent)

// OnAfterResponse registers a callback function to be executed after each response is sent.
func (s *Server) OnAfterResponse(cb OnAfterResponseCallback) {
	s.cbList = append(s.cbList, cb)
}

func (s *Server) emitAfterResponse(e *AfterResponseEvent) {
	for _, cb := range s.cbList {
		cb(e)
	}
	*e = AfterResponseEvent{}
	s.afterResPool.Put(e)
}

// RegisterMetrics registers metrics for monitoring the server's response time and error count.
// responseTime must be partitioned by the labels of the request context plus "name" and "status";
// errorCount additionally by "message".
func (s *Server) RegisterMetrics(responseTime *prometheus.HistogramVec, errorCount *prometheus.GaugeVec) {
	s.OnAfterResponse(func(e *AfterResponseEvent) {
		status := "0"
		if e.Res != nil {
			status = strconv.FormatInt(int64(e.Res.Status), 10)
		}

		labels := prometheus.Labels{}
		for k, v := range e.Labels {
			labels[k] = v
		}
		labels["name"] = s.options.name
		labels["status"] = status

		if responseTime != nil {
			responseTime.
				With(labels).
				Observe(e.Duration.Seconds())
		}

		if e.Res != nil && e.Res.Error != nil && errorCount != nil {
			labels["message"] = e.Res.Error.Error()
			errorCount.
				With(labels).
				Inc()
		}
	})
}
