// Package api implements the HTMX and WASM demo endpoints.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	wasmhtmx "github.com/xizhibei/go-wasm-htmx"
	"go.uber.org/zap"
)

const (
	timeLayout      = "1/2/2006, 3:04:05 PM"
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"

	timeFragment = `
    <div style="color: #4caf50; font-weight: bold;">
      🕒 Server Time: %s
      <br><small>Loaded via HTMX GET request</small>
    </div>
  `

	noTextFragment = `
      <div style="color: #f44336;">
        ❌ No text provided to echo
      </div>
    `

	echoFragment = `
    <div style="color: #2196f3; font-weight: bold;">
      🔊 Echo: "%s"
      <br><small>Processed via HTMX POST request</small>
    </div>
  `
)

// ErrInvalidRequestBody is replied when a request body cannot be decoded.
var ErrInvalidRequestBody = errors.New("Invalid request body")

// Registrar accepts route handlers; *httpserver.Server is one.
type Registrar interface {
	Register(pattern string, hdl *wasmhtmx.Handler)
}

// CalculationSink receives every accepted computation result.
type CalculationSink interface {
	PublishCalculation(ctx context.Context, calc *wasmhtmx.Calculation) error
}

// EchoRequest is the body of POST /api/echo.
type EchoRequest struct {
	EchoInput wasmhtmx.Value `json:"echo-input" form:"echo-input" validate:"required"`
}

// WasmResultResponse is the reply of POST /api/wasm-result.
type WasmResultResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Calculation string `json:"calculation"`
	Timestamp   string `json:"timestamp"`
}

type options struct {
	now   func() time.Time
	sinks []CalculationSink
}

// Option configures the handlers.
type Option func(o *options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithSinks forwards every accepted computation result to sinks.
func WithSinks(sinks ...CalculationSink) Option {
	return func(o *options) {
		o.sinks = append(o.sinks, sinks...)
	}
}

type api struct {
	log     *zap.SugaredLogger
	options *options
}

// Register registers the demo endpoints on r.
func Register(r Registrar, opts ...Option) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &api{
		log:     zap.S().With("module", "api"),
		options: &o,
	}

	r.Register("GET /api/time", &wasmhtmx.Handler{Method: a.serverTime})
	r.Register("POST /api/echo", &wasmhtmx.Handler{Method: a.echo})
	r.Register("POST /api/wasm-result", &wasmhtmx.Handler{Method: a.wasmResult})
}

func (a *api) serverTime(c wasmhtmx.Context) {
	now := a.options.now().Local().Format(timeLayout)
	c.ReplyOK(wasmhtmx.HTML(fmt.Sprintf(timeFragment, now)))
}

func (a *api) echo(c wasmhtmx.Context) {
	var req EchoRequest
	if err := c.Bind(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.ReplyOK(wasmhtmx.HTML(noTextFragment))
			return
		}
		a.log.Debugf("Decode %s: %+v", c.ReplyDesc(), err)
		c.ReplyError(wasmhtmx.StatusClientError, ErrInvalidRequestBody)
		return
	}

	// Echoed as-is, the fragment is trusted markup.
	c.ReplyOK(wasmhtmx.HTML(fmt.Sprintf(echoFragment, req.EchoInput.String())))
}

func (a *api) wasmResult(c wasmhtmx.Context) {
	var calc wasmhtmx.Calculation
	if err := c.Bind(&calc); err != nil {
		a.log.Debugf("Decode %s: %+v", c.ReplyDesc(), err)
		c.ReplyError(wasmhtmx.StatusClientError, ErrInvalidRequestBody)
		return
	}
	calc.ReceivedAt = a.options.now()

	a.log.Infow("Received WASM calculation result",
		"result", calc.Result.String(),
		"num1", calc.Num1.String(),
		"num2", calc.Num2.String(),
	)

	c.ReplyOK(&WasmResultResponse{
		Success:     true,
		Message:     "Received WASM result: " + calc.Result.String(),
		Calculation: calc.Expression(),
		Timestamp:   calc.ReceivedAt.UTC().Format(timestampLayout),
	})

	for _, sink := range a.options.sinks {
		if err := sink.PublishCalculation(c.Ctx(), &calc); err != nil {
			a.log.Warnf("Publish calculation %s: %v", calc.Expression(), err)
		}
	}
}
