package wasmhtmx

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// HTML is a response body that is written verbatim as text/html.
type HTML string

// Response represents a response message.
// Result holds the response data, an HTML value is written as a fragment and
// anything else is encoded as JSON.
// Error holds any error that occurred during the request.
// Status holds the HTTP status code of the response.
type Response struct {
	Result interface{}
	Error  error
	Status int
}

// Context represents the context of a single request handled by a Server.
type Context interface {
	// ID returns the unique identifier of the request.
	ID() string

	// Method returns the route pattern the request was matched against, e.g. "GET /api/time".
	Method() string

	// Ctx returns the underlying context.Context.
	Ctx() context.Context

	// ReplyDesc returns a human readable description of the request, used in logs.
	ReplyDesc() string

	// Bind decodes the request body into request and runs presence checks on it.
	Bind(request interface{}) error

	// Reply sends a response message.
	// It returns true if the response was sent, false if a response had already been sent.
	Reply(res *Response) bool

	// ReplyOK sends a successful response message with the given data.
	// It returns true if the response was sent, false otherwise.
	ReplyOK(data interface{}) bool

	// ReplyError sends an error response message with the given status and error.
	// It returns true if the response was sent, false otherwise.
	ReplyError(status int, err error) bool

	// GetResponse returns the response message, nil until a reply is sent.
	GetResponse() *Response

	// PrometheusLabels returns the Prometheus labels associated with the context.
	PrometheusLabels() prometheus.Labels
}

// BaseContext implements the reply bookkeeping shared by all Context implementations.
// Embedders call Init before use.
type BaseContext struct {
	res       *Response
	resMu     sync.Mutex
	replied   atomic.Bool
	baseReply func(res *Response)
	ctx       context.Context
}

// Init sets the underlying context and the function that writes a response to the transport.
func (c *BaseContext) Init(ctx context.Context, reply func(res *Response)) {
	c.ctx = ctx
	c.baseReply = reply
}

// Ctx returns the context associated with the BaseContext.
// If no context is set, it returns the background context.
func (c *BaseContext) Ctx() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Reply sends a response to the client.
// Only the first call writes anything; later calls return false.
func (c *BaseContext) Reply(res *Response) bool {
	if !c.replied.CompareAndSwap(false, true) {
		return false
	}

	c.setResponse(res)

	if c.baseReply != nil {
		c.baseReply(res)
	}

	return true
}

// ReplyOK sends a successful response with the given data.
func (c *BaseContext) ReplyOK(data interface{}) bool {
	return c.Reply(&Response{
		Status: StatusOK,
		Result: data,
	})
}

// ReplyError sends an error response with the specified status code and error message.
func (c *BaseContext) ReplyError(status int, err error) bool {
	return c.Reply(&Response{
		Status: status,
		Error:  err,
	})
}

func (c *BaseContext) setResponse(res *Response) {
	c.resMu.Lock()
	defer c.resMu.Unlock()
	c.res = res
}

// GetResponse returns the response associated with the context.
func (c *BaseContext) GetResponse() *Response {
	c.resMu.Lock()
	defer c.resMu.Unlock()
	return c.res
}

// Handler represents a route handler.
// Method is the function to be executed when handling the request.
type Handler struct {
	Method func(c Context)
}
