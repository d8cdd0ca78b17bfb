package httpserver

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	wasmhtmx "github.com/xizhibei/go-wasm-htmx"
	"github.com/xizhibei/go-wasm-htmx/compressor"
)

// HTTPContext is the Context of a single HTTP request.
type HTTPContext struct {
	wasmhtmx.BaseContext
	id      string
	pattern string
	w       http.ResponseWriter
	r       *http.Request
	server  *Server
}

// NewHTTPContext creates the context for a request matched against pattern.
// The request ID is taken from the X-Request-Id header when present.
func NewHTTPContext(w http.ResponseWriter, r *http.Request, pattern string, server *Server) *HTTPContext {
	id := r.Header.Get("X-Request-Id")
	if id == "" {
		id = uuid.NewString()
	}
	c := HTTPContext{
		id:      id,
		pattern: pattern,
		w:       w,
		r:       r,
		server:  server,
	}
	c.BaseContext.Init(r.Context(), c.reply)
	return &c
}

// ID returns the request ID.
func (c *HTTPContext) ID() string {
	return c.id
}

// Method returns the route pattern.
func (c *HTTPContext) Method() string {
	return c.pattern
}

// ReplyDesc returns the request line, e.g. "POST /api/echo".
func (c *HTTPContext) ReplyDesc() string {
	return c.r.Method + " " + c.r.URL.Path
}

// Request returns the underlying request.
func (c *HTTPContext) Request() *http.Request {
	return c.r
}

// PrometheusLabels returns the "method" and "path" labels of the request.
func (c *HTTPContext) PrometheusLabels() prometheus.Labels {
	return prometheus.Labels{
		"method": c.r.Method,
		"path":   c.pattern,
	}
}

// Bind decodes the body according to its Content-Type, JSON or form, into
// request and then validates it with the server validator. An empty body
// leaves request untouched. Decode failures are reported as
// wasmhtmx.ErrInvalidBody with the cause attached as detail.
func (c *HTTPContext) Bind(request interface{}) error {
	if !c.hasBody() {
		return c.validate(request)
	}

	contentType, _, _ := strings.Cut(c.r.Header.Get("Content-Type"), ";")
	b := binding.Default(c.r.Method, strings.TrimSpace(contentType))
	if err := b.Bind(c.r, request); err != nil {
		return errors.WithSecondaryError(wasmhtmx.ErrInvalidBody, errors.Wrapf(err, "decode %s body", b.Name()))
	}
	return c.validate(request)
}

func (c *HTTPContext) validate(request interface{}) error {
	if c.server.validator == nil {
		return nil
	}
	return c.server.validator.Struct(request)
}

func (c *HTTPContext) hasBody() bool {
	if c.r.Body == nil || c.r.Body == http.NoBody {
		return false
	}
	body := bufio.NewReader(c.r.Body)
	if _, err := body.Peek(1); err != nil {
		return false
	}
	c.r.Body = struct {
		io.Reader
		io.Closer
	}{body, c.r.Body}
	return true
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *HTTPContext) reply(res *wasmhtmx.Response) {
	var (
		body        []byte
		contentType string
	)

	if res.Error != nil {
		contentType = "application/json; charset=utf-8"
		body, _ = json.Marshal(&errorResponse{Success: false, Error: res.Error.Error()})
	} else if html, ok := res.Result.(wasmhtmx.HTML); ok {
		contentType = "text/html; charset=utf-8"
		body = []byte(html)
	} else {
		contentType = "application/json; charset=utf-8"
		data, err := json.Marshal(res.Result)
		if err != nil {
			c.server.log.Errorf("Marshal response of %s: %v", c.ReplyDesc(), err)
			res.Status = wasmhtmx.StatusServerError
			data, _ = json.Marshal(&errorResponse{Success: false, Error: "JSON marshal error"})
		}
		body = data
	}

	c.server.write(c.w, c.r, res.Status, contentType, body)
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, status int, contentType string, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Add("Vary", "Accept-Encoding")

	if enc := compressor.Negotiate(r.Header.Get("Accept-Encoding")); enc != compressor.ContentEncodingPlain {
		compressed, err := s.compressor.Compress(enc, body)
		if err != nil {
			s.log.Warnf("Compress response with %s: %v", enc, err)
		} else {
			h.Set("Content-Encoding", enc.String())
			body = compressed
		}
	}

	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}
