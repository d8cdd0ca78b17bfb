package httpserver_test

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/suite"
	wasmhtmx "github.com/xizhibei/go-wasm-htmx"
	"github.com/xizhibei/go-wasm-htmx/compressor"
	"github.com/xizhibei/go-wasm-htmx/httpserver"
	"github.com/xizhibei/go-wasm-htmx/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ReqBody struct {
	A string `json:"a" form:"a" validate:"required"`
	B int    `json:"b" form:"b"`
}

type HTTPServerTestSuite struct {
	suite.Suite
	server        *httpserver.Server
	testTelemetry *telemetry.TestTelemetry
}

func TestHTTPServer(t *testing.T) {
	suite.Run(t, new(HTTPServerTestSuite))
}

func (suite *HTTPServerTestSuite) SetupSuite() {
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)
	suite.testTelemetry = telemetry.NewTestTelemetry(suite.T())
}

func (suite *HTTPServerTestSuite) TearDownSuite() {
	if err := suite.testTelemetry.Shutdown(context.Background()); err != nil {
		suite.T().Errorf("Failed to shutdown telemetry: %v", err)
	}
}

func (suite *HTTPServerTestSuite) SetupTest() {
	suite.server = httpserver.NewServer(validator.New(), wasmhtmx.WithLogResponse(true))
	suite.server.Register("POST /bind", &wasmhtmx.Handler{
		Method: func(c wasmhtmx.Context) {
			var req ReqBody
			if err := c.Bind(&req); err != nil {
				c.ReplyError(wasmhtmx.StatusClientError, err)
				return
			}
			c.ReplyOK(&req)
		},
	})
	suite.server.Register("GET /fragment", &wasmhtmx.Handler{
		Method: func(c wasmhtmx.Context) {
			c.ReplyOK(wasmhtmx.HTML(strings.Repeat("<p>fragment</p>", 20)))
		},
	})
}

func (suite *HTTPServerTestSuite) do(req *http.Request) (*http.Response, []byte) {
	rec := httptest.NewRecorder()
	suite.server.ServeHTTP(rec, req)
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	suite.Require().NoError(err)
	return res, body
}

func (suite *HTTPServerTestSuite) TestBindJSON() {
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(`{"a":"x","b":2}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	res, body := suite.do(req)
	suite.Equal(http.StatusOK, res.StatusCode)
	suite.Equal("application/json; charset=utf-8", res.Header.Get("Content-Type"))
	suite.JSONEq(`{"a":"x","b":2}`, string(body))
}

func (suite *HTTPServerTestSuite) TestBindForm() {
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader("a=hello+world&b=7"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, body := suite.do(req)
	suite.Equal(http.StatusOK, res.StatusCode)
	suite.JSONEq(`{"a":"hello world","b":7}`, string(body))
}

func (suite *HTTPServerTestSuite) TestBindMultipart() {
	var buf strings.Builder
	w := multipart.NewWriter(&buf)
	suite.Require().NoError(w.WriteField("a", "multi"))
	suite.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(buf.String()))
	req.Header.Set("Content-Type", w.FormDataContentType())

	res, body := suite.do(req)
	suite.Equal(http.StatusOK, res.StatusCode)
	suite.JSONEq(`{"a":"multi","b":0}`, string(body))
}

func (suite *HTTPServerTestSuite) TestBindValidation() {
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(`{"b":2}`))
	req.Header.Set("Content-Type", "application/json")

	res, body := suite.do(req)
	suite.Equal(http.StatusBadRequest, res.StatusCode)
	suite.Contains(string(body), `"success":false`)
	suite.Contains(string(body), "required")
}

func (suite *HTTPServerTestSuite) TestBindMalformed() {
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(`{"a":`))
	req.Header.Set("Content-Type", "application/json")

	res, body := suite.do(req)
	suite.Equal(http.StatusBadRequest, res.StatusCode)
	suite.JSONEq(`{"success":false,"error":"invalid request body"}`, string(body))
}

func (suite *HTTPServerTestSuite) TestBindEmptyBody() {
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")

	res, body := suite.do(req)
	suite.Equal(http.StatusBadRequest, res.StatusCode)
	suite.Contains(string(body), "required")
	suite.NotContains(string(body), "EOF")
}

func (suite *HTTPServerTestSuite) TestBindDecodeErrorDetail() {
	suite.server.Register("POST /detail", &wasmhtmx.Handler{
		Method: func(c wasmhtmx.Context) {
			var req ReqBody
			err := c.Bind(&req)
			suite.ErrorIs(err, wasmhtmx.ErrInvalidBody)
			suite.Equal("invalid request body", err.Error())
			suite.Contains(fmt.Sprintf("%+v", err), "decode json body")
			c.ReplyOK(wasmhtmx.HTML("ok"))
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/detail", strings.NewReader(`[`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := suite.do(req)
	suite.Equal(http.StatusOK, res.StatusCode)
}

func (suite *HTTPServerTestSuite) TestHTMLReply() {
	res, body := suite.do(httptest.NewRequest(http.MethodGet, "/fragment", nil))
	suite.Equal(http.StatusOK, res.StatusCode)
	suite.Equal("text/html; charset=utf-8", res.Header.Get("Content-Type"))
	suite.Equal("Accept-Encoding", res.Header.Get("Vary"))
	suite.Empty(res.Header.Get("Content-Encoding"))
	suite.True(strings.HasPrefix(string(body), "<p>fragment</p>"))
}

func (suite *HTTPServerTestSuite) TestCompressedReply() {
	req := httptest.NewRequest(http.MethodGet, "/fragment", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	res, body := suite.do(req)
	suite.Equal("gzip", res.Header.Get("Content-Encoding"))

	plain, err := compressor.NewCompressorManager().GzipDecompress(body)
	suite.Require().NoError(err)
	suite.Equal(strings.Repeat("<p>fragment</p>", 20), string(plain))
}

func (suite *HTTPServerTestSuite) TestHeadReply() {
	res, body := suite.do(httptest.NewRequest(http.MethodHead, "/fragment", nil))
	suite.Equal(http.StatusOK, res.StatusCode)
	suite.Empty(body)
}

func (suite *HTTPServerTestSuite) TestNoReply() {
	suite.server.Register("GET /silent", &wasmhtmx.Handler{
		Method: func(c wasmhtmx.Context) {},
	})

	res, body := suite.do(httptest.NewRequest(http.MethodGet, "/silent", nil))
	suite.Equal(http.StatusInternalServerError, res.StatusCode)
	suite.JSONEq(`{"success":false,"error":"empty reply"}`, string(body))
}

func (suite *HTTPServerTestSuite) TestPanic() {
	suite.server.Register("GET /panic", &wasmhtmx.Handler{
		Method: func(c wasmhtmx.Context) {
			panic("boom")
		},
	})

	res, body := suite.do(httptest.NewRequest(http.MethodGet, "/panic", nil))
	suite.Equal(http.StatusInternalServerError, res.StatusCode)
	suite.Contains(string(body), "boom")
}

func (suite *HTTPServerTestSuite) TestRegisterTwice() {
	suite.NotPanics(func() {
		suite.server.Register("GET /fragment", &wasmhtmx.Handler{
			Method: func(c wasmhtmx.Context) {
				c.ReplyOK(wasmhtmx.HTML("replaced"))
			},
		})
	})

	_, body := suite.do(httptest.NewRequest(http.MethodGet, "/fragment", nil))
	suite.Equal("replaced", string(body))
}

func (suite *HTTPServerTestSuite) TestContext() {
	var got *httpserver.HTTPContext
	suite.server.Register("GET /items/{id}", &wasmhtmx.Handler{
		Method: func(c wasmhtmx.Context) {
			got = c.(*httpserver.HTTPContext)
			c.ReplyOK(map[string]string{"id": got.Request().PathValue("id")})
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	req.Header.Set("X-Request-Id", "req-1")
	_, body := suite.do(req)

	suite.JSONEq(`{"id":"42"}`, string(body))
	suite.Require().NotNil(got)
	suite.Equal("req-1", got.ID())
	suite.Equal("GET /items/{id}", got.Method())
	suite.Equal("GET /items/42", got.ReplyDesc())
	suite.Equal("GET", got.PrometheusLabels()["method"])
	suite.Equal("GET /items/{id}", got.PrometheusLabels()["path"])
}

func (suite *HTTPServerTestSuite) TestSpans() {
	suite.server.SetTelemetry(suite.testTelemetry.Telemetry(suite.T()))

	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	suite.do(req)

	var found bool
	for _, span := range suite.testTelemetry.EndedSpans() {
		if span.Name() != "POST /bind" {
			continue
		}
		found = true
		suite.Contains(span.Attributes(), attribute.Int("http.response.status_code", http.StatusBadRequest))
		suite.NotEmpty(span.Events())
	}
	suite.True(found)
}

func (suite *HTTPServerTestSuite) TestHandleAndHealth() {
	suite.server.Handle("GET /healthz", httpserver.Health())

	res, body := suite.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	suite.Equal(http.StatusOK, res.StatusCode)
	suite.JSONEq(`{"status":"ok"}`, string(body))
}

func (suite *HTTPServerTestSuite) TestServeAndShutdown() {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	suite.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	listening := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- suite.server.Serve(ctx, l, httpserver.ListenConfig{
			ShutdownTimeout: time.Second,
			OnListen:        func(addr net.Addr) { listening <- addr },
		})
	}()

	addr := <-listening
	res, err := http.Get("http://" + addr.String() + "/fragment")
	suite.Require().NoError(err)
	_ = res.Body.Close()
	suite.Equal(http.StatusOK, res.StatusCode)

	cancel()
	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("server did not shut down")
	}
}

func (suite *HTTPServerTestSuite) TestListenAndServeErrors() {
	err := suite.server.ListenAndServe(context.Background(), httpserver.ListenConfig{})
	suite.EqualError(err, "listen address is empty")

	l, err := net.Listen("tcp", "127.0.0.1:0")
	suite.Require().NoError(err)
	defer l.Close()

	err = suite.server.ListenAndServe(context.Background(), httpserver.ListenConfig{Addr: l.Addr().String()})
	suite.Error(err)
	var opErr *net.OpError
	suite.True(errors.As(err, &opErr))
}
