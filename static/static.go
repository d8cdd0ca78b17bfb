// Package static serves files from a serving root and hands every request it
// cannot satisfy to the next handler.
package static

import (
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/benbjohnson/hashfs"
	"github.com/xizhibei/go-wasm-htmx/compressor"
	"go.uber.org/zap"
)

var contentTypes = map[string]string{
	".wasm": "application/wasm",
	".js":   "text/javascript; charset=utf-8",
	".mjs":  "text/javascript; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".json": "application/json",
}

// Host serves files from a file system.
type Host struct {
	root       *hashfs.FS
	files      http.Handler
	next       http.Handler
	compressor *compressor.CompressorManager
	log        *zap.SugaredLogger
}

// New returns a Host serving root. Requests for missing files go to next,
// which defaults to http.NotFoundHandler.
func New(root fs.FS, next http.Handler, cm *compressor.CompressorManager) *Host {
	if next == nil {
		next = http.NotFoundHandler()
	}
	if cm == nil {
		cm = compressor.NewCompressorManager()
	}
	hfs := hashfs.NewFS(root)
	return &Host{
		root:       hfs,
		files:      hashfs.FileServer(hfs),
		next:       next,
		compressor: cm,
		log:        zap.S().With("module", "static"),
	}
}

// ServeHTTP serves the file named by the request path, or index.html for a
// directory, and falls through to the next handler otherwise.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.next.ServeHTTP(w, r)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "."
	}
	if h.serve(w, r, name) {
		return
	}
	h.next.ServeHTTP(w, r)
}

// File returns a handler that always serves the named file, answering 404 when
// it does not exist.
func (h *Host) File(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.serve(w, r, name) {
			http.NotFound(w, r)
		}
	})
}

func (h *Host) serve(w http.ResponseWriter, r *http.Request, name string) bool {
	name, ok := h.resolve(name)
	if !ok {
		return false
	}

	if ct := ContentType(name); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Add("Vary", "Accept-Encoding")

	req := r.Clone(r.Context())
	req.URL.Path = "/" + name
	req.URL.RawPath = ""

	enc := compressor.Negotiate(r.Header.Get("Accept-Encoding"))
	if enc != compressor.ContentEncodingPlain && r.Header.Get("Range") == "" {
		cw := &compressWriter{ResponseWriter: w, cm: h.compressor, enc: enc, head: r.Method == http.MethodHead}
		defer func() {
			if err := cw.Close(); err != nil {
				h.log.Warnf("Compress %s with %s: %v", name, enc, err)
			}
		}()
		w = cw
	}

	h.files.ServeHTTP(w, req)
	return true
}

// resolve maps name to a regular file, going through index.html for directories.
func (h *Host) resolve(name string) (string, bool) {
	if !fs.ValidPath(name) {
		return "", false
	}
	st, err := fs.Stat(h.root, name)
	if err != nil {
		return "", false
	}
	if !st.IsDir() {
		return name, true
	}

	name = path.Join(name, "index.html")
	st, err = fs.Stat(h.root, name)
	if err != nil || st.IsDir() {
		return "", false
	}
	return name, true
}

// compressWriter compresses 200 responses on the fly. Other statuses, such as
// 304, pass through untouched.
type compressWriter struct {
	http.ResponseWriter
	cm   *compressor.CompressorManager
	enc  compressor.ContentEncoding
	head bool

	wroteHeader bool
	zw          io.WriteCloser
}

func (w *compressWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if status == http.StatusOK {
		h := w.Header()
		h.Del("Content-Length")
		h.Del("Accept-Ranges")
		h.Set("Content-Encoding", w.enc.String())
		if !w.head {
			zw, err := w.cm.Writer(w.enc, w.ResponseWriter)
			if err == nil {
				w.zw = zw
			}
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *compressWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.zw != nil {
		return w.zw.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

func (w *compressWriter) Close() error {
	if w.zw == nil {
		return nil
	}
	return w.zw.Close()
}

// ContentType infers the content type of a file from its extension. It is
// empty for unknown extensions, leaving the type to content sniffing.
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}
