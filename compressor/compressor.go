package compressor

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/cockroachdb/errors"
)

type ContentEncoding int

const (
	ContentEncodingGzip    ContentEncoding = 0
	ContentEncodingDeflate ContentEncoding = 1
	ContentEncodingBrotli  ContentEncoding = 2
	ContentEncodingPlain   ContentEncoding = 3
)

var (
	ErrUnknownContentEncoding = errors.New("unknown content encoding")
)

// String returns the Content-Encoding header token, empty for plain.
func (e ContentEncoding) String() string {
	switch e {
	case ContentEncodingGzip:
		return "gzip"
	case ContentEncodingDeflate:
		return "deflate"
	case ContentEncodingBrotli:
		return "br"
	default:
		return ""
	}
}

// preference is the server side order used to break q-value ties.
var preference = []ContentEncoding{ContentEncodingBrotli, ContentEncodingGzip, ContentEncodingDeflate}

// Negotiate picks the encoding for a response from an Accept-Encoding header value.
// It honours q-values, prefers br over gzip over deflate on ties, and falls back to plain.
func Negotiate(acceptEncoding string) ContentEncoding {
	if acceptEncoding == "" {
		return ContentEncodingPlain
	}

	weights := map[string]float64{}
	for _, part := range strings.Split(acceptEncoding, ",") {
		token, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		q := 1.0
		if k, v, ok := strings.Cut(strings.TrimSpace(params), "="); ok && strings.TrimSpace(k) == "q" {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				q = parsed
			}
		}
		weights[token] = q
	}

	best, bestQ := ContentEncodingPlain, 0.0
	for _, enc := range preference {
		q, ok := weights[enc.String()]
		if !ok {
			q, ok = weights["*"]
		}
		if ok && q > bestQ {
			best, bestQ = enc, q
		}
	}
	return best
}

type CompressorManager struct {
	byteReaderPool   sync.Pool
	bufferPool       sync.Pool
	gzipWriterPool   sync.Pool
	zlibWriterPool   sync.Pool
	brotliWriterPool sync.Pool
}

func NewCompressorManager() *CompressorManager {
	return &CompressorManager{
		byteReaderPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewReader(nil)
			},
		},
		gzipWriterPool: sync.Pool{
			New: func() interface{} {
				return gzip.NewWriter(nil)
			},
		},
		zlibWriterPool: sync.Pool{
			New: func() interface{} {
				return zlib.NewWriter(nil)
			},
		},
		brotliWriterPool: sync.Pool{
			New: func() interface{} {
				return brotli.NewWriter(nil)
			},
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

func (c *CompressorManager) Compress(tp ContentEncoding, data []byte) ([]byte, error) {
	if data == nil {
		return nil, nil
	}

	switch tp {
	case ContentEncodingGzip:
		return c.GzipCompress(data)
	case ContentEncodingDeflate:
		return c.ZlibCompress(data)
	case ContentEncodingBrotli:
		return c.BrotliCompress(data)
	case ContentEncodingPlain:
		return data, nil
	default:
		return nil, ErrUnknownContentEncoding
	}
}

func (c *CompressorManager) Decompress(tp ContentEncoding, data []byte) ([]byte, error) {
	if data == nil {
		return nil, nil
	}

	switch tp {
	case ContentEncodingGzip:
		return c.GzipDecompress(data)
	case ContentEncodingDeflate:
		return c.ZlibDecompress(data)
	case ContentEncodingBrotli:
		return c.BrotliDecompress(data)
	case ContentEncodingPlain:
		return data, nil
	default:
		return nil, ErrUnknownContentEncoding
	}
}

func (c *CompressorManager) GzipDecompress(data []byte) ([]byte, error) {
	byteReader := c.byteReaderPool.Get().(*bytes.Reader)
	defer c.byteReaderPool.Put(byteReader)
	byteReader.Reset(data)

	reader, err := gzip.NewReader(byteReader)
	if err != nil {
		return nil, errors.Wrap(err, "gzip reader")
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (c *CompressorManager) GzipCompress(data []byte) ([]byte, error) {
	writer := c.gzipWriterPool.Get().(*gzip.Writer)
	defer c.gzipWriterPool.Put(writer)

	return c.compress(writer, func(w io.Writer) { writer.Reset(w) }, data)
}

func (c *CompressorManager) ZlibDecompress(data []byte) ([]byte, error) {
	byteReader := c.byteReaderPool.Get().(*bytes.Reader)
	defer c.byteReaderPool.Put(byteReader)
	byteReader.Reset(data)

	reader, err := zlib.NewReader(byteReader)
	if err != nil {
		return nil, errors.Wrap(err, "zlib reader")
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (c *CompressorManager) ZlibCompress(data []byte) ([]byte, error) {
	writer := c.zlibWriterPool.Get().(*zlib.Writer)
	defer c.zlibWriterPool.Put(writer)

	return c.compress(writer, func(w io.Writer) { writer.Reset(w) }, data)
}

func (c *CompressorManager) BrotliDecompress(data []byte) ([]byte, error) {
	byteReader := c.byteReaderPool.Get().(*bytes.Reader)
	defer c.byteReaderPool.Put(byteReader)
	byteReader.Reset(data)

	return io.ReadAll(brotli.NewReader(byteReader))
}

func (c *CompressorManager) BrotliCompress(data []byte) ([]byte, error) {
	writer := c.brotliWriterPool.Get().(*brotli.Writer)
	defer c.brotliWriterPool.Put(writer)

	return c.compress(writer, func(w io.Writer) { writer.Reset(w) }, data)
}

// compress runs data through a pooled writer. The result is copied out of the
// pooled buffer so it stays valid after the buffer is reused.
func (c *CompressorManager) compress(writer io.WriteCloser, reset func(io.Writer), data []byte) ([]byte, error) {
	buf := c.bufferPool.Get().(*bytes.Buffer)
	defer c.bufferPool.Put(buf)

	buf.Reset()
	reset(buf)

	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

type pooledWriter struct {
	io.WriteCloser
	release func()
}

func (w *pooledWriter) Close() error {
	err := w.WriteCloser.Close()
	w.release()
	return err
}

// Writer returns a pooled writer that compresses into w. Close flushes the
// stream and returns the writer to the pool.
func (c *CompressorManager) Writer(tp ContentEncoding, w io.Writer) (io.WriteCloser, error) {
	switch tp {
	case ContentEncodingGzip:
		writer := c.gzipWriterPool.Get().(*gzip.Writer)
		writer.Reset(w)
		return &pooledWriter{writer, func() { c.gzipWriterPool.Put(writer) }}, nil
	case ContentEncodingDeflate:
		writer := c.zlibWriterPool.Get().(*zlib.Writer)
		writer.Reset(w)
		return &pooledWriter{writer, func() { c.zlibWriterPool.Put(writer) }}, nil
	case ContentEncodingBrotli:
		writer := c.brotliWriterPool.Get().(*brotli.Writer)
		writer.Reset(w)
		return &pooledWriter{writer, func() { c.brotliWriterPool.Put(writer) }}, nil
	default:
		return nil, ErrUnknownContentEncoding
	}
}
