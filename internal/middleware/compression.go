package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig controls the gzip middleware.
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing.
	MinSize int
	// Level is the gzip level, gzip.BestSpeed through gzip.BestCompression.
	Level int
	// CompressibleTypes lists the content types to compress.
	CompressibleTypes []string
}

// DefaultCompressionConfig returns the settings used by the server.
// Photo and thumbnail responses are already-compressed image formats, so
// only the text types the API emits are listed.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/json",
			"text/plain",
			"text/html",
		},
	}
}

var gzipPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// Compression wraps handlers with opportunistic gzip encoding. Responses
// are buffered until they pass MinSize so tiny bodies, where the gzip
// framing costs more than it saves, go out unencoded.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}
			// Upgraded connections hijack the underlying writer.
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			cw := newCompressWriter(w, config)
			defer cw.Close()
			next.ServeHTTP(cw, r)
		})
	}
}

// compressWriter defers the compress-or-not decision until enough of the
// body has been seen. Headers and status are held back with it, since
// Content-Encoding has to be settled before the first byte reaches the
// client.
type compressWriter struct {
	http.ResponseWriter
	config CompressionConfig

	buf       []byte
	status    int
	committed bool
	gz        *gzip.Writer // non-nil once committed with compression
}

func newCompressWriter(w http.ResponseWriter, config CompressionConfig) *compressWriter {
	return &compressWriter{
		ResponseWriter: w,
		config:         config,
		status:         http.StatusOK,
		buf:            make([]byte, 0, config.MinSize+1),
	}
}

// WriteHeader records the status for the eventual commit. After commit it
// is a no-op, matching net/http's duplicate-WriteHeader behavior.
func (c *compressWriter) WriteHeader(status int) {
	if !c.committed {
		c.status = status
	}
}

func (c *compressWriter) Write(data []byte) (int, error) {
	if c.committed {
		if c.gz != nil {
			return c.gz.Write(data)
		}
		return c.ResponseWriter.Write(data)
	}

	c.buf = append(c.buf, data...)
	if len(c.buf) > c.config.MinSize {
		c.commit()
	}
	return len(data), nil
}

// commit chooses an encoding, sends headers and status, and flushes the
// buffered body. Runs at most once.
func (c *compressWriter) commit() {
	if c.committed {
		return
	}
	c.committed = true

	if len(c.buf) >= c.config.MinSize && c.compressibleType() {
		// Length changes under compression.
		c.Header().Del("Content-Length")
		c.Header().Set("Content-Encoding", "gzip")
		c.Header().Add("Vary", "Accept-Encoding")

		c.gz = gzipPool.Get().(*gzip.Writer)
		c.gz.Reset(c.ResponseWriter)
		c.ResponseWriter.WriteHeader(c.status)
		c.gz.Write(c.buf)
	} else {
		c.ResponseWriter.WriteHeader(c.status)
		c.ResponseWriter.Write(c.buf)
	}

	c.buf = nil
}

// compressibleType reports whether the response Content-Type is on the
// configured list. Parameters like charset are ignored.
func (c *compressWriter) compressibleType() bool {
	contentType := c.Header().Get("Content-Type")
	if contentType == "" {
		return false
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, t := range c.config.CompressibleTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}

// Close commits any pending body and returns the gzip writer to the pool.
func (c *compressWriter) Close() error {
	if !c.committed {
		c.commit()
	}
	if c.gz != nil {
		err := c.gz.Close()
		gzipPool.Put(c.gz)
		c.gz = nil
		return err
	}
	return nil
}

// Flush implements http.Flusher. Flushing forces the encoding decision on
// whatever has been buffered so far.
func (c *compressWriter) Flush() {
	if !c.committed {
		c.commit()
	}
	if c.gz != nil {
		c.gz.Flush()
	}
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Push implements http.Pusher when the underlying writer supports HTTP/2.
func (c *compressWriter) Push(target string, opts *http.PushOptions) error {
	if p, ok := c.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}
