package middleware

import (
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// skipCompression lists path prefixes whose bodies are already compressed.
var skipCompression = []string{"/media/", "/api/v1/admin/live"}

type brotliWriter struct {
	gin.ResponseWriter
	writer *brotli.Writer
	wrote  bool
}

func (w *brotliWriter) WriteHeader(code int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

func (w *brotliWriter) Write(data []byte) (int, error) {
	w.Header().Del("Content-Length")
	w.wrote = true
	return w.writer.Write(data)
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// BrotliMiddleware compresses responses for clients that accept br.
func BrotliMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !acceptsBrotli(c) {
			c.Next()
			return
		}

		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			writer:         brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}
		c.Header("Content-Encoding", "br")
		c.Header("Vary", "Accept-Encoding")
		c.Writer = bw

		c.Next()

		if !bw.wrote {
			// nothing to encode, e.g. 204 or 304
			c.Writer.Header().Del("Content-Encoding")
			return
		}
		bw.writer.Close()
	}
}

func acceptsBrotli(c *gin.Context) bool {
	if c.Request.Method == "HEAD" || c.GetHeader("Upgrade") != "" {
		return false
	}
	for _, prefix := range skipCompression {
		if strings.HasPrefix(c.Request.URL.Path, prefix) {
			return false
		}
	}
	for _, enc := range strings.Split(c.GetHeader("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.SplitN(enc, ";", 2)[0]) == "br" {
			return true
		}
	}
	return false
}
