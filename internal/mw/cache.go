package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

const cacheHeader = "X-Cache"

type cacheEntry struct {
	status int
	header http.Header
	body   []byte
}

// recordingWriter tees the response body so it can be replayed later.
type recordingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func (w *recordingWriter) entry() cacheEntry {
	header := w.Header().Clone()
	header.Del(cacheHeader)
	return cacheEntry{status: w.Status(), header: header, body: bytes.Clone(w.buf.Bytes())}
}

// Cache serves anonymous GET requests from store for ttl and marks every
// response it handles with X-Cache HIT or MISS. Requests with an
// Authorization header pass straight through.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cacheable(c.Request) {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if v, ok := store.Get(key); ok {
			replay(c, v.(cacheEntry))
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header(cacheHeader, "MISS")
		c.Next()

		if status := rec.Status(); status >= http.StatusOK && status < http.StatusMultipleChoices {
			store.Set(key, rec.entry(), ttl)
		}
	}
}

func cacheable(r *http.Request) bool {
	return r.Method == http.MethodGet && r.Header.Get("Authorization") == ""
}

// replay headers go out before the status line.
func replay(c *gin.Context, e cacheEntry) {
	header := c.Writer.Header()
	for k, v := range e.header {
		header[k] = v
	}
	header.Set(cacheHeader, "HIT")
	c.Writer.WriteHeader(e.status)
	_, _ = c.Writer.Write(e.body)
	c.Abort()
}
