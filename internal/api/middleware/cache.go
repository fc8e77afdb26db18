package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"speshway/internal/cache"
)

const cacheKeyNamespace = "cache:"

// CacheKey builds the store key for a request path and raw query.
func CacheKey(path, rawQuery string) string {
	key := cacheKeyNamespace + path
	if rawQuery != "" {
		key += "?" + rawQuery
	}
	return key
}

// CachePrefix builds the invalidation prefix covering a path and every
// query-string variant under it.
func CachePrefix(path string) string {
	return cacheKeyNamespace + path
}

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage serves GETs from the cache store when possible and captures
// fresh 200 responses for the given TTL. Population is fire-and-forget:
// store failures are logged and never affect the client response.
func CachePage(store cache.Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := CacheKey(c.Request.URL.Path, c.Request.URL.RawQuery)

		body, err := store.Get(ctx, key)
		if err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			LoggerFromContext(c).Warn("cache read failed", slog.Any("error", err))
		}

		c.Header("X-Cache", "MISS")
		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		// Only exact 200s get cached; errors and partial responses never do.
		if writer.Status() != http.StatusOK {
			return
		}
		if err := store.Set(ctx, key, writer.body.Bytes(), ttl); err != nil {
			LoggerFromContext(c).Warn("cache write failed", slog.Any("error", err))
		}
	}
}
