// Package cache provides HTTP response caching middleware for GET requests.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrCacheMiss indicates that a cache key was not found.
var ErrCacheMiss = errors.New("cache key not found")

// Store defines a pluggable backend for the HTTP response cache.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Close() error
}

// Recorder receives cache hit/miss events, typically a metrics registry.
type Recorder interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// Config controls response cache behavior.
type Config struct {
	Enabled   bool
	Store     Store
	TTL       time.Duration
	KeyPrefix string
	Recorder  Recorder
}

// DefaultConfig returns safe defaults with caching disabled.
func DefaultConfig() Config {
	return Config{
		Enabled:   false,
		TTL:       5 * time.Minute,
		KeyPrefix: "response_cache",
	}
}

type cacheEntry struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

// Middleware creates gin middleware that caches successful GET responses.
// Cached responses are served with X-Cache: HIT; everything else passes
// through with X-Cache: MISS. Requests carrying Cache-Control: no-cache
// bypass the cache entirely.
func Middleware(cfg Config) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}

	return func(c *gin.Context) {
		if !cfg.Enabled || cfg.Store == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		cc := strings.ToLower(c.GetHeader("Cache-Control"))
		if strings.Contains(cc, "no-cache") || strings.Contains(cc, "no-store") {
			c.Header("X-Cache", "BYPASS")
			c.Next()
			return
		}

		key := Key(cfg.KeyPrefix, c.Request)

		if raw, err := cfg.Store.Get(key); err == nil {
			entry := &cacheEntry{}
			if err := json.Unmarshal(raw, entry); err == nil {
				recordHit(cfg.Recorder)
				serveCached(c, entry)
				return
			}
		}
		recordMiss(cfg.Recorder)

		writer := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Next()

		if writer.Status() != http.StatusOK {
			return
		}

		entry := &cacheEntry{
			StatusCode: writer.Status(),
			Headers:    filterHeaders(writer.Header()),
			Body:       writer.body.Bytes(),
		}
		encoded, err := json.Marshal(entry)
		if err != nil {
			return
		}
		// Best effort; a failed store write only costs the next request a miss.
		_ = cfg.Store.Set(key, encoded, cfg.TTL)
	}
}

// Key derives the cache key for a request from its method, path and query.
func Key(prefix string, r *http.Request) string {
	sum := sha256.Sum256([]byte(r.Method + ":" + r.URL.Path + "?" + r.URL.Query().Encode()))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

func serveCached(c *gin.Context, entry *cacheEntry) {
	h := c.Writer.Header()
	for k, values := range entry.Headers {
		h[k] = append([]string{}, values...)
	}
	h.Set("X-Cache", "HIT")
	c.Writer.WriteHeader(entry.StatusCode)
	_, _ = c.Writer.Write(entry.Body)
	c.Abort()
}

func filterHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, values := range h {
		switch k {
		case "Set-Cookie", "Date", "Content-Length", "Connection", "Transfer-Encoding", "X-Cache":
			continue
		}
		out[k] = append([]string{}, values...)
	}
	return out
}

func recordHit(rec Recorder) {
	if rec != nil {
		rec.RecordCacheHit("response")
	}
}

func recordMiss(rec Recorder) {
	if rec != nil {
		rec.RecordCacheMiss("response")
	}
}

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
