// Package ratelimit provides request rate limiting middleware.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Decision is the outcome of a rate limit check for a single request.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter decides whether a request identified by key may proceed.
// Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(key string) Decision
}

// TokenBucketLimiter is an in-process limiter using the token bucket
// algorithm. It keeps one bucket per key and is suitable for single-node
// deployments or as a fallback when Redis is unavailable.
type TokenBucketLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewTokenBucketLimiter creates a limiter that admits requestsPerMinute
// requests per minute per key, with burst capacity equal to the per-minute
// limit.
func NewTokenBucketLimiter(requestsPerMinute int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		rate:  rate.Limit(float64(requestsPerMinute) / 60.0),
		burst: requestsPerMinute,
	}
}

// Allow reports whether the request for key is within the rate limit.
func (l *TokenBucketLimiter) Allow(key string) Decision {
	limiter := l.getLimiter(key)
	allowed := limiter.Allow()
	remaining := int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   allowed,
		Limit:     l.burst,
		Remaining: remaining,
		Reset:     time.Now().Add(time.Minute),
	}
}

func (l *TokenBucketLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(l.rate, l.burst)
	actual, _ := l.limiters.LoadOrStore(key, limiter)
	return actual.(*rate.Limiter)
}

// Middleware creates gin middleware that enforces the limiter per client IP.
// Rejected requests receive 429 with X-RateLimit-* and Retry-After headers.
func Middleware(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := limiter.Allow(ClientIP(c.Request))

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.Reset).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// ClientIP extracts the client address for rate limit keying. Proxy headers
// take precedence over the socket address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
