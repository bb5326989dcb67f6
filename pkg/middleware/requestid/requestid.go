// Package requestid assigns a unique identifier to every request.
package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header is the HTTP header name for the request ID.
const Header = "X-Request-ID"

// ContextKey is the gin context key under which the request ID is stored.
const ContextKey = "request_id"

type ctxKey struct{}

// Middleware creates middleware that generates or propagates request IDs.
// An incoming X-Request-ID header is preserved; otherwise a UUID is
// generated. The ID is echoed in the response header and placed in both
// the gin context and the request context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(ContextKey, id)
		c.Header(Header, id)
		ctx := context.WithValue(c.Request.Context(), ctxKey{}, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// FromContext extracts the request ID from a request context. Returns the
// empty string when no ID is present.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}
