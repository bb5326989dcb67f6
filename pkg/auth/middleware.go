package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key under which validated claims are stored.
const ClaimsKey = "auth_claims"

// ExtractToken pulls the bearer token from the Authorization header, falling
// back to the token query parameter.
func ExtractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return r.URL.Query().Get("token")
}

// RequireAuth creates middleware that rejects requests without a valid token.
func RequireAuth(validator Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			message := "invalid token"
			if errors.Is(err, ErrTokenExpired) {
				message = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth creates middleware that validates a token when present but
// lets unauthenticated requests through.
func OptionalAuth(validator Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c.Request)
		if token != "" {
			if claims, err := validator.Validate(c.Request.Context(), token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRoles creates middleware that requires a valid token carrying at
// least one of the given roles.
func RequireRoles(validator Validator, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !claims.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// ClaimsFromGin retrieves validated claims from the gin context. Returns nil
// for unauthenticated requests.
func ClaimsFromGin(c *gin.Context) *Claims {
	raw, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := raw.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(ClaimsKey, claims)
	c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
}
