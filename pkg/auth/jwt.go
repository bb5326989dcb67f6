// Package auth provides JWT token issuance and validation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors returned by Validate.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims represents the extracted claims from a validated token.
type Claims struct {
	Subject   string
	Roles     []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Custom    map[string]interface{}
}

// HasAnyRole reports whether the claims carry at least one of the given roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range c.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Validator validates tokens and extracts claims.
type Validator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
}

// Config configures the HMAC token manager.
type Config struct {
	Secret     string
	Algorithm  string
	Expiration time.Duration
}

// Manager issues and validates HMAC-signed JWT tokens.
type Manager struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	expiration time.Duration
}

// NewManager creates a token manager. Only the HS256, HS384 and HS512
// algorithms are supported.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	var method *jwt.SigningMethodHMAC
	switch strings.ToUpper(cfg.Algorithm) {
	case "HS256", "":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %s", cfg.Algorithm)
	}

	// Only the unset zero value gets the default; negative expirations are
	// kept so callers can mint already-expired tokens.
	expiration := cfg.Expiration
	if expiration == 0 {
		expiration = time.Hour
	}

	return &Manager{
		secret:     []byte(cfg.Secret),
		method:     method,
		expiration: expiration,
	}, nil
}

// CreateToken issues a signed token for userID. Roles and extra claims are
// embedded in the payload alongside the standard sub/iat/exp claims.
func (m *Manager) CreateToken(userID string, roles []string, extra map[string]interface{}) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(m.expiration).Unix(),
	}
	for key, value := range extra {
		switch key {
		case "sub", "iat", "exp":
			continue
		}
		claims[key] = value
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}

	token := jwt.NewWithClaims(m.method, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies the token signature and expiration and extracts claims.
func (m *Manager) Validate(_ context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	return extractClaims(mapClaims), nil
}

func extractClaims(mapClaims jwt.MapClaims) *Claims {
	claims := &Claims{Custom: make(map[string]interface{})}

	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Subject = sub
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	claims.Roles = extractRoles(mapClaims["roles"])

	for key, value := range mapClaims {
		switch key {
		case "sub", "iat", "exp", "nbf", "jti", "roles":
			continue
		}
		claims.Custom[key] = value
	}
	return claims
}

func extractRoles(raw interface{}) []string {
	switch typed := raw.(type) {
	case []string:
		return typed
	case []interface{}:
		roles := make([]string, 0, len(typed))
		for _, item := range typed {
			if role, ok := item.(string); ok && role != "" {
				roles = append(roles, role)
			}
		}
		return roles
	default:
		return nil
	}
}

// claimsContextKey is the context key for storing claims.
type claimsContextKey struct{}

// WithClaims stores claims in the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// GetClaims retrieves claims from the context. Returns nil if no claims are
// found.
func GetClaims(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsContextKey{}).(*Claims); ok {
		return claims
	}
	return nil
}
