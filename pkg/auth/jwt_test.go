package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager(Config{
		Secret:     "test-secret",
		Algorithm:  "HS256",
		Expiration: time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return manager
}

func TestCreateAndValidateToken(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	token, err := manager.CreateToken("user-42", []string{"admin"}, map[string]interface{}{"org": "acme"})
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	claims, err := manager.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Errorf("expected subject user-42, got %q", claims.Subject)
	}
	if !claims.HasAnyRole("admin") {
		t.Errorf("expected admin role, got %v", claims.Roles)
	}
	if claims.Custom["org"] != "acme" {
		t.Errorf("expected custom claim preserved, got %v", claims.Custom)
	}
	if !claims.ExpiresAt.After(time.Now()) {
		t.Error("expected expiry in the future")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(Config{
		Secret:     "test-secret",
		Expiration: -time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	token, err := manager.CreateToken("user-1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = manager.Validate(context.Background(), token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestNewManagerDefaultsExpiration(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(Config{Secret: "test-secret"})
	if err != nil {
		t.Fatal(err)
	}
	if manager.expiration != time.Hour {
		t.Errorf("expected one hour default, got %v", manager.expiration)
	}

	manager, err = NewManager(Config{Secret: "test-secret", Expiration: -time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	if manager.expiration != -time.Minute {
		t.Errorf("expected negative expiration preserved, got %v", manager.expiration)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := newTestManager(t)
	token, err := issuer.CreateToken("user-1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	other, err := NewManager(Config{Secret: "different-secret"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Validate(context.Background(), token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	if _, err := manager.Validate(context.Background(), "not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(Config{Secret: ""}); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := NewManager(Config{Secret: "s", Algorithm: "RS256"}); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}

func TestClaimsContextRoundTrip(t *testing.T) {
	t.Parallel()

	claims := &Claims{Subject: "user-1"}
	ctx := WithClaims(context.Background(), claims)
	if got := GetClaims(ctx); got != claims {
		t.Errorf("expected claims from context, got %v", got)
	}
	if got := GetClaims(context.Background()); got != nil {
		t.Errorf("expected nil for empty context, got %v", got)
	}
}
