package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/extlabs/ext/pkg/auth"
	"github.com/extlabs/ext/pkg/config"
	"github.com/extlabs/ext/pkg/middleware/cache"
	"github.com/extlabs/ext/pkg/observability/logger"
	"github.com/extlabs/ext/pkg/observability/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         8000,
			AllowedHosts: []string{"*"},
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Cache:     config.CacheConfig{Enabled: false},
		API: config.APIConfig{
			Title:       "Sample API",
			Version:     "1.0.0",
			Description: "Sample API ext-service",
		},
	}
}

func TestRootRouteServesAPIIdentity(t *testing.T) {
	engine := NewEngine(testConfig(), Deps{Logger: logger.NewNop()})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["name"] != "Sample API" || payload["version"] != "1.0.0" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestHealthReportsOK(t *testing.T) {
	engine := NewEngine(testConfig(), Deps{Logger: logger.NewNop()})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHealthReportsDegradedDatabase(t *testing.T) {
	engine := NewEngine(testConfig(), Deps{
		Logger: logger.NewNop(),
		DBPing: func() error { return errors.New("connection refused") },
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["status"] != "degraded" {
		t.Errorf("expected degraded status, got %v", payload)
	}
}

func TestAllowedHostsRejectsUnknownHost(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedHosts = []string{"api.example.com"}
	engine := NewEngine(cfg, Deps{Logger: logger.NewNop()})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "evil.example.net"
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown host, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "api.example.com:8000"
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for allowed host with port, got %d", w.Code)
	}
}

func TestAllowedHostsSubdomainPattern(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedHosts = []string{".example.com"}
	engine := NewEngine(cfg, Deps{Logger: logger.NewNop()})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "api.example.com"
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for subdomain match, got %d", w.Code)
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	manager, err := auth.NewManager(auth.Config{Secret: "s3cret", Expiration: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	engine := NewEngine(testConfig(), Deps{Logger: logger.NewNop(), Validator: manager})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	token, err := manager.CreateToken("user-9", []string{"admin"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEngineWiresResponseCache(t *testing.T) {
	cfg := testConfig()
	cfg.Cache = config.CacheConfig{Enabled: true, DefaultTimeout: time.Minute}
	engine := NewEngine(cfg, Deps{
		Logger:     logger.NewNop(),
		Metrics:    metrics.NewRegistry(),
		CacheStore: cache.NewInMemoryStore(),
	})

	first := httptest.NewRecorder()
	engine.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	engine.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("expected cached root response, got %q", second.Header().Get("X-Cache"))
	}
}
